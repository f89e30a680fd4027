package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	"github.com/xiebiao/mall/internal/domain/product"
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubBatch struct {
	got    imagesearch.BatchRequest
	result *imagesearch.BatchResult
	err    error
}

func (s *stubBatch) Execute(ctx context.Context, req imagesearch.BatchRequest) (*imagesearch.BatchResult, error) {
	s.got = req
	return s.result, s.err
}

type stubSearch struct {
	got imagesearch.SearchByImageRequest
	err error
}

func (s *stubSearch) Execute(ctx context.Context, req imagesearch.SearchByImageRequest) (*imagesearch.SearchByImageResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &imagesearch.SearchByImageResponse{
		List:  []*imagesearch.SearchItem{{ProductID: 7, Name: "帆布鞋", Similarity: 0.9}},
		Total: 1,
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}

type stubStatus struct{ err error }

func (s *stubStatus) Execute(ctx context.Context, productID uint) (*imagesearch.IndexStatusResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &imagesearch.IndexStatusResponse{ProductID: productID, Status: 1, StatusText: "已入库"}, nil
}

type stubList struct{ got imagesearch.ListByIndexStatusRequest }

func (s *stubList) Execute(ctx context.Context, req imagesearch.ListByIndexStatusRequest) (*imagesearch.ListByIndexStatusResponse, error) {
	s.got = req
	return &imagesearch.ListByIndexStatusResponse{
		List:  []imagesearch.IndexListItem{{ProductID: 1}, {ProductID: 2}},
		Total: 45,
		Page:  2,
		Limit: 20,
	}, nil
}

type stubStats struct{}

func (stubStats) Execute(ctx context.Context) (*imagesearch.IndexStats, error) {
	return &imagesearch.IndexStats{Total: 10, Indexed: 6, NotIndexed: 3, Failed: 1}, nil
}

type imageSearchFixture struct {
	add    *stubBatch
	remove *stubBatch
	search *stubSearch
	status *stubStatus
	list   *stubList
	router *gin.Engine
}

func newImageSearchFixture() *imageSearchFixture {
	f := &imageSearchFixture{
		add:    &stubBatch{},
		remove: &stubBatch{},
		search: &stubSearch{},
		status: &stubStatus{},
		list:   &stubList{},
	}
	h := &ImageSearchHandler{
		batchIndex:  f.add,
		batchRemove: f.remove,
		search:      f.search,
		status:      f.status,
		list:        f.list,
		stats:       stubStats{},
	}

	r := gin.New()
	g := r.Group("/api/v1/image-search")
	g.POST("/batch-add", h.BatchAdd)
	g.POST("/batch-delete", h.BatchDelete)
	g.POST("/search", h.Search)
	g.GET("/status/:product_id", h.Status)
	g.GET("/indexed", h.ListIndexed)
	g.GET("/not-indexed", h.ListNotIndexed)
	g.GET("/stats", h.Stats)
	f.router = r
	return f
}

func (f *imageSearchFixture) do(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("image", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/image-search/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBatchAdd(t *testing.T) {
	t.Run("有成功项返回201", func(t *testing.T) {
		f := newImageSearchFixture()
		f.add.result = &imagesearch.BatchResult{Total: 2, SuccessCount: 1, FailedCount: 1}

		w, body := f.do(jsonRequest("/api/v1/image-search/batch-add", `{"product_ids":[1,2]}`))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, []uint{1, 2}, f.add.got.ProductIDs)
	})

	t.Run("全部失败返回200", func(t *testing.T) {
		f := newImageSearchFixture()
		f.add.result = &imagesearch.BatchResult{Total: 1, FailedCount: 1}

		w, _ := f.do(jsonRequest("/api/v1/image-search/batch-add", `{"product_ids":[1]}`))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("商品均不存在返回404", func(t *testing.T) {
		f := newImageSearchFixture()
		f.add.err = product.ErrNothingFound

		w, body := f.do(jsonRequest("/api/v1/image-search/batch-add", `{"product_ids":[9]}`))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("空列表", func(t *testing.T) {
		f := newImageSearchFixture()

		w, _ := f.do(jsonRequest("/api/v1/image-search/batch-add", `{"product_ids":[]}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBatchDelete(t *testing.T) {
	f := newImageSearchFixture()
	f.remove.err = apperrors.New(apperrors.ErrCodeVendorConfig, "百度图像搜索未配置API Key或Secret Key")

	w, body := f.do(jsonRequest("/api/v1/image-search/batch-delete", `{"product_ids":[1]}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])

	f.remove.err = nil
	f.remove.result = &imagesearch.BatchResult{Total: 1, SuccessCount: 1}
	w, _ = f.do(jsonRequest("/api/v1/image-search/batch-delete", `{"product_ids":[1]}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearch(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		f := newImageSearchFixture()
		req := multipartRequest(t, []upload{{"shoe.JPG", []byte("img")}}, map[string]string{"page": "2", "limit": "5"})

		w, body := f.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []byte("img"), f.search.got.Image)
		assert.Equal(t, 2, f.search.got.Page)
		assert.Equal(t, 5, f.search.got.Limit)

		data := body["data"].(map[string]interface{})
		assert.Len(t, data["list"], 1)
	})

	t.Run("没有文件", func(t *testing.T) {
		f := newImageSearchFixture()
		w, _ := f.do(multipartRequest(t, nil, map[string]string{"page": "1"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("多个文件", func(t *testing.T) {
		f := newImageSearchFixture()
		w, body := f.do(multipartRequest(t, []upload{{"a.jpg", []byte("a")}, {"b.jpg", []byte("b")}}, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["message"], "一张图片")
	})

	t.Run("不支持的格式", func(t *testing.T) {
		f := newImageSearchFixture()
		w, body := f.do(multipartRequest(t, []upload{{"a.txt", []byte("a")}}, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["message"], "不支持的图片格式")
	})

	t.Run("图片过大", func(t *testing.T) {
		f := newImageSearchFixture()
		big := bytes.Repeat([]byte{1}, int(MaxSearchImageSize)+1)
		w, body := f.do(multipartRequest(t, []upload{{"a.png", big}}, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["message"], "10MB")
	})

	t.Run("limit超过10", func(t *testing.T) {
		f := newImageSearchFixture()
		w, _ := f.do(multipartRequest(t, []upload{{"a.png", []byte("a")}}, map[string]string{"limit": "11"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatus(t *testing.T) {
	f := newImageSearchFixture()

	w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/image-search/status/3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["product_id"])

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/image-search/status/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.status.err = product.ErrProductNotFound
	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/image-search/status/4", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNotIndexed(t *testing.T) {
	f := newImageSearchFixture()

	w, body := f.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/image-search/not-indexed?page=2&limit=20&name=%E9%9E%8B&category_id=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.False(t, f.list.got.Indexed)
	assert.Equal(t, "鞋", f.list.got.Name)
	assert.Equal(t, uint(5), f.list.got.CategoryID)

	assert.Equal(t, float64(45), body["total"])
	assert.Equal(t, float64(3), body["total_pages"])
	assert.Equal(t, float64(2), body["page"])
	assert.Len(t, body["data"], 2)

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/image-search/indexed?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	f := newImageSearchFixture()

	w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/image-search/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(10), data["total"])
	assert.Equal(t, float64(1), data["failed"])
}
