package handler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	"github.com/xiebiao/mall/internal/interface/http/dto"
	apperrors "github.com/xiebiao/mall/pkg/errors"
	"github.com/xiebiao/mall/pkg/response"
)

// MaxSearchImageSize 检索图片最大10MB
const MaxSearchImageSize int64 = 10 << 20

// 允许上传的图片扩展名
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

type batchExecutor interface {
	Execute(ctx context.Context, req imagesearch.BatchRequest) (*imagesearch.BatchResult, error)
}

type imageSearcher interface {
	Execute(ctx context.Context, req imagesearch.SearchByImageRequest) (*imagesearch.SearchByImageResponse, error)
}

type indexStatusGetter interface {
	Execute(ctx context.Context, productID uint) (*imagesearch.IndexStatusResponse, error)
}

type indexLister interface {
	Execute(ctx context.Context, req imagesearch.ListByIndexStatusRequest) (*imagesearch.ListByIndexStatusResponse, error)
}

type indexStatser interface {
	Execute(ctx context.Context) (*imagesearch.IndexStats, error)
}

// ImageSearchHandler 以图搜图HTTP处理器
type ImageSearchHandler struct {
	batchIndex  batchExecutor
	batchRemove batchExecutor
	search      imageSearcher
	status      indexStatusGetter
	list        indexLister
	stats       indexStatser
}

// NewImageSearchHandler 创建处理器
func NewImageSearchHandler(
	batchIndex *imagesearch.BatchIndexUseCase,
	batchRemove *imagesearch.BatchRemoveUseCase,
	search *imagesearch.SearchByImageUseCase,
	status *imagesearch.GetIndexStatusUseCase,
	list *imagesearch.ListByIndexStatusUseCase,
	stats *imagesearch.IndexStatsUseCase,
) *ImageSearchHandler {
	return &ImageSearchHandler{
		batchIndex:  batchIndex,
		batchRemove: batchRemove,
		search:      search,
		status:      status,
		list:        list,
		stats:       stats,
	}
}

// BatchAdd 批量入库
// @Summary      批量图片入库
// @Description  将商品主图加入百度相似图库，每个商品独立处理
// @Tags         以图搜图
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BatchProductsRequest true "商品ID列表"
// @Success      201 {object} response.Response{data=imagesearch.BatchResult} "至少一个成功"
// @Success      200 {object} response.Response{data=imagesearch.BatchResult} "全部失败"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      403 {object} response.Response "无权限"
// @Failure      404 {object} response.Response "商品均不存在"
// @Router       /api/v1/image-search/batch-add [post]
func (h *ImageSearchHandler) BatchAdd(c *gin.Context) {
	var req dto.BatchProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.batchIndex.Execute(c.Request.Context(), imagesearch.BatchRequest{ProductIDs: req.ProductIDs})
	if err != nil {
		response.Error(c, err)
		return
	}

	message := fmt.Sprintf("入库完成: 成功%d个, 失败%d个", result.SuccessCount, result.FailedCount)
	if result.SuccessCount > 0 {
		response.Created(c, message, result)
		return
	}
	response.SuccessWithMessage(c, message, result)
}

// BatchDelete 批量删除
// @Summary      批量删除已入库图片
// @Tags         以图搜图
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BatchProductsRequest true "商品ID列表"
// @Success      200 {object} response.Response{data=imagesearch.BatchResult}
// @Failure      404 {object} response.Response "商品均不存在"
// @Failure      500 {object} response.Response "未配置百度图像搜索"
// @Router       /api/v1/image-search/batch-delete [post]
func (h *ImageSearchHandler) BatchDelete(c *gin.Context) {
	var req dto.BatchProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.batchRemove.Execute(c.Request.Context(), imagesearch.BatchRequest{ProductIDs: req.ProductIDs})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c,
		fmt.Sprintf("删除完成: 成功%d个, 失败%d个", result.SuccessCount, result.FailedCount), result)
}

// Search 以图搜图
// @Summary      以图搜图
// @Description  上传一张图片，返回相似商品（按相似度降序）
// @Tags         以图搜图
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file true "图片(jpg/jpeg/png/gif/webp/bmp, 最大10MB)"
// @Param        page formData int false "页码" default(1)
// @Param        limit formData int false "每页数量(最大10)" default(10)
// @Success      200 {object} response.Response{data=imagesearch.SearchByImageResponse}
// @Failure      400 {object} response.Response "图片格式或大小不符合要求"
// @Failure      500 {object} response.Response "百度接口调用失败"
// @Router       /api/v1/image-search/search [post]
func (h *ImageSearchHandler) Search(c *gin.Context) {
	var form dto.SearchByImageForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	data, err := readUploadedImage(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.search.Execute(c.Request.Context(), imagesearch.SearchByImageRequest{
		Image: data,
		Page:  form.Page,
		Limit: form.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// readUploadedImage 读取image字段的唯一文件并校验格式、大小
func readUploadedImage(c *gin.Context) ([]byte, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeImageCount, "请上传一张图片")
	}

	files := mf.File["image"]
	if len(files) != 1 {
		return nil, apperrors.New(apperrors.ErrCodeImageCount, "请上传且只上传一张图片")
	}
	fh := files[0]

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return nil, apperrors.New(apperrors.ErrCodeUnsupportedImage, "不支持的图片格式，仅支持jpg、jpeg、png、gif、webp、bmp")
	}
	if fh.Size > MaxSearchImageSize {
		return nil, apperrors.New(apperrors.ErrCodeImageTooLarge, "图片大小不能超过10MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeImageRead, err, "读取上传图片失败")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSearchImageSize+1))
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeImageRead, err, "读取上传图片失败")
	}
	if int64(len(data)) > MaxSearchImageSize {
		return nil, apperrors.New(apperrors.ErrCodeImageTooLarge, "图片大小不能超过10MB")
	}
	return data, nil
}

// Status 单个商品入库状态
// @Summary      查询商品入库状态
// @Tags         以图搜图
// @Produce      json
// @Security     BearerAuth
// @Param        product_id path int true "商品ID"
// @Success      200 {object} response.Response{data=imagesearch.IndexStatusResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/image-search/status/{product_id} [get]
func (h *ImageSearchHandler) Status(c *gin.Context) {
	var uri dto.ProductIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的商品ID")
		return
	}

	result, err := h.status.Execute(c.Request.Context(), uri.ProductID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListIndexed 已入库商品列表
// @Summary      已入库商品列表
// @Tags         以图搜图
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        limit query int false "每页数量(最大100)" default(20)
// @Param        name query string false "商品名称(模糊匹配)"
// @Param        category_id query int false "分类ID"
// @Success      200 {object} response.PageResponse{data=[]imagesearch.IndexListItem}
// @Router       /api/v1/image-search/indexed [get]
func (h *ImageSearchHandler) ListIndexed(c *gin.Context) {
	h.listByStatus(c, true)
}

// ListNotIndexed 未入库商品列表（含入库失败）
// @Summary      未入库商品列表
// @Tags         以图搜图
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        limit query int false "每页数量(最大100)" default(20)
// @Param        name query string false "商品名称(模糊匹配)"
// @Param        category_id query int false "分类ID"
// @Success      200 {object} response.PageResponse{data=[]imagesearch.IndexListItem}
// @Router       /api/v1/image-search/not-indexed [get]
func (h *ImageSearchHandler) ListNotIndexed(c *gin.Context) {
	h.listByStatus(c, false)
}

func (h *ImageSearchHandler) listByStatus(c *gin.Context, indexed bool) {
	var query dto.ListIndexQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.list.Execute(c.Request.Context(), imagesearch.ListByIndexStatusRequest{
		Indexed:    indexed,
		Page:       query.Page,
		Limit:      query.Limit,
		Name:       query.Name,
		CategoryID: query.CategoryID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.Limit)
}

// Stats 入库统计
// @Summary      入库统计
// @Tags         以图搜图
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=imagesearch.IndexStats}
// @Router       /api/v1/image-search/stats [get]
func (h *ImageSearchHandler) Stats(c *gin.Context) {
	result, err := h.stats.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
