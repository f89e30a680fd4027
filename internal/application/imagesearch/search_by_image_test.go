package imagesearch

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/domain/product"
	"github.com/xiebiao/mall/pkg/baidu"
)

type searchFixture struct {
	products *fakeProductRepo
	index    *fakeIndexRepo
	searcher *fakeSearcher
	uc       *SearchByImageUseCase
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		products: newFakeProductRepo(),
		index:    newFakeIndexRepo(),
		searcher: newFakeSearcher(),
	}
	f.uc = NewSearchByImageUseCase(f.products, f.index, f.searcher, zap.NewNop())
	return f
}

func (f *searchFixture) search(t *testing.T) []*SearchItem {
	t.Helper()
	resp, err := f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img")})
	require.NoError(t, err)
	return resp.List
}

func productIDs(items []*SearchItem) []uint {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

func TestSearch_SortedBySimilarity(t *testing.T) {
	f := newSearchFixture()
	for _, id := range []uint{1, 2, 3} {
		f.products.add(&product.Product{ID: id}, "/p.jpg")
	}
	f.searcher.hits = []baidu.Hit{
		{Brief: "1", Score: 0.5},
		{Brief: "2", Score: 0.9},
		{Brief: "3", Score: 0.7},
	}

	items := f.search(t)
	assert.Equal(t, []uint{2, 3, 1}, productIDs(items))
	assert.Equal(t, 0.9, items[0].Similarity)
	assert.Equal(t, 0.7, items[1].Similarity)
	assert.Equal(t, 0.5, items[2].Similarity)
}

func TestSearch_TiesKeepVendorOrder(t *testing.T) {
	f := newSearchFixture()
	for _, id := range []uint{1, 2, 3} {
		f.products.add(&product.Product{ID: id}, "")
	}
	f.searcher.hits = []baidu.Hit{
		{Brief: "3", Score: 0.8},
		{Brief: "1", Score: 0.8},
		{Brief: "2", Score: 0.9},
	}

	assert.Equal(t, []uint{2, 3, 1}, productIDs(f.search(t)))
}

func TestSearch_HydratesProduct(t *testing.T) {
	f := newSearchFixture()
	f.products.add(&product.Product{
		ID:          42,
		Name:        "帆布鞋",
		CategoryID:  3,
		Price:       decimal.RequireFromString("199.9"),
		Stock:       12,
		Description: "经典款",
	}, "/uploads/products/a.jpg")
	f.products.images[42] = append(f.products.images[42], &product.Image{ID: 2, ProductID: 42, URL: "/uploads/products/b.jpg"})
	f.products.params[42] = []*product.Param{{Name: "颜色", Value: "白"}}
	f.searcher.hits = []baidu.Hit{{Brief: "42", Score: 0.81, ContSign: "unknown-sign"}}

	items := f.search(t)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, uint(42), item.ProductID)
	assert.Equal(t, 0.81, item.Similarity)
	assert.Equal(t, "帆布鞋", item.Name)
	assert.Equal(t, "199.90", item.Price)
	require.NotNil(t, item.PrimaryImage)
	assert.Equal(t, "/uploads/products/a.jpg", item.PrimaryImage.URL)
	assert.Len(t, item.Images, 2)
	assert.Equal(t, []ParamInfo{{Name: "颜色", Value: "白"}}, item.Params)
}

func TestSearch_MappingPreferredOverLabel(t *testing.T) {
	f := newSearchFixture()
	f.products.add(&product.Product{ID: 7}, "")
	f.products.add(&product.Product{ID: 42}, "")
	require.NoError(t, f.index.Save(context.Background(), &product.IndexEntry{ContSign: "s7", ProductID: 7}))
	f.searcher.hits = []baidu.Hit{{Brief: "42", Score: 0.6, ContSign: "s7"}}

	assert.Equal(t, []uint{7}, productIDs(f.search(t)))
}

func TestSearch_SkipsUnknownAndMissing(t *testing.T) {
	f := newSearchFixture()
	f.products.add(&product.Product{ID: 1}, "")
	f.searcher.hits = []baidu.Hit{
		{Brief: "not-a-number", Score: 0.99},
		{Brief: "", Score: 0.98},
		{Brief: "999", Score: 0.97}, // 商品已删除
		{Brief: "1", Score: 0.5},
	}

	items := f.search(t)
	assert.Equal(t, []uint{1}, productIDs(items))
}

func TestSearch_MissingPrimaryImageNotSkipped(t *testing.T) {
	f := newSearchFixture()
	f.products.add(&product.Product{ID: 5}, "")
	f.searcher.hits = []baidu.Hit{{Brief: "5", Score: 0.4}}

	items := f.search(t)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].PrimaryImage)
	assert.Empty(t, items[0].Images)
}

func TestSearch_PropagatesLoadError(t *testing.T) {
	f := newSearchFixture()
	f.products.add(&product.Product{ID: 5}, "")
	f.products.findErr[5] = errBoom
	f.searcher.hits = []baidu.Hit{{Brief: "5", Score: 0.4}}

	_, err := f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img")})
	require.ErrorIs(t, err, errBoom)
}

func TestSearch_PropagatesMappingError(t *testing.T) {
	f := newSearchFixture()
	f.index.findErr = errBoom
	f.searcher.hits = []baidu.Hit{{Brief: "5", Score: 0.4, ContSign: "s5"}}

	_, err := f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img")})
	require.ErrorIs(t, err, errBoom)
}

func TestSearch_PropagatesVendorError(t *testing.T) {
	f := newSearchFixture()
	f.searcher.searchErr = baidu.ErrNotConfigured

	_, err := f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img")})
	require.ErrorIs(t, err, baidu.ErrNotConfigured)
}

func TestSearch_Paging(t *testing.T) {
	f := newSearchFixture()

	resp, err := f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img"), Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 10, f.searcher.searchPN)
	assert.Equal(t, 5, f.searcher.searchRN)
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 5, resp.Limit)
	assert.Empty(t, resp.List)
	assert.NotNil(t, resp.List)

	_, err = f.uc.Execute(context.Background(), SearchByImageRequest{Image: []byte("img"), Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, f.searcher.searchPN)
	assert.Equal(t, baidu.MaxPageSize, f.searcher.searchRN)
}
