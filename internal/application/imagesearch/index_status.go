package imagesearch

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/mall/internal/domain/product"
)

// GetIndexStatusUseCase 查询单个商品的入库状态
type GetIndexStatusUseCase struct {
	productRepo product.Repository
}

// NewGetIndexStatusUseCase 创建用例
func NewGetIndexStatusUseCase(productRepo product.Repository) *GetIndexStatusUseCase {
	return &GetIndexStatusUseCase{productRepo: productRepo}
}

// IndexStatusResponse 入库状态
type IndexStatusResponse struct {
	ProductID    uint    `json:"product_id"`
	Name         string  `json:"name"`
	Status       int     `json:"status"` // 0未入库 1已入库 2入库失败
	StatusText   string  `json:"status_text"`
	ContSign     *string `json:"cont_sign"`
	UpdatedAt    *string `json:"updated_at"`
	PrimaryImage string  `json:"primary_image"`
}

// Execute 查询入库状态
func (uc *GetIndexStatusUseCase) Execute(ctx context.Context, productID uint) (*IndexStatusResponse, error) {
	p, err := uc.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := &IndexStatusResponse{
		ProductID:  p.ID,
		Name:       p.Name,
		Status:     int(p.IndexStatus),
		StatusText: p.IndexStatus.String(),
		ContSign:   p.ContSign,
		UpdatedAt:  formatTime(p.IndexedAt),
	}

	img, err := uc.productRepo.FindPrimaryImage(ctx, productID)
	switch {
	case err == nil:
		resp.PrimaryImage = img.URL
	case !errors.Is(err, product.ErrNoPrimaryImage):
		return nil, err
	}

	return resp, nil
}

// ListByIndexStatusUseCase 已入库/未入库商品列表
type ListByIndexStatusUseCase struct {
	productRepo product.Repository
}

// NewListByIndexStatusUseCase 创建用例
func NewListByIndexStatusUseCase(productRepo product.Repository) *ListByIndexStatusUseCase {
	return &ListByIndexStatusUseCase{productRepo: productRepo}
}

// ListByIndexStatusRequest 列表查询请求
type ListByIndexStatusRequest struct {
	Indexed    bool
	Page       int
	Limit      int
	Name       string
	CategoryID uint
}

// IndexListItem 列表项
type IndexListItem struct {
	ProductID    uint    `json:"product_id"`
	Name         string  `json:"name"`
	CategoryID   uint    `json:"category_id"`
	Price        string  `json:"price"`
	Status       int     `json:"status"`
	ContSign     *string `json:"cont_sign"`
	UpdatedAt    *string `json:"updated_at"`
	PrimaryImage string  `json:"primary_image"`
}

// ListByIndexStatusResponse 列表查询响应
type ListByIndexStatusResponse struct {
	List  []IndexListItem
	Total int64
	Page  int
	Limit int
}

// Execute 执行列表查询
// page默认1;limit默认20,最大100
func (uc *ListByIndexStatusUseCase) Execute(ctx context.Context, req ListByIndexStatusRequest) (*ListByIndexStatusResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	products, total, err := uc.productRepo.ListByIndexStatus(ctx, product.ListParams{
		Indexed:    req.Indexed,
		Page:       req.Page,
		PageSize:   req.Limit,
		Name:       req.Name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	images, err := uc.productRepo.FindPrimaryImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	list := make([]IndexListItem, len(products))
	for i, p := range products {
		list[i] = IndexListItem{
			ProductID:  p.ID,
			Name:       p.Name,
			CategoryID: p.CategoryID,
			Price:      p.Price.StringFixed(2),
			Status:     int(p.IndexStatus),
			ContSign:   p.ContSign,
			UpdatedAt:  formatTime(p.IndexedAt),
		}
		if img, ok := images[p.ID]; ok {
			list[i].PrimaryImage = img.URL
		}
	}

	return &ListByIndexStatusResponse{List: list, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// IndexStatsUseCase 入库统计
type IndexStatsUseCase struct {
	productRepo product.Repository
}

// NewIndexStatsUseCase 创建用例
func NewIndexStatsUseCase(productRepo product.Repository) *IndexStatsUseCase {
	return &IndexStatsUseCase{productRepo: productRepo}
}

// IndexStats 各状态商品数
type IndexStats struct {
	Total      int64 `json:"total"`
	Indexed    int64 `json:"indexed"`
	NotIndexed int64 `json:"not_indexed"`
	Failed     int64 `json:"failed"`
}

// Execute 统计
func (uc *IndexStatsUseCase) Execute(ctx context.Context) (*IndexStats, error) {
	counts, err := uc.productRepo.CountByIndexStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &IndexStats{
		Indexed:    counts[product.IndexStatusIndexed],
		NotIndexed: counts[product.IndexStatusNone],
		Failed:     counts[product.IndexStatusFailed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02 15:04:05")
	return &s
}
