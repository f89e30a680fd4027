package imagesearch

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/domain/product"
	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
	"github.com/xiebiao/mall/pkg/metrics"
)

// SearchByImageUseCase 以图搜图
// 设计说明:
// 1. 检索结果通过签名映射反查商品,映射缺失时解析brief中的商品ID
// 2. 无法识别的命中和已删除的商品直接跳过
// 3. 按相似度降序排列,相似度相同时保持百度返回的顺序
type SearchByImageUseCase struct {
	productRepo product.Repository
	indexRepo   product.IndexEntryRepository
	searcher    Searcher
	logger      *zap.Logger
}

// NewSearchByImageUseCase 创建以图搜图用例
func NewSearchByImageUseCase(
	productRepo product.Repository,
	indexRepo product.IndexEntryRepository,
	searcher Searcher,
	logger *zap.Logger,
) *SearchByImageUseCase {
	return &SearchByImageUseCase{
		productRepo: productRepo,
		indexRepo:   indexRepo,
		searcher:    searcher,
		logger:      logger,
	}
}

// SearchByImageRequest 以图搜图请求
type SearchByImageRequest struct {
	Image []byte
	Page  int // 页码(从1开始)
	Limit int // 每页数量,最大10
}

// SearchByImageResponse 以图搜图响应
type SearchByImageResponse struct {
	List  []*SearchItem `json:"list"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// SearchItem 检索结果中的商品
type SearchItem struct {
	ProductID    uint        `json:"product_id"`
	Name         string      `json:"name"`
	CategoryID   uint        `json:"category_id"`
	Price        string      `json:"price"`
	Stock        int         `json:"stock"`
	Description  string      `json:"description"`
	Similarity   float64     `json:"similarity"`
	ContSign     string      `json:"cont_sign,omitempty"`
	PrimaryImage *ImageInfo  `json:"primary_image"`
	Images       []ImageInfo `json:"images"`
	Params       []ParamInfo `json:"params"`
}

// ImageInfo 商品图片
type ImageInfo struct {
	ID        uint   `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
}

// ParamInfo 商品参数
type ParamInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Execute 执行以图搜图
func (uc *SearchByImageUseCase) Execute(ctx context.Context, req SearchByImageRequest) (*SearchByImageResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > baidu.MaxPageSize {
		req.Limit = baidu.MaxPageSize
	}

	pn := (req.Page - 1) * req.Limit
	hits, err := uc.searcher.FindSimilar(ctx, imageloader.FromBytes(req.Image), pn, req.Limit)
	if err != nil {
		return nil, err
	}

	items, err := uc.join(ctx, hits)
	if err != nil {
		return nil, err
	}

	return &SearchByImageResponse{
		List:  items,
		Total: len(items),
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}

// join 将检索命中与商品数据关联
func (uc *SearchByImageUseCase) join(ctx context.Context, hits []baidu.Hit) ([]*SearchItem, error) {
	items := make([]*SearchItem, 0, len(hits))

	for _, hit := range hits {
		id, ok, err := uc.resolve(ctx, hit)
		if err != nil {
			return nil, err
		}
		if !ok {
			uc.skip("unknown_label", hit)
			continue
		}

		p, err := uc.productRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				uc.skip("product_missing", hit)
				continue
			}
			return nil, err
		}

		item, err := uc.hydrate(ctx, p)
		if err != nil {
			return nil, err
		}
		item.Similarity = hit.Score
		item.ContSign = hit.ContSign
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Similarity > items[j].Similarity
	})
	return items, nil
}

// resolve 命中 → 商品ID
// 优先签名映射,其次brief标签
func (uc *SearchByImageUseCase) resolve(ctx context.Context, hit baidu.Hit) (uint, bool, error) {
	if hit.ContSign != "" {
		entry, err := uc.indexRepo.FindByContSign(ctx, hit.ContSign)
		switch {
		case err == nil:
			return entry.ProductID, true, nil
		case !errors.Is(err, product.ErrIndexEntryNotFound):
			return 0, false, err
		}
	}

	id, ok := product.ParseLabel(hit.Brief)
	return id, ok, nil
}

func (uc *SearchByImageUseCase) hydrate(ctx context.Context, p *product.Product) (*SearchItem, error) {
	item := &SearchItem{
		ProductID:   p.ID,
		Name:        p.Name,
		CategoryID:  p.CategoryID,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Description: p.Description,
	}

	primary, err := uc.productRepo.FindPrimaryImage(ctx, p.ID)
	switch {
	case err == nil:
		item.PrimaryImage = &ImageInfo{ID: primary.ID, URL: primary.URL, IsPrimary: true}
	case !errors.Is(err, product.ErrNoPrimaryImage):
		return nil, err
	}

	images, err := uc.productRepo.ListImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	item.Images = make([]ImageInfo, len(images))
	for i, img := range images {
		item.Images[i] = ImageInfo{ID: img.ID, URL: img.URL, IsPrimary: img.IsPrimary}
	}

	params, err := uc.productRepo.ListParams(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	item.Params = make([]ParamInfo, len(params))
	for i, param := range params {
		item.Params[i] = ParamInfo{Name: param.Name, Value: param.Value}
	}

	return item, nil
}

func (uc *SearchByImageUseCase) skip(reason string, hit baidu.Hit) {
	metrics.IncCounterVec(metrics.SearchHitsSkippedTotal, map[string]string{"reason": reason})
	uc.logger.Debug("跳过检索结果",
		zap.String("reason", reason),
		zap.String("brief", hit.Brief),
		zap.String("cont_sign", hit.ContSign),
	)
}
