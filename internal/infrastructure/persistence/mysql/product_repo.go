package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/mall/internal/domain/product"
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

// productRepository 商品仓储实现(MySQL)
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

// FindByID 根据ID查找商品
func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}

	return toProductEntity(&model), nil
}

// FindPrimaryImage 查询商品主图
// 同一商品存在多张主图时取sort最小的一张
func (r *productRepository) FindPrimaryImage(ctx context.Context, productID uint) (*product.Image, error) {
	var model ProductImageModel
	err := getDB(ctx, r.db).
		Where("product_id = ? AND is_primary = ?", productID, true).
		Order("sort ASC, id ASC").
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrNoPrimaryImage
		}
		return nil, apperrors.Wrap(err, "查询商品主图失败")
	}

	return toImageEntity(&model), nil
}

// FindPrimaryImages 批量查询主图
func (r *productRepository) FindPrimaryImages(ctx context.Context, productIDs []uint) (map[uint]*product.Image, error) {
	result := make(map[uint]*product.Image, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var models []ProductImageModel
	err := getDB(ctx, r.db).
		Where("product_id IN ? AND is_primary = ?", productIDs, true).
		Order("sort ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询商品主图失败")
	}

	for i := range models {
		if _, ok := result[models[i].ProductID]; ok {
			continue
		}
		result[models[i].ProductID] = toImageEntity(&models[i])
	}
	return result, nil
}

// ListImages 商品全部图片
func (r *productRepository) ListImages(ctx context.Context, productID uint) ([]*product.Image, error) {
	var models []ProductImageModel
	err := getDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("is_primary DESC, sort ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询商品图片失败")
	}

	images := make([]*product.Image, len(models))
	for i := range models {
		images[i] = toImageEntity(&models[i])
	}
	return images, nil
}

// ListParams 商品参数
func (r *productRepository) ListParams(ctx context.Context, productID uint) ([]*product.Param, error) {
	var models []ProductParamModel
	err := getDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("sort ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询商品参数失败")
	}

	params := make([]*product.Param, len(models))
	for i, m := range models {
		params[i] = &product.Param{ID: m.ID, ProductID: m.ProductID, Name: m.Name, Value: m.Value}
	}
	return params, nil
}

// UpdateIndexState 更新入库状态
// 使用map更新,确保NULL值(签名、时间)能写入
func (r *productRepository) UpdateIndexState(ctx context.Context, p *product.Product) error {
	result := getDB(ctx, r.db).Model(&ProductModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"baidu_cont_sign":  p.ContSign,
			"baidu_status":     int(p.IndexStatus),
			"baidu_updated_at": p.IndexedAt,
		})

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新入库状态失败")
	}
	// DSN开启了clientFoundRows,RowsAffected是匹配行数
	if result.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// ListByIndexStatus 按入库状态分页查询
// 未入库列表包含入库失败的商品
func (r *productRepository) ListByIndexStatus(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var models []ProductModel
	var total int64

	query := getDB(ctx, r.db).Model(&ProductModel{})
	if params.Indexed {
		query = query.Where("baidu_status = ?", int(product.IndexStatusIndexed))
	} else {
		query = query.Where("baidu_status <> ?", int(product.IndexStatusIndexed))
	}

	if params.Name != "" {
		query = query.Where("name LIKE ?", "%"+params.Name+"%")
	}
	if params.CategoryID > 0 {
		query = query.Where("category_id = ?", params.CategoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	if params.Indexed {
		query = query.Order("baidu_updated_at DESC, id DESC")
	} else {
		query = query.Order("id DESC")
	}
	if err := query.Limit(params.PageSize).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, total, nil
}

// CountByIndexStatus 各入库状态的商品数量
func (r *productRepository) CountByIndexStatus(ctx context.Context) (map[product.IndexStatus]int64, error) {
	var rows []struct {
		BaiduStatus int
		Total       int64
	}
	err := getDB(ctx, r.db).Model(&ProductModel{}).
		Select("baidu_status, COUNT(*) AS total").
		Group("baidu_status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "统计入库状态失败")
	}

	counts := map[product.IndexStatus]int64{
		product.IndexStatusNone:    0,
		product.IndexStatusIndexed: 0,
		product.IndexStatusFailed:  0,
	}
	for _, row := range rows {
		counts[product.IndexStatus(row.BaiduStatus)] += row.Total
	}
	return counts, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:          model.ID,
		Name:        model.Name,
		CategoryID:  model.CategoryID,
		Price:       model.Price,
		Stock:       model.Stock,
		Description: model.Description,
		Status:      model.Status,
		ContSign:    model.BaiduContSign,
		IndexStatus: product.IndexStatus(model.BaiduStatus),
		IndexedAt:   model.BaiduUpdatedAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toImageEntity(model *ProductImageModel) *product.Image {
	return &product.Image{
		ID:        model.ID,
		ProductID: model.ProductID,
		URL:       model.URL,
		IsPrimary: model.IsPrimary,
		Sort:      model.Sort,
	}
}
