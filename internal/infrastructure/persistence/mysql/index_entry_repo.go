package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/mall/internal/domain/product"
	apperrors "github.com/xiebiao/mall/pkg/errors"
)

// indexEntryRepository 图库签名映射仓储
type indexEntryRepository struct {
	db *gorm.DB
}

// NewIndexEntryRepository 创建映射仓储
func NewIndexEntryRepository(db *gorm.DB) product.IndexEntryRepository {
	return &indexEntryRepository{db: db}
}

// Save 保存映射
// INSERT ... ON DUPLICATE KEY UPDATE,签名已存在时覆盖商品和图片
func (r *indexEntryRepository) Save(ctx context.Context, entry *product.IndexEntry) error {
	model := &ProductImageIndexModel{
		ContSign:  entry.ContSign,
		ProductID: entry.ProductID,
		ImageURL:  entry.ImageURL,
		CreatedAt: entry.CreatedAt,
	}

	err := getDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cont_sign"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "image_url"}),
	}).Create(model).Error
	if err != nil {
		return apperrors.Wrap(err, "保存图库签名失败")
	}
	return nil
}

// FindByContSign 根据签名查找
func (r *indexEntryRepository) FindByContSign(ctx context.Context, contSign string) (*product.IndexEntry, error) {
	var model ProductImageIndexModel
	err := getDB(ctx, r.db).Where("cont_sign = ?", contSign).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrIndexEntryNotFound
		}
		return nil, apperrors.Wrap(err, "查询图库签名失败")
	}

	return &product.IndexEntry{
		ContSign:  model.ContSign,
		ProductID: model.ProductID,
		ImageURL:  model.ImageURL,
		CreatedAt: model.CreatedAt,
	}, nil
}

// DeleteByContSign 删除映射
func (r *indexEntryRepository) DeleteByContSign(ctx context.Context, contSign string) error {
	if err := getDB(ctx, r.db).Where("cont_sign = ?", contSign).Delete(&ProductImageIndexModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除图库签名失败")
	}
	return nil
}
