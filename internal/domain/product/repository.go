package product

import (
	"context"
)

// Repository 商品仓储接口
// 说明:商品的增删改属于商品管理模块,这里只定义图片检索需要的读取和入库状态维护
type Repository interface {
	// FindByID 根据ID查找商品
	// 如果不存在,返回ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// FindPrimaryImage 查询商品主图
	// 没有主图时返回ErrNoPrimaryImage
	FindPrimaryImage(ctx context.Context, productID uint) (*Image, error)

	// FindPrimaryImages 批量查询主图,key为商品ID,没有主图的商品不在结果中
	FindPrimaryImages(ctx context.Context, productIDs []uint) (map[uint]*Image, error)

	// ListImages 商品全部图片(主图在前)
	ListImages(ctx context.Context, productID uint) ([]*Image, error)

	// ListParams 商品参数
	ListParams(ctx context.Context, productID uint) ([]*Param, error)

	// UpdateIndexState 持久化入库状态(ContSign/IndexStatus/IndexedAt)
	// 支持事务(从ctx获取事务DB)
	UpdateIndexState(ctx context.Context, p *Product) error

	// ListByIndexStatus 按入库状态分页查询
	ListByIndexStatus(ctx context.Context, params ListParams) ([]*Product, int64, error)

	// CountByIndexStatus 各入库状态的商品数量
	CountByIndexStatus(ctx context.Context) (map[IndexStatus]int64, error)
}

// IndexEntryRepository 图库签名映射仓储
type IndexEntryRepository interface {
	// Save 保存映射,签名已存在时覆盖
	Save(ctx context.Context, entry *IndexEntry) error

	// FindByContSign 根据签名查找
	// 如果不存在,返回ErrIndexEntryNotFound
	FindByContSign(ctx context.Context, contSign string) (*IndexEntry, error)

	// DeleteByContSign 删除映射,不存在时不报错
	DeleteByContSign(ctx context.Context, contSign string) error
}

// ListParams 按入库状态查询的参数
type ListParams struct {
	Indexed    bool   // true:已入库 false:未入库(含入库失败)
	Page       int    // 页码(从1开始)
	PageSize   int    // 每页数量
	Name       string // 商品名模糊匹配
	CategoryID uint   // 分类过滤,0表示不过滤
}
