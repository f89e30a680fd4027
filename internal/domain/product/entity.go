package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndexStatus 商品在百度图库中的入库状态
type IndexStatus int

const (
	IndexStatusNone    IndexStatus = 0 // 未入库
	IndexStatusIndexed IndexStatus = 1 // 已入库
	IndexStatusFailed  IndexStatus = 2 // 入库失败
)

// String 状态描述
func (s IndexStatus) String() string {
	switch s {
	case IndexStatusIndexed:
		return "已入库"
	case IndexStatusFailed:
		return "入库失败"
	default:
		return "未入库"
	}
}

// Product 商品实体(聚合根)
// DDD设计说明:
// 1. 价格使用decimal表示(对应数据库decimal(10,2)),避免浮点数误差
// 2. ContSign/IndexStatus/IndexedAt记录百度图库的入库状态,是本地唯一保存的图库信息
// 3. 主图、图片、参数属于商品聚合,但按需加载(列表查询不加载)
type Product struct {
	ID          uint
	Name        string
	CategoryID  uint
	Price       decimal.Decimal
	Stock       int
	Description string
	Status      int // 上下架状态(1上架 0下架)

	ContSign    *string     // 图库签名,未入库时为nil
	IndexStatus IndexStatus // 入库状态
	IndexedAt   *time.Time  // 最近一次入库状态变更时间

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Image 商品图片
type Image struct {
	ID        uint
	ProductID uint
	URL       string
	IsPrimary bool
	Sort      int
}

// Param 商品参数(规格)
type Param struct {
	ID        uint
	ProductID uint
	Name      string
	Value     string
}

// IsIndexed 是否持有图库签名
// 判断依据是签名而非状态字段,签名才是删除图库条目的凭据
func (p *Product) IsIndexed() bool {
	return p.ContSign != nil && *p.ContSign != ""
}

// MarkIndexed 入库成功(领域行为)
// 重复入库时覆盖旧签名
func (p *Product) MarkIndexed(contSign string, now time.Time) {
	p.ContSign = &contSign
	p.IndexStatus = IndexStatusIndexed
	p.IndexedAt = &now
}

// MarkIndexFailed 入库失败(领域行为)
// 业务规则:已入库的商品保持原状态,旧签名仍然有效
func (p *Product) MarkIndexFailed(now time.Time) bool {
	if p.IsIndexed() {
		return false
	}
	p.ContSign = nil
	p.IndexStatus = IndexStatusFailed
	p.IndexedAt = &now
	return true
}

// ClearIndex 从图库删除后清空入库信息(领域行为)
func (p *Product) ClearIndex() {
	p.ContSign = nil
	p.IndexStatus = IndexStatusNone
	p.IndexedAt = nil
}

// IndexEntry 图库签名与商品的映射
// 检索结果优先通过签名反查商品,brief标签仅作为兜底
type IndexEntry struct {
	ContSign  string
	ProductID uint
	ImageURL  string
	CreatedAt time.Time
}
