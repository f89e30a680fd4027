// Package imagesearch 以图搜图相关用例:批量入库、批量删除、相似图检索、入库状态查询
package imagesearch

import (
	"context"

	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
)

const tracerName = "imagesearch"

// 事件路由键
const (
	EventImageIndexAdded   = "image_index.added"
	EventImageIndexRemoved = "image_index.removed"
)

// Searcher 相似图检索服务(*similarity.Service实现了该接口)
type Searcher interface {
	Enroll(ctx context.Context, src imageloader.Source, label string) (*baidu.AddResult, error)
	FindSimilar(ctx context.Context, src imageloader.Source, pn, rn int) ([]baidu.Hit, error)
	Remove(ctx context.Context, contSign string) (*baidu.DeleteResult, error)
}

// Transactor 事务执行器(*mysql.TxManager实现了该接口)
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 事件发布(*mq.Publisher / mq.NopPublisher)
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// IndexEvent 入库/删除事件内容
type IndexEvent struct {
	ProductID uint   `json:"product_id"`
	ContSign  string `json:"cont_sign"`
	ImageURL  string `json:"image_url,omitempty"`
}
