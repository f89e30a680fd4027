package imagesearch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/domain/product"
	"github.com/xiebiao/mall/pkg/metrics"
	"github.com/xiebiao/mall/pkg/tracing"
)

// BatchRemoveUseCase 批量从图库删除
// 先删除百度图库中的图片,成功后在一个事务中清空商品入库信息并删除签名映射
type BatchRemoveUseCase struct {
	productRepo product.Repository
	indexRepo   product.IndexEntryRepository
	searcher    Searcher
	txManager   Transactor
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewBatchRemoveUseCase 创建批量删除用例
func NewBatchRemoveUseCase(
	productRepo product.Repository,
	indexRepo product.IndexEntryRepository,
	searcher Searcher,
	txManager Transactor,
	publisher EventPublisher,
	logger *zap.Logger,
) *BatchRemoveUseCase {
	return &BatchRemoveUseCase{
		productRepo: productRepo,
		indexRepo:   indexRepo,
		searcher:    searcher,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// Execute 执行批量删除
// 所有商品都不存在时返回ErrNothingFound;未入库的商品记为失败项"未入库"
func (uc *BatchRemoveUseCase) Execute(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	start := time.Now()
	result := newBatchResult(len(req.ProductIDs))

	for _, id := range req.ProductIDs {
		found, enrolled, err := uc.removeOne(ctx, id)
		if isConfigError(err) {
			uc.logger.Error("百度图像搜索未配置,终止批量删除", zap.Error(err))
			return nil, err
		}
		if found {
			result.Found++
		}
		if enrolled {
			result.Enrolled++
		}

		metrics.IncCounterVec(metrics.BatchItemsTotal, map[string]string{"operation": "delete", "result": metrics.Result(err)})

		if err != nil {
			uc.logger.Warn("商品删除失败", zap.Uint("product_id", id), zap.Error(err))
			result.fail(id, err)
			continue
		}
		result.succeed(id, "")
	}

	if len(req.ProductIDs) > 0 && result.Found == 0 {
		return nil, product.ErrNothingFound
	}

	uc.logger.Info("批量删除完成",
		zap.Int("total", result.Total),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.Duration("latency", time.Since(start)),
	)
	return result, nil
}

func (uc *BatchRemoveUseCase) removeOne(ctx context.Context, id uint) (found, enrolled bool, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "imagesearch.remove_product")
	span.SetAttributes(attribute.Int64("product.id", int64(id)))
	defer func() { tracing.EndSpan(span, err) }()

	p, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return productExists(err), false, err
	}
	if !p.IsIndexed() {
		return true, false, product.ErrNotIndexed
	}

	contSign := *p.ContSign
	if _, err := uc.searcher.Remove(ctx, contSign); err != nil {
		return true, true, err
	}

	p.ClearIndex()
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.productRepo.UpdateIndexState(txCtx, p); err != nil {
			return err
		}
		return uc.indexRepo.DeleteByContSign(txCtx, contSign)
	})
	if err != nil {
		return true, true, err
	}

	if err := uc.publisher.Publish(ctx, EventImageIndexRemoved, IndexEvent{ProductID: id, ContSign: contSign}); err != nil {
		uc.logger.Warn("发布事件失败", zap.String("routing_key", EventImageIndexRemoved), zap.Uint("product_id", id), zap.Error(err))
	}
	return true, true, nil
}
