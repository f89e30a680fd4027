package imagesearch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/domain/product"
	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
	"github.com/xiebiao/mall/pkg/metrics"
	"github.com/xiebiao/mall/pkg/saga"
	"github.com/xiebiao/mall/pkg/tracing"
)

// BatchIndexUseCase 批量入库用例
// 设计说明:
// 1. 商品按顺序逐个处理,单个商品失败不影响其它商品
// 2. 每个商品是一个两步Saga:百度入库 → 本地事务(商品入库状态 + 签名映射)
// 3. 本地事务失败时补偿:从百度删除刚入库的图片
// 4. 不重试,失败原因直接返回给调用方
type BatchIndexUseCase struct {
	productRepo product.Repository
	indexRepo   product.IndexEntryRepository
	searcher    Searcher
	txManager   Transactor
	publisher   EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewBatchIndexUseCase 创建批量入库用例
func NewBatchIndexUseCase(
	productRepo product.Repository,
	indexRepo product.IndexEntryRepository,
	searcher Searcher,
	txManager Transactor,
	publisher EventPublisher,
	logger *zap.Logger,
) *BatchIndexUseCase {
	return &BatchIndexUseCase{
		productRepo: productRepo,
		indexRepo:   indexRepo,
		searcher:    searcher,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Execute 执行批量入库
// 所有商品都不存在时返回ErrNothingFound;未配置百度凭证时直接返回,不处理后续商品
func (uc *BatchIndexUseCase) Execute(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	result := newBatchResult(len(req.ProductIDs))

	for _, id := range req.ProductIDs {
		contSign, found, err := uc.indexOne(ctx, id)
		if isConfigError(err) {
			uc.logger.Error("百度图像搜索未配置,终止批量入库", zap.Error(err))
			return nil, err
		}
		if found {
			result.Found++
		}

		metrics.IncCounterVec(metrics.BatchItemsTotal, map[string]string{"operation": "add", "result": metrics.Result(err)})

		if err != nil {
			uc.logger.Warn("商品入库失败", zap.Uint("product_id", id), zap.Error(err))
			result.fail(id, err)
			continue
		}
		result.succeed(id, contSign)
	}

	if len(req.ProductIDs) > 0 && result.Found == 0 {
		return nil, product.ErrNothingFound
	}

	uc.logger.Info("批量入库完成",
		zap.Int("total", result.Total),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// indexOne 单个商品入库
// found表示商品是否存在
func (uc *BatchIndexUseCase) indexOne(ctx context.Context, id uint) (contSign string, found bool, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "imagesearch.index_product")
	span.SetAttributes(attribute.Int64("product.id", int64(id)))
	defer func() { tracing.EndSpan(span, err) }()

	p, err := uc.productRepo.FindByID(ctx, id)
	if err != nil {
		return "", productExists(err), err
	}

	img, err := uc.productRepo.FindPrimaryImage(ctx, id)
	if err != nil {
		return "", true, err
	}

	var added *baidu.AddResult

	s := saga.NewSaga(0, uc.logger)
	s.AddStep("vendor enroll",
		func(ctx context.Context) error {
			res, err := uc.searcher.Enroll(ctx, imageloader.FromRef(img.URL), product.Label(id))
			if err != nil {
				if !isConfigError(err) {
					uc.markFailed(ctx, p)
				}
				return err
			}
			added = res
			return nil
		},
		func(ctx context.Context) error {
			_, err := uc.searcher.Remove(ctx, added.ContSign)
			return err
		},
	)
	s.AddStep("persist",
		func(ctx context.Context) error {
			now := uc.now()
			p.MarkIndexed(added.ContSign, now)
			return uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
				if err := uc.productRepo.UpdateIndexState(txCtx, p); err != nil {
					return err
				}
				return uc.indexRepo.Save(txCtx, &product.IndexEntry{
					ContSign:  added.ContSign,
					ProductID: id,
					ImageURL:  img.URL,
					CreatedAt: now,
				})
			})
		},
		nil,
	)

	if err := s.Execute(ctx); err != nil {
		return "", true, err
	}

	uc.publish(ctx, EventImageIndexAdded, IndexEvent{ProductID: id, ContSign: added.ContSign, ImageURL: img.URL})
	return added.ContSign, true, nil
}

// markFailed 百度入库失败时标记商品
// 已入库的商品保持原状态;写库失败只记录日志,不覆盖原始错误
func (uc *BatchIndexUseCase) markFailed(ctx context.Context, p *product.Product) {
	if !p.MarkIndexFailed(uc.now()) {
		return
	}
	if err := uc.productRepo.UpdateIndexState(ctx, p); err != nil {
		uc.logger.Error("标记入库失败状态出错", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}

// publish 发布事件,失败只记录日志
func (uc *BatchIndexUseCase) publish(ctx context.Context, key string, event IndexEvent) {
	if err := uc.publisher.Publish(ctx, key, event); err != nil {
		uc.logger.Warn("发布事件失败", zap.String("routing_key", key), zap.Uint("product_id", event.ProductID), zap.Error(err))
	}
}
