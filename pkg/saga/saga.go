// Package saga 实现跨系统的补偿式事务
//
// 核心思想：
// 1. 将一次操作拆分为多个本地步骤（如：调用外部接口 → 写数据库）
// 2. 每个步骤可以有对应的补偿操作
// 3. 某步失败时，按逆序执行已完成步骤的补偿操作
//
// 补偿只执行一次，不做重试。
package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/mall/pkg/metrics"
)

// Step 表示Saga中的一个步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志和调试）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作（可为nil）
}

// Saga 表示一次补偿式事务
type Saga struct {
	steps    []Step        // 所有步骤
	executed []Step        // 已执行的步骤（用于补偿）
	timeout  time.Duration // 整体超时时间，0表示不限制
	logger   *zap.Logger
}

// NewSaga 创建一个新的Saga
//
// 示例：
//
//	s := saga.NewSaga(30*time.Second, logger)
//	s.AddStep("vendor enroll", enroll, removeFromVendor)
//	s.AddStep("persist", persist, nil)
//	err := s.Execute(ctx)
func NewSaga(timeout time.Duration, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		steps:   make([]Step, 0),
		timeout: timeout,
		logger:  logger,
	}
}

// AddStep 添加一个步骤，步骤按添加顺序执行
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 顺序执行所有步骤
//
// 返回的error包装了失败步骤的原始错误，可以用errors.Is/errors.As判断。
func (s *Saga) Execute(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		metrics.IncCounterVec(metrics.SagaExecutionsTotal, map[string]string{"result": metrics.Result(err)})
		metrics.ObserveHistogram(metrics.SagaExecutionDuration, time.Since(start).Seconds())
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		select {
		case <-ctx.Done():
			// 补偿使用新Context，避免补偿也超时
			s.compensate(context.Background())
			return fmt.Errorf("saga超时: %w", ctx.Err())
		default:
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.compensate(context.Background())
				return fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// compensate 逆序执行已完成步骤的补偿操作
// 补偿失败只记录日志，继续补偿其余步骤
func (s *Saga) compensate(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		metrics.IncCounter(metrics.SagaCompensationsTotal)
		if err := step.Compensate(ctx); err != nil {
			s.logger.Warn("补偿失败", zap.String("step", step.Name), zap.Error(err))
		}
	}

	s.executed = nil
}
