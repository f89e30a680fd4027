package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/application/imagesearch"
	"github.com/xiebiao/mall/pkg/metrics"
	"github.com/xiebiao/mall/pkg/mq"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "图库变更事件",
	}

	var queue string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "订阅入库/删除事件并输出到日志，Ctrl+C退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsTail(cmd.Context(), queue)
		},
	}
	tail.Flags().StringVar(&queue, "queue", "", "队列名（默认mq.queue）")

	cmd.AddCommand(tail)
	return cmd
}

func runEventsTail(ctx context.Context, queue string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	metrics.InitMetrics()

	if queue == "" {
		queue = cfg.MQ.Queue
	}

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTypeTopic, queue,
		[]string{imagesearch.EventImageIndexAdded, imagesearch.EventImageIndexRemoved}, log)
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("开始订阅图库事件", zap.String("exchange", cfg.MQ.Exchange), zap.String("queue", queue))
	return consumer.Consume(ctx, func(ctx context.Context, body []byte) error {
		logIndexEvent(log, body)
		return nil
	})
}

// logIndexEvent 解析事件并记录日志
// 无法解析的消息只记录警告，不重新入队
func logIndexEvent(log *zap.Logger, body []byte) {
	event, err := mq.DecodeEvent(body)
	if err != nil {
		log.Warn("无法解析的事件", zap.ByteString("body", body), zap.Error(err))
		return
	}

	var payload imagesearch.IndexEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		log.Warn("无法解析的事件内容", zap.String("id", event.ID), zap.String("type", event.Type), zap.Error(err))
		return
	}

	log.Info("图库事件",
		zap.String("id", event.ID),
		zap.String("type", event.Type),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Uint("product_id", payload.ProductID),
		zap.String("cont_sign", payload.ContSign),
		zap.String("image_url", payload.ImageURL),
	)
}
