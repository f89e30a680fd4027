package mq

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testIndexEvent struct {
	ProductID uint   `json:"product_id"`
	ContSign  string `json:"cont_sign"`
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("image_index.added", testIndexEvent{ProductID: 42, ContSign: "abc123"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "image_index.added", e.Type)
	assert.JSONEq(t, `{"product_id":42,"cont_sign":"abc123"}`, string(e.Payload))

	other, err := NewEvent("image_index.added", testIndexEvent{ProductID: 42})
	require.NoError(t, err)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestDecodeEvent(t *testing.T) {
	e, err := NewEvent("image_index.removed", testIndexEvent{ProductID: 7})
	require.NoError(t, err)
	body, err := json.Marshal(e)
	require.NoError(t, err)

	decoded, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "image_index.removed", decoded.Type)

	var payload testIndexEvent
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, uint(7), payload.ProductID)

	_, err = DecodeEvent([]byte(`{"id":"x"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), "image_index.added", nil))
}

// TestPubSub_Integration 需要RabbitMQ，设置MALL_TEST_AMQP_URL后运行
func TestPubSub_Integration(t *testing.T) {
	url := os.Getenv("MALL_TEST_AMQP_URL")
	if url == "" {
		t.Skip("未设置MALL_TEST_AMQP_URL")
	}

	logger := zap.NewNop()
	const exchange = "mall.test.events"

	publisher, err := NewPublisher(url, exchange, ExchangeTypeTopic, logger)
	require.NoError(t, err)
	defer publisher.Close()

	consumer, err := NewConsumer(url, exchange, ExchangeTypeTopic, "mall.test.image_index", []string{"image_index.*"}, logger)
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	received := make([]string, 0)

	go func() {
		_ = consumer.Consume(ctx, func(ctx context.Context, body []byte) error {
			e, err := DecodeEvent(body)
			if err != nil {
				return err
			}
			mu.Lock()
			received = append(received, e.Type)
			n := len(received)
			mu.Unlock()
			if n >= 2 {
				cancel()
			}
			return nil
		})
	}()

	time.Sleep(500 * time.Millisecond)
	require.NoError(t, publisher.Publish(ctx, "image_index.added", testIndexEvent{ProductID: 1}))
	require.NoError(t, publisher.Publish(ctx, "image_index.removed", testIndexEvent{ProductID: 1}))

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"image_index.added", "image_index.removed"}, received)
}
