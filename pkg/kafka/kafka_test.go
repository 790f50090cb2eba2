package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	calls int
	fail  int
	panic bool
}

func (h *stubHandler) Topic() string { return "coe.bids.raw" }

func (h *stubHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.panic {
		panic("boom")
	}
	if h.calls <= h.fail {
		return errors.New("transient")
	}
	return nil
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithProducerRegisterer(prometheus.NewRegistry()))
	require.Error(t, err)
}

func TestProducer_PublishWithoutTopic(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithProducerRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish(context.Background(), "", nil, "payload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic is required")
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encodeValue(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = encodeValue(func() {})
	assert.Error(t, err)
}

func TestParseCompressionAndOffset(t *testing.T) {
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
	assert.Equal(t, kafka.LastOffset, parseStartOffset("latest"))
	assert.Equal(t, kafka.FirstOffset, parseStartOffset("earliest"))
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	opts = append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRegisterer(prometheus.NewRegistry()),
	}, opts...)
	c, err := NewConsumer(opts...)
	require.NoError(t, err)
	return c
}

func TestConsumer_HandleWithRetry(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(2, time.Millisecond, time.Millisecond))
	h := &stubHandler{fail: 2}
	err := c.handleWithRetry(context.Background(), h, &message{topic: h.Topic()})
	require.NoError(t, err)
	assert.Equal(t, 3, h.calls)

	h = &stubHandler{fail: 10}
	err = c.handleWithRetry(context.Background(), h, &message{topic: h.Topic()})
	require.Error(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestConsumer_PanicBecomesError(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(0, time.Millisecond, time.Millisecond))
	err := c.handleWithRetry(context.Background(), &stubHandler{panic: true}, &message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	c := newTestConsumer(t)
	assert.Error(t, c.Start(context.Background()))
}

func TestConsumer_PartitionPinnedToOneQueue(t *testing.T) {
	c := newTestConsumer(t, WithConsumerWorkers(4))
	require.Len(t, c.queues, 4)
	for p := 0; p < 16; p++ {
		assert.Equal(t, c.queueFor("coe.bids.raw", p), c.queueFor("coe.bids.raw", p))
	}

	single := newTestConsumer(t, WithConsumerWorkers(0))
	require.Len(t, single.queues, 1)
	assert.Equal(t, single.queues[0], single.queueFor("t", 7))
}

func TestConsumer_ShutdownLeavesMessageForRedelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestConsumer(t,
		WithConsumerRegisterer(reg),
		WithConsumerRetry(3, time.Millisecond, time.Millisecond),
		WithConsumerDLQ("coe.bids.dlq"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &stubHandler{fail: 10}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.process(ctx, h, &message{topic: h.Topic(), km: kafka.Message{Partition: 2, Offset: 41}})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process blocked on the dead letter write")
	}

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.handled.WithLabelValues(h.Topic(), "aborted")))
	assert.Zero(t, testutil.ToFloat64(c.metrics.handled.WithLabelValues(h.Topic(), "error")))
}

func TestMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newConsumerMetrics(reg)
	b := newConsumerMetrics(reg)
	assert.Same(t, a.handled, b.handled)
}

func TestConsumer_PermanentErrorSkipsRetry(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(5, time.Millisecond, time.Millisecond))
	h := &permanentHandler{}
	err := c.handleWithRetry(context.Background(), h, &message{})
	require.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, h.calls)
}

type permanentHandler struct{ calls int }

func (h *permanentHandler) Topic() string { return "t" }

func (h *permanentHandler) Handle(context.Context, []byte) error {
	h.calls++
	return fmt.Errorf("%w: bad payload", ErrPermanent)
}
