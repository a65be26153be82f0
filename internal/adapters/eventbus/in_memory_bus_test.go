package eventbus

import (
	"ColorPredict/internal/core/ports"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestInMemoryEventBus_FanOutAndDrain(t *testing.T) {
	defer goleak.VerifyNone(t)

	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)

	var calls atomic.Int32
	handler := func(ctx context.Context, e ports.Event) error {
		assert.Equal(t, ports.TopicVerificationSubmitted, e.Topic)
		time.Sleep(10 * time.Millisecond)
		calls.Add(1)
		return nil
	}
	bus.Subscribe(ports.TopicVerificationSubmitted, handler)
	bus.Subscribe(ports.TopicVerificationSubmitted, handler)

	require.NoError(t, bus.Publish(context.Background(), ports.TopicVerificationSubmitted, 42))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, int32(2), calls.Load())
	assert.ErrorIs(t, bus.Publish(context.Background(), ports.TopicVerificationSubmitted, 1), ErrBusClosed)
}

func TestInMemoryEventBus_HandlerSurvivesPublisherCancel(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)

	got := make(chan error, 1)
	bus.Subscribe("t", func(ctx context.Context, e ports.Event) error {
		time.Sleep(5 * time.Millisecond)
		got <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, "t", nil))
	cancel()

	assert.NoError(t, <-got)
	require.NoError(t, bus.Close(context.Background()))
}

func TestInMemoryEventBus_NoSubscribers(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryEventBus(&nopLogger)
	assert.NoError(t, bus.Publish(context.Background(), "nobody", nil))
	assert.NoError(t, bus.Close(context.Background()))
}
