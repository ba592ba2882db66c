package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInProcessTransport(t *testing.T) {
	t.Run("delivers published scans to a consumer", func(t *testing.T) {
		transport := messaging.NewInProcessTransport(16, messaging.NewZapLogger(zap.NewNop()))
		received := make(chan *analytics.ScanRequested, 1)

		consumer := messaging.NewConsumer(
			transport.Subscriber,
			analytics.TopicScanRequested,
			func(_ context.Context, event *analytics.ScanRequested) error {
				received <- event

				return nil
			},
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		publish := messaging.NewPublishFunc[analytics.ScanRequested](transport.Publisher, analytics.TopicScanRequested)
		require.NoError(t, publish(context.Background(), &analytics.ScanRequested{EventID: "evt-42", QRCodeID: "qr-1"}))

		select {
		case event := <-received:
			assert.Equal(t, "evt-42", event.EventID)
			assert.Equal(t, "qr-1", event.QRCodeID)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}

		require.NoError(t, consumer.Shutdown())
		require.NoError(t, transport.Publisher.Close())
	})
}

func TestZapLogger(t *testing.T) {
	logger := messaging.NewZapLogger(zap.NewNop())

	assert.NotPanics(t, func() {
		scoped := logger.With(map[string]any{"topic": "test.topic"})
		scoped.Info("info", nil)
		scoped.Debug("debug", map[string]any{"n": 1})
		scoped.Trace("trace", nil)
		scoped.Error("error", assert.AnError, nil)
	})
}
