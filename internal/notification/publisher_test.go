package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/smallbiznis/authhub/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisherRoundTrip(t *testing.T) {
	pubsub := NewPubSub(zap.NewNop())
	t.Cleanup(func() { _ = pubsub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, TopicAccountMailer)
	require.NoError(t, err)

	publisher := NewPublisher(pubsub, metrics.New(metrics.NewRegistry()))
	data := map[string]any{
		"emailAddresses": "admin@example.com",
		"productName":    "Business Registry",
		"productCode":    "BUSINESS",
	}
	require.NoError(t, publisher.Publish(ctx, TypeProductApproved, data))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, string(TypeProductApproved), msg.Metadata.Get("type"))

		var envelope Envelope
		require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		assert.Equal(t, TypeProductApproved, envelope.Type)
		assert.Equal(t, "admin@example.com", envelope.Data["emailAddresses"])
		assert.Equal(t, "BUSINESS", envelope.Data["productCode"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for published notification")
	}
}
