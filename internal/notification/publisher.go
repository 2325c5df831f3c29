package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/smallbiznis/authhub/internal/observability/logger"
	"github.com/smallbiznis/authhub/internal/observability/metrics"
	"go.uber.org/zap"
)

// TopicAccountMailer carries queued account emails.
const TopicAccountMailer = "account.mailer"

// Envelope is the wire shape of a queued notification.
type Envelope struct {
	Type Type           `json:"type"`
	Data map[string]any `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, notificationType Type, data map[string]any) error
}

func NewPubSub(log *zap.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NopLogger{})
}

type publisher struct {
	pub     message.Publisher
	metrics *metrics.Metrics
}

func NewPublisher(pubsub *gochannel.GoChannel, m *metrics.Metrics) Publisher {
	return &publisher{pub: pubsub, metrics: m}
}

func (p *publisher) Publish(ctx context.Context, notificationType Type, data map[string]any) error {
	payload, err := json.Marshal(Envelope{Type: notificationType, Data: data})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(notificationType))
	msg.SetContext(ctx)

	if err := p.pub.Publish(TopicAccountMailer, msg); err != nil {
		return err
	}

	p.metrics.NotificationsPublished.WithLabelValues(string(notificationType)).Inc()
	logger.FromContext(ctx).Debug("notification published",
		zap.String("type", string(notificationType)),
	)
	return nil
}
