package notification

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(NewPubSub),
	fx.Provide(NewPublisher),
	fx.Provide(NewMailer),
	fx.Invoke(runMailer),
)

func runMailer(lc fx.Lifecycle, pubsub *gochannel.GoChannel, mailer *Mailer) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return mailer.Run(ctx, pubsub)
		},
		OnStop: func(context.Context) error {
			cancel()
			return pubsub.Close()
		},
	})
}
