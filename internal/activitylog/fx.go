package activitylog

import "go.uber.org/fx"

var Module = fx.Module("activitylog",
	fx.Provide(NewOutboxPublisher),
)
