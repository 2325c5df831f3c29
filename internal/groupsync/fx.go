package groupsync

import "go.uber.org/fx"

var Module = fx.Module("groupsync.service",
	fx.Provide(NewService),
)
