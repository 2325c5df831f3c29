package task

import (
	"github.com/smallbiznis/authhub/internal/task/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("task.repository",
	fx.Provide(repository.Provide),
)
