package organization

import (
	"github.com/smallbiznis/authhub/internal/organization/repository"
	"go.uber.org/fx"
)

// Module exposes the organization repository. Organizations have no service
// layer of their own; other domains read memberships through the repository.
var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
)
