package product

import (
	"context"

	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/product/repository"
	"github.com/smallbiznis/authhub/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(warmCache),
)

func warmCache(lc fx.Lifecycle, svc productdomain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			svc.BuildAllProductsCache(ctx)
			return nil
		},
	})
}
