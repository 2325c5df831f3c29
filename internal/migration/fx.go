package migration

import (
	"github.com/smallbiznis/authhub/internal/config"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	subdomain "github.com/smallbiznis/authhub/internal/subscription/domain"
	taskdomain "github.com/smallbiznis/authhub/internal/task/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Local sqlite runs derive the schema from the models.
			return conn.AutoMigrate(
				&orgdomain.Org{},
				&orgdomain.Membership{},
				&orgdomain.User{},
				&productdomain.ProductCode{},
				&subdomain.ProductSubscription{},
				&taskdomain.Task{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
