package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/authhub/internal/activitylog"
	"github.com/smallbiznis/authhub/internal/authorization"
	"github.com/smallbiznis/authhub/internal/config"
	"github.com/smallbiznis/authhub/internal/groupsync"
	"github.com/smallbiznis/authhub/internal/keycloak"
	"github.com/smallbiznis/authhub/internal/migration"
	"github.com/smallbiznis/authhub/internal/notification"
	"github.com/smallbiznis/authhub/internal/observability"
	obsmiddleware "github.com/smallbiznis/authhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/authhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/authhub/internal/observability/tracing"
	"github.com/smallbiznis/authhub/internal/organization"
	"github.com/smallbiznis/authhub/internal/product"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/ratelimit"
	"github.com/smallbiznis/authhub/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/authhub/internal/subscription/domain"
	"github.com/smallbiznis/authhub/internal/task"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	migration.Module,
	authorization.Module,
	activitylog.Module,
	notification.Module,
	keycloak.Module,
	organization.Module,
	product.Module,
	subscription.Module,
	task.Module,
	groupsync.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(UserContextMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	productSvc      productdomain.Service
	subscriptionSvc subscriptiondomain.Service
	groupSyncSvc    groupsync.Service
	catalogLimiter  *ratelimit.CatalogLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	ProductSvc      productdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	GroupSyncSvc    groupsync.Service
	CatalogLimiter  *ratelimit.CatalogLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		productSvc:      p.ProductSvc,
		subscriptionSvc: p.SubscriptionSvc,
		groupSyncSvc:    p.GroupSyncSvc,
		catalogLimiter:  p.CatalogLimiter,
	}

	svc.registerProductRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerProductRoutes() {
	s.engine.GET("/products", s.CatalogRateLimit(), s.ListProducts)

	orgs := s.engine.Group("/orgs/:orgID")
	{
		orgs.GET("/products", s.ListOrgProducts)
		orgs.POST("/products", s.CreateOrgProducts)
		orgs.PATCH("/products", s.ResubmitOrgProducts)
		orgs.DELETE("/products/:code", s.RemoveOrgProduct)
		orgs.PUT("/products/subscriptions/:subscriptionID", s.ReviewOrgProduct)
		orgs.POST("/products/group-sync", s.SyncOrgGroups)
	}
}
