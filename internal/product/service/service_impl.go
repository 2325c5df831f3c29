package service

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	"github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the product catalog with its code-to-type cache. The cache is
// owned here and lifecycle scoped, not process-wide state.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache *gocache.Cache
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("product.service"),
		repo: p.Repo,
		// Reference data changes only via migration, so entries never expire.
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// FindProductTypeByCode implements domain.Service. A miss reads through to
// the store without populating the cache; BuildAllProductsCache is the only
// writer, which keeps a partially warmed cache from masking stale entries.
func (s *Service) FindProductTypeByCode(ctx context.Context, code string) string {
	if cached, ok := s.cache.Get(code); ok {
		if typeCode, ok := cached.(string); ok && typeCode != "" {
			return typeCode
		}
	}

	product, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil || product == nil {
		return ""
	}
	return product.TypeCode
}

// BuildAllProductsCache implements domain.Service.
func (s *Service) BuildAllProductsCache(ctx context.Context) {
	products, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		s.log.Info("error on building product cache", zap.Error(err))
		return
	}
	for _, product := range products {
		s.cache.Set(product.Code, product.TypeCode, gocache.NoExpiration)
	}
}

// GetProducts implements domain.Service.
func (s *Service) GetProducts(ctx context.Context, includeHidden, staffCheck bool) ([]domain.ProductCode, error) {
	if staffCheck {
		user, _ := usercontext.FromContext(ctx)
		includeHidden = user.IsStaff() && includeHidden
	}
	if includeHidden {
		return s.repo.FindAll(ctx, s.db)
	}
	return s.repo.FindVisible(ctx, s.db)
}
