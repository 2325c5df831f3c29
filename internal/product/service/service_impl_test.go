package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/product/repository"
	"github.com/smallbiznis/authhub/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ProductCode{}))

	svc := NewService(ServiceParam{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return svc, db
}

func seedCatalog(t *testing.T, db *gorm.DB, products ...domain.ProductCode) {
	t.Helper()
	for _, product := range products {
		if product.Description == "" {
			product.Description = product.Code
		}
		require.NoError(t, db.Create(&product).Error)
	}
}

func TestFindProductTypeByCode(t *testing.T) {
	svc, db := newCatalog(t)
	seedCatalog(t, db,
		domain.ProductCode{Code: "PPR", TypeCode: "PARTNER"},
		domain.ProductCode{Code: "BUSINESS", TypeCode: "INTERNAL"},
	)

	ctx := context.Background()
	svc.BuildAllProductsCache(ctx)

	assert.Equal(t, "PARTNER", svc.FindProductTypeByCode(ctx, "PPR"))
	assert.Equal(t, "INTERNAL", svc.FindProductTypeByCode(ctx, "BUSINESS"))
	assert.Equal(t, "", svc.FindProductTypeByCode(ctx, "NOPE"))
}

func TestFindProductTypeCacheMissReadsThrough(t *testing.T) {
	svc, db := newCatalog(t)
	ctx := context.Background()

	// Nothing warmed; the lookup still resolves from the store.
	seedCatalog(t, db, domain.ProductCode{Code: "MHR", TypeCode: "PARTNER"})
	assert.Equal(t, "PARTNER", svc.FindProductTypeByCode(ctx, "MHR"))
}

func TestGetProductsHiddenRequiresStaff(t *testing.T) {
	svc, db := newCatalog(t)
	seedCatalog(t, db,
		domain.ProductCode{Code: "PPR", TypeCode: "PARTNER"},
		domain.ProductCode{Code: "INTERNAL", TypeCode: "INTERNAL", Hidden: true},
	)

	anonymous := context.Background()
	products, err := svc.GetProducts(anonymous, true, true)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	staff := usercontext.WithUser(context.Background(), usercontext.UserContext{
		UserID: 1,
		Roles:  []string{usercontext.RoleStaff},
	})
	products, err = svc.GetProducts(staff, true, true)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestGetProductsWithoutStaffCheck(t *testing.T) {
	svc, db := newCatalog(t)
	seedCatalog(t, db,
		domain.ProductCode{Code: "PPR", TypeCode: "PARTNER"},
		domain.ProductCode{Code: "INTERNAL", TypeCode: "INTERNAL", Hidden: true},
	)

	products, err := svc.GetProducts(context.Background(), true, false)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = svc.GetProducts(context.Background(), false, false)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}
