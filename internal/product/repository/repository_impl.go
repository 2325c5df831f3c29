package repository

import (
	"context"

	"github.com/smallbiznis/authhub/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `code, description, type_code, need_review, need_system_admin,
	 can_resubmit, hidden, parent_code, linked_product_code, keycloak_group`

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.ProductCode, error) {
	var p domain.ProductCode
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM product_codes WHERE code = ?`,
		code,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.Code == "" {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.ProductCode, error) {
	var items []domain.ProductCode
	err := db.WithContext(ctx).Raw(
		`SELECT ` + productColumns + ` FROM product_codes ORDER BY code ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindVisible(ctx context.Context, db *gorm.DB) ([]domain.ProductCode, error) {
	var items []domain.ProductCode
	err := db.WithContext(ctx).Raw(
		`SELECT ` + productColumns + ` FROM product_codes WHERE hidden = FALSE ORDER BY code ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
