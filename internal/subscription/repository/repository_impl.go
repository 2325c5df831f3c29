package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, org_id, product_code, status_code, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.ProductSubscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *domain.ProductSubscription) error {
	return db.WithContext(ctx).Save(sub).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ProductSubscription, error) {
	var sub domain.ProductSubscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM product_subscriptions WHERE id = ?`,
		id,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) FindByOrgAndCode(ctx context.Context, db *gorm.DB, orgID snowflake.ID, code string, validStatuses ...domain.Status) (*domain.ProductSubscription, error) {
	q := db.WithContext(ctx)
	var sub domain.ProductSubscription
	var err error
	if len(validStatuses) == 0 {
		err = q.Raw(
			`SELECT `+subscriptionColumns+` FROM product_subscriptions
			 WHERE org_id = ? AND product_code = ? AND status_code <> ?
			 ORDER BY id DESC LIMIT 1`,
			orgID, code, domain.StatusInactive,
		).Scan(&sub).Error
	} else {
		err = q.Raw(
			`SELECT `+subscriptionColumns+` FROM product_subscriptions
			 WHERE org_id = ? AND product_code = ? AND status_code IN ?
			 ORDER BY id DESC LIMIT 1`,
			orgID, code, validStatuses,
		).Scan(&sub).Error
	}
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.ProductSubscription, error) {
	var subs []domain.ProductSubscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM product_subscriptions WHERE org_id = ? ORDER BY product_code ASC`,
		orgID,
	).Scan(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
