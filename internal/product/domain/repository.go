package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*ProductCode, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]ProductCode, error)
	FindVisible(ctx context.Context, db *gorm.DB) ([]ProductCode, error)
}
