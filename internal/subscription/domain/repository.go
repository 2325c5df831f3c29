package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *ProductSubscription) error
	Update(ctx context.Context, db *gorm.DB, sub *ProductSubscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ProductSubscription, error)
	// FindByOrgAndCode returns the row for (org, code) whose status is one
	// of validStatuses; with no statuses given, every status except
	// INACTIVE matches.
	FindByOrgAndCode(ctx context.Context, db *gorm.DB, orgID snowflake.ID, code string, validStatuses ...Status) (*ProductSubscription, error)
	FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]ProductSubscription, error)
}
