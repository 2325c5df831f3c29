package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, task *Task) error
	Update(ctx context.Context, db *gorm.DB, task *Task) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	// FindByRelationship returns the most recent task in the given task
	// status for a relationship, or nil when none exists.
	FindByRelationship(ctx context.Context, db *gorm.DB, relationshipID snowflake.ID, relationshipType, status string) (*Task, error)
	// FindIncompleteByRelationship returns the most recent non-completed
	// task whose relationship_status matches, or nil when none exists.
	FindIncompleteByRelationship(ctx context.Context, db *gorm.DB, relationshipID snowflake.ID, relationshipType, relationshipStatus string) (*Task, error)
}
