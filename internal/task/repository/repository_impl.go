package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/task/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const taskColumns = `id, name, relationship_type, relationship_id, relationship_status,
	 status, action, type, account_id, related_to, date_submitted, remarks,
	 is_resubmitted, external_source_id, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).Create(task).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).Save(task).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM tasks WHERE id = ?`, id).Error
}

func (r *repo) FindByRelationship(ctx context.Context, db *gorm.DB, relationshipID snowflake.ID, relationshipType, status string) (*domain.Task, error) {
	var task domain.Task
	err := db.WithContext(ctx).Raw(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE relationship_id = ? AND relationship_type = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		relationshipID, relationshipType, status,
	).Scan(&task).Error
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	return &task, nil
}

func (r *repo) FindIncompleteByRelationship(ctx context.Context, db *gorm.DB, relationshipID snowflake.ID, relationshipType, relationshipStatus string) (*domain.Task, error) {
	var task domain.Task
	err := db.WithContext(ctx).Raw(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE relationship_id = ? AND relationship_type = ? AND relationship_status = ? AND status <> ?
		 ORDER BY id DESC LIMIT 1`,
		relationshipID, relationshipType, relationshipStatus, domain.StatusCompleted,
	).Scan(&task).Error
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	return &task, nil
}
