package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusOpen      = "OPEN"
	StatusHold      = "HOLD"
	StatusCompleted = "COMPLETED"
)

const (
	RelationshipTypeProduct = "PRODUCT"
)

const (
	ActionProductReview           = "PRODUCT_REVIEW"
	ActionQualifiedSupplierReview = "QUALIFIED_SUPPLIER_REVIEW"
)

// Task is a staff work item. For product subscriptions RelationshipID is the
// subscription id and RelationshipStatus mirrors the subscription lifecycle.
type Task struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	Name               string       `json:"name" gorm:"type:text;not null"`
	RelationshipType   string       `json:"relationship_type" gorm:"type:text;not null;index:ix_tasks_relationship,priority:1"`
	RelationshipID     snowflake.ID `json:"relationship_id" gorm:"not null;index:ix_tasks_relationship,priority:2"`
	RelationshipStatus string       `json:"relationship_status" gorm:"type:text;not null"`
	Status             string       `json:"status" gorm:"type:text;not null"`
	Action             string       `json:"action" gorm:"type:text;not null"`
	Type               string       `json:"type" gorm:"type:text;not null"`
	AccountID          snowflake.ID `json:"account_id" gorm:"not null"`
	RelatedTo          snowflake.ID `json:"related_to" gorm:"not null"`
	DateSubmitted      time.Time    `json:"date_submitted" gorm:"not null"`
	Remarks            *string      `json:"remarks,omitempty" gorm:"type:text"`
	IsResubmitted      bool         `json:"is_resubmitted" gorm:"not null;default:false"`
	ExternalSourceID   *string      `json:"external_source_id,omitempty" gorm:"type:text"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Task) TableName() string { return "tasks" }
