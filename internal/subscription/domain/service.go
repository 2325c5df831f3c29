package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	"gorm.io/gorm"
)

// SubscriptionRequest targets one product within a create or resubmit call.
type SubscriptionRequest struct {
	ProductCode      string `json:"product_code"`
	ExternalSourceID string `json:"external_source_id,omitempty"`
}

// CreateRequest creates subscriptions for an org. When Tx is set the caller
// owns the transaction; otherwise the service commits per call.
type CreateRequest struct {
	OrgID         snowflake.ID
	Subscriptions []SubscriptionRequest
	SkipAuth      bool
	AutoApprove   bool
	Tx            *gorm.DB
}

type RemoveRequest struct {
	OrgID       snowflake.ID
	ProductCode string
	SkipAuth    bool
}

type ResubmitRequest struct {
	OrgID         snowflake.ID
	Subscriptions []SubscriptionRequest
	SkipAuth      bool
}

// UpdateRequest carries a staff review decision for one subscription.
type UpdateRequest struct {
	SubscriptionID snowflake.ID
	OrgID          snowflake.ID
	IsApproved     bool
	IsHold         bool
	IsResubmitted  bool
	TaskRemarks    string
	Tx             *gorm.DB
}

// SubscriptionView is a catalog entry annotated with the org's status for
// that product, NOT_SUBSCRIBED when no row exists.
type SubscriptionView struct {
	productdomain.ProductCode
	SubscriptionStatus Status `json:"subscription_status"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) ([]SubscriptionView, error)
	Remove(ctx context.Context, req RemoveRequest) ([]SubscriptionView, error)
	Resubmit(ctx context.Context, req ResubmitRequest) ([]SubscriptionView, error)
	Update(ctx context.Context, req UpdateRequest) error
	ImportBCOLProfile(ctx context.Context, orgID snowflake.ID, profileFlags []string) error
	GetAllSubscriptions(ctx context.Context, orgID snowflake.ID, skipAuth bool) ([]SubscriptionView, error)
}
