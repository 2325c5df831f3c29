package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	ObjectProductSubscription = "product_subscription"
	ObjectProductCatalog      = "product_catalog"
)

const (
	ActionSubscriptionView   = "product_subscription.view"
	ActionSubscriptionManage = "product_subscription.manage"
	ActionSubscriptionReview = "product_subscription.review"
	ActionSubscriptionSystem = "product_subscription.system"

	ActionCatalogView = "product_catalog.view"
)

var (
	ErrInvalidActor        = errors.New("authorization: invalid actor")
	ErrInvalidOrganization = errors.New("authorization: invalid organization")
	ErrInvalidObject       = errors.New("authorization: invalid object")
	ErrInvalidAction       = errors.New("authorization: invalid action")
)

// Service answers whether the caller in ctx may perform an action within an
// org. Denials surface as the caller-facing NOT_AUTHORIZED business error.
type Service interface {
	Authorize(ctx context.Context, orgID snowflake.ID, object, action string) error
}
