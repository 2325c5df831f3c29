package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProductSubscription links an organization to a product code. Rows are
// soft-deactivated (INACTIVE) rather than deleted, and may be reactivated.
type ProductSubscription struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID `json:"org_id" gorm:"not null;uniqueIndex:ux_product_subscriptions_org_code,priority:1"`
	ProductCode string       `json:"product_code" gorm:"type:text;not null;uniqueIndex:ux_product_subscriptions_org_code,priority:2"`
	StatusCode  Status       `json:"status_code" gorm:"type:text;not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductSubscription) TableName() string { return "product_subscriptions" }

// BCOLProfileProductMap maps legacy BC Online profile flags to the product
// codes they grant.
var BCOLProfileProductMap = map[string]string{
	"PPR": "PPR",
	"MHR": "MHR",
	"VS":  "VS",
}
