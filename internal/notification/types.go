package notification

import (
	subdomain "github.com/smallbiznis/authhub/internal/subscription/domain"
)

// Type identifies a mailer template. The string values double as the keys
// into the hot-reloaded subject configuration.
type Type string

const (
	TypeProductConfirmation Type = "product_confirmation_notification"
	TypeProductApproved     Type = "prod_package_approved_notification"
	TypeProductRejected     Type = "prod_package_rejected_notification"
	TypeProductReapproved   Type = "reapproved_product_subscription"
)

// ProductNotificationInfo captures the outcome of a subscription operation
// for notification purposes.
type ProductNotificationInfo struct {
	RecipientEmails string
	ProductName     string
	ProductCode     string
	StatusCode      subdomain.Status
	IsReapproved    bool
	IsConfirmation  bool
	Remarks         string
}

// TypeFor maps a subscription outcome to a notification type. The second
// return is false when no notification applies, e.g. a review put on hold.
func TypeFor(info ProductNotificationInfo) (Type, bool) {
	switch {
	case info.IsConfirmation:
		return TypeProductConfirmation, true
	case info.StatusCode == subdomain.StatusActive && info.IsReapproved:
		return TypeProductReapproved, true
	case info.StatusCode == subdomain.StatusActive:
		return TypeProductApproved, true
	case info.StatusCode == subdomain.StatusRejected:
		return TypeProductRejected, true
	default:
		return "", false
	}
}

// DataFor builds the mailer payload for a notification.
func DataFor(info ProductNotificationInfo) map[string]any {
	data := map[string]any{
		"emailAddresses": info.RecipientEmails,
		"productName":    info.ProductName,
		"productCode":    info.ProductCode,
	}
	if info.Remarks != "" {
		data["remarks"] = info.Remarks
	}
	if info.IsReapproved {
		data["isReapproved"] = true
	}
	return data
}
