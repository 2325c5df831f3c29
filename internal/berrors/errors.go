// Package berrors defines the business error catalog shared by every domain
// service. A BusinessError carries the caller-facing code, message and HTTP
// status the server layer renders verbatim.
package berrors

import "net/http"

type BusinessError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *BusinessError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrDataNotFound = &BusinessError{
		Code:       "DATA_NOT_FOUND",
		Message:    "No matching record found.",
		StatusCode: http.StatusNotFound,
	}
	ErrProductSubscriptionExists = &BusinessError{
		Code:       "PRODUCT_SUBSCRIPTION_EXISTS",
		Message:    "Product subscription already exists for this account.",
		StatusCode: http.StatusConflict,
	}
	ErrInvalidProductResubmission = &BusinessError{
		Code:       "INVALID_PRODUCT_RESUBMISSION",
		Message:    "Product subscription is not eligible for resubmission.",
		StatusCode: http.StatusBadRequest,
	}
	ErrInvalidProductResubState = &BusinessError{
		Code:       "INVALID_PRODUCT_RESUB_STATE",
		Message:    "Product subscription is not in a resubmittable state.",
		StatusCode: http.StatusBadRequest,
	}
	ErrFailedNotification = &BusinessError{
		Code:       "FAILED_NOTIFICATION",
		Message:    "Failed to dispatch the subscription notification.",
		StatusCode: http.StatusInternalServerError,
	}
	ErrInvalidRequest = &BusinessError{
		Code:       "INVALID_REQUEST",
		Message:    "The request body is invalid.",
		StatusCode: http.StatusBadRequest,
	}
	ErrNotAuthorized = &BusinessError{
		Code:       "NOT_AUTHORIZED",
		Message:    "The caller is not authorized to perform this action.",
		StatusCode: http.StatusForbidden,
	}
)
