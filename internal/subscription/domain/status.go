package domain

import "fmt"

// Status is the lifecycle state of a product subscription.
type Status string

const (
	// StatusNotSubscribed is virtual: no row exists for the (org, product)
	// pair. It never appears in the store.
	StatusNotSubscribed      Status = "NOT_SUBSCRIBED"
	StatusPendingStaffReview Status = "PENDING_STAFF_REVIEW"
	StatusActive             Status = "ACTIVE"
	StatusRejected           Status = "REJECTED"
	StatusInactive           Status = "INACTIVE"
)

// transitions is the explicit state machine. Self-loops cover holds and
// idempotent cascades.
var transitions = map[Status]map[Status]bool{
	StatusNotSubscribed: {
		StatusPendingStaffReview: true,
		StatusActive:             true,
	},
	StatusPendingStaffReview: {
		StatusPendingStaffReview: true,
		StatusActive:             true,
		StatusRejected:           true,
		StatusInactive:           true,
	},
	StatusActive: {
		StatusActive:   true,
		StatusInactive: true,
	},
	StatusRejected: {
		StatusRejected:           true,
		StatusPendingStaffReview: true,
		StatusActive:             true,
		StatusInactive:           true,
	},
	StatusInactive: {
		StatusPendingStaffReview: true,
		StatusActive:             true,
	},
}

// CanTransition reports whether from may move to target.
func CanTransition(from, target Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[target]
}

// Transition validates the move and returns the target status.
func Transition(from, target Status) (Status, error) {
	if !CanTransition(from, target) {
		return from, fmt.Errorf("illegal subscription transition %s -> %s", from, target)
	}
	return target, nil
}

// IsReapproved reports whether an approval is a re-approval: approving a
// REJECTED subscription, or approving a resubmitted PENDING_STAFF_REVIEW
// one. Affects notification wording only.
func IsReapproved(current Status, isApproved, isResubmitted bool) bool {
	if !isApproved {
		return false
	}
	return current == StatusRejected ||
		(current == StatusPendingStaffReview && isResubmitted)
}

// PropagateParent yields the parent subscription's next status when a child
// transitions: a missing parent is created at the trigger status, a
// non-active parent follows the trigger, and an ACTIVE parent is never
// regressed.
func PropagateParent(parent, trigger Status) Status {
	if parent == StatusActive {
		return StatusActive
	}
	return trigger
}
