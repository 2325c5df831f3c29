package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/activitylog"
	"github.com/smallbiznis/authhub/internal/berrors"
	"github.com/smallbiznis/authhub/internal/notification"
	"github.com/smallbiznis/authhub/internal/observability/logger"
	"github.com/smallbiznis/authhub/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Update implements domain.Service: a staff decision on a reviewed
// subscription. Approval activates, hold keeps it pending, anything else
// rejects. The decision cascades to a parent subscription unless the parent
// is already ACTIVE.
func (s *SubscriptionService) Update(ctx context.Context, req domain.UpdateRequest) error {
	db := s.db
	if req.Tx != nil {
		db = req.Tx
	}

	subscription, err := s.repo.FindByID(ctx, db, req.SubscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return berrors.ErrDataNotFound
	}

	isReapproved := domain.IsReapproved(subscription.StatusCode, req.IsApproved, req.IsResubmitted)

	next, err := domain.Transition(subscription.StatusCode, decisionStatus(req.IsApproved, req.IsHold))
	if err != nil {
		return err
	}
	subscription.StatusCode = next
	subscription.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, db, subscription); err != nil {
		return err
	}
	s.metrics.SubscriptionTransitions.WithLabelValues(string(next)).Inc()

	product, err := s.productRepo.FindByCode(ctx, db, subscription.ProductCode)
	if err != nil {
		return err
	}
	if product == nil {
		return berrors.ErrDataNotFound
	}

	if err := s.notifyDecision(ctx, db, req.OrgID, notification.ProductNotificationInfo{
		ProductName:  product.Description,
		ProductCode:  product.Code,
		StatusCode:   subscription.StatusCode,
		IsReapproved: isReapproved,
		Remarks:      req.TaskRemarks,
	}, req.IsHold); err != nil {
		return err
	}

	if req.IsApproved {
		s.publishApprovalActivity(ctx, req.OrgID, product.Description)
	}

	if product.ParentCode != nil {
		return s.approveRejectParent(ctx, db, *product.ParentCode, req.IsApproved, req.IsHold, req.OrgID)
	}
	return nil
}

func decisionStatus(isApproved, isHold bool) domain.Status {
	switch {
	case isApproved:
		return domain.StatusActive
	case isHold:
		return domain.StatusPendingStaffReview
	default:
		return domain.StatusRejected
	}
}

// approveRejectParent cascades a review decision to the parent subscription.
// A missing parent is ignored and an ACTIVE one is left alone.
func (s *SubscriptionService) approveRejectParent(ctx context.Context, db *gorm.DB, parentCode string, isApproved, isHold bool, orgID snowflake.ID) error {
	subscription, err := s.repo.FindByOrgAndCode(ctx, db, orgID, parentCode)
	if err != nil {
		return err
	}
	if subscription == nil {
		return nil
	}
	if subscription.StatusCode == domain.StatusActive {
		return nil
	}

	isReapproved := domain.IsReapproved(subscription.StatusCode, isApproved, false)

	next, err := domain.Transition(subscription.StatusCode, decisionStatus(isApproved, isHold))
	if err != nil {
		return err
	}
	subscription.StatusCode = next
	subscription.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, db, subscription); err != nil {
		return err
	}
	s.metrics.SubscriptionTransitions.WithLabelValues(string(next)).Inc()

	product, err := s.productRepo.FindByCode(ctx, db, parentCode)
	if err != nil {
		return err
	}
	if product == nil {
		return berrors.ErrDataNotFound
	}

	if err := s.notifyDecision(ctx, db, orgID, notification.ProductNotificationInfo{
		ProductName:  product.Description,
		ProductCode:  product.Code,
		StatusCode:   subscription.StatusCode,
		IsReapproved: isReapproved,
	}, isHold); err != nil {
		return err
	}

	if isApproved {
		s.publishApprovalActivity(ctx, orgID, product.Description)
	}
	return nil
}

// notifyDecision queues the decision email to the org admins. A missing
// admin email is logged and skipped rather than failing the decision.
func (s *SubscriptionService) notifyDecision(ctx context.Context, db *gorm.DB, orgID snowflake.ID, info notification.ProductNotificationInfo, isHold bool) error {
	adminEmails, err := s.orgRepo.AdminEmails(ctx, db, orgID)
	if err != nil {
		return err
	}
	if adminEmails == "" || isHold {
		if adminEmails == "" {
			logger.FromContext(ctx).Error("no admin email record for org",
				zap.Int64("org_id", int64(orgID)),
			)
		}
		return nil
	}

	info.RecipientEmails = adminEmails
	return s.sendNotification(ctx, info)
}

func (s *SubscriptionService) publishApprovalActivity(ctx context.Context, orgID snowflake.ID, productDescription string) {
	s.activity.Publish(ctx, activitylog.Activity{
		OrgID:  orgID,
		Action: activitylog.ActionAddProductAndService,
		Name:   productDescription,
	})
}
