package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/activitylog"
	"github.com/smallbiznis/authhub/internal/authorization"
	"github.com/smallbiznis/authhub/internal/berrors"
	"github.com/smallbiznis/authhub/internal/clock"
	"github.com/smallbiznis/authhub/internal/notification"
	"github.com/smallbiznis/authhub/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/subscription/domain"
	taskdomain "github.com/smallbiznis/authhub/internal/task/domain"
	"github.com/smallbiznis/authhub/internal/usercontext"
	"github.com/smallbiznis/authhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubscriptionService orchestrates the product subscription lifecycle:
// creation, staff review decisions, resubmission, removal and the cascades
// to parent and linked products.
type SubscriptionService struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	taskRepo    taskdomain.Repository
	orgRepo     orgdomain.Repository
	productRepo productdomain.Repository
	authz       authorization.Service
	notifier    notification.Publisher
	activity    activitylog.Publisher
	metrics     *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	TaskRepo    taskdomain.Repository
	OrgRepo     orgdomain.Repository
	ProductRepo productdomain.Repository
	Authz       authorization.Service
	Notifier    notification.Publisher
	Activity    activitylog.Publisher
	Metrics     *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &SubscriptionService{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		taskRepo:    p.TaskRepo,
		orgRepo:     p.OrgRepo,
		productRepo: p.ProductRepo,
		authz:       p.Authz,
		notifier:    p.Notifier,
		activity:    p.Activity,
		metrics:     p.Metrics,
	}
}

// Create implements domain.Service.
func (s *SubscriptionService) Create(ctx context.Context, req domain.CreateRequest) ([]domain.SubscriptionView, error) {
	org, err := s.findOrg(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	if !req.SkipAuth {
		if err := s.authz.Authorize(ctx, req.OrgID, authorization.ObjectProductSubscription, authorization.ActionSubscriptionManage); err != nil {
			return nil, err
		}
	}

	run := func(tx *gorm.DB) error {
		for _, sub := range req.Subscriptions {
			if err := s.createOne(ctx, tx, org, sub, req.AutoApprove); err != nil {
				return err
			}
		}
		return nil
	}
	if err := s.inTransaction(ctx, req.Tx, run); err != nil {
		return nil, err
	}

	return s.GetAllSubscriptions(ctx, req.OrgID, true)
}

func (s *SubscriptionService) createOne(ctx context.Context, tx *gorm.DB, org *orgdomain.Org, sub domain.SubscriptionRequest, autoApprove bool) error {
	existing, err := s.repo.FindByOrgAndCode(ctx, tx, org.ID, sub.ProductCode)
	if err != nil {
		return err
	}
	if existing != nil {
		return berrors.ErrProductSubscriptionExists
	}

	product, err := s.productRepo.FindByCode(ctx, tx, sub.ProductCode)
	if err != nil {
		return err
	}
	if product == nil {
		return berrors.ErrDataNotFound
	}

	if product.NeedSystemAdmin {
		if err := s.authz.Authorize(ctx, org.ID, authorization.ObjectProductSubscription, authorization.ActionSubscriptionSystem); err != nil {
			return err
		}
	}

	previouslyApproved, inactiveSub, err := s.isPreviouslyApproved(ctx, tx, org.ID, sub.ProductCode)
	if err != nil {
		return err
	}
	if previouslyApproved {
		autoApprove = true
	}

	status := decideStatus(org, product, autoApprove)
	subscription, err := s.subscribeAndPublishActivity(ctx, tx, org.ID, sub.ProductCode, status, product.Description, inactiveSub)
	if err != nil {
		return err
	}

	// Linked products are co-registered, e.g. a combined registry offering.
	// They mirror the triggering status at creation time only.
	if product.LinkedProductCode != nil {
		inactiveLinked, err := s.repo.FindByOrgAndCode(ctx, tx, org.ID, *product.LinkedProductCode, domain.StatusInactive)
		if err != nil {
			return err
		}
		if _, err := s.subscribeAndPublishActivity(ctx, tx, org.ID, *product.LinkedProductCode, status, product.Description, inactiveLinked); err != nil {
			return err
		}
	}

	if product.ParentCode != nil {
		if err := s.updateParentSubscription(ctx, tx, org.ID, product, status); err != nil {
			return err
		}
	}

	if status == domain.StatusPendingStaffReview {
		if err := s.createReviewTask(ctx, tx, org, product, subscription, sub.ExternalSourceID); err != nil {
			return err
		}
		if err := s.sendConfirmation(ctx, tx, product, subscription, org.ID); err != nil {
			return err
		}
	}
	return nil
}

// decideStatus resolves the initial status of a new subscription. GOVM
// accounts skip the staff review queue.
func decideStatus(org *orgdomain.Org, product *productdomain.ProductCode, autoApprove bool) domain.Status {
	if product.NeedReview && !autoApprove {
		if org.AccessType == orgdomain.AccessTypeGovm {
			return domain.StatusActive
		}
		return domain.StatusPendingStaffReview
	}
	return domain.StatusActive
}

// isPreviouslyApproved reports whether the org held this product before and
// had it approved, in which case re-subscribing skips review. An inactive
// row whose completed review task was left non-active under a product review
// action does not count. The inactive row itself is always returned so the
// caller reactivates it instead of inserting a duplicate.
func (s *SubscriptionService) isPreviouslyApproved(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, productCode string) (bool, *domain.ProductSubscription, error) {
	inactiveSub, err := s.repo.FindByOrgAndCode(ctx, tx, orgID, productCode, domain.StatusInactive)
	if err != nil {
		return false, nil, err
	}
	if inactiveSub == nil {
		return false, nil, nil
	}

	task, err := s.taskRepo.FindByRelationship(ctx, tx, inactiveSub.ID, taskdomain.RelationshipTypeProduct, taskdomain.StatusCompleted)
	if err != nil {
		return false, nil, err
	}
	if task == nil || (task.RelationshipStatus != string(domain.StatusActive) && task.Action == taskdomain.ActionProductReview) {
		return false, inactiveSub, nil
	}
	return true, inactiveSub, nil
}

// subscribeAndPublishActivity writes the subscription row, reusing an
// inactive one when given, and records an account activity for activations.
func (s *SubscriptionService) subscribeAndPublishActivity(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, productCode string, status domain.Status, productDescription string, inactiveSub *domain.ProductSubscription) (*domain.ProductSubscription, error) {
	var subscription *domain.ProductSubscription
	if inactiveSub != nil {
		next, err := domain.Transition(inactiveSub.StatusCode, status)
		if err != nil {
			return nil, err
		}
		inactiveSub.StatusCode = next
		inactiveSub.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, inactiveSub); err != nil {
			return nil, err
		}
		subscription = inactiveSub
	} else {
		now := s.clock.Now()
		subscription = &domain.ProductSubscription{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			ProductCode: productCode,
			StatusCode:  status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, subscription); err != nil {
			// Concurrent creates race to the (org, product) unique index.
			if db.IsDuplicateKeyErr(err) {
				return nil, berrors.ErrProductSubscriptionExists
			}
			return nil, err
		}
	}

	s.metrics.SubscriptionTransitions.WithLabelValues(string(status)).Inc()
	if status == domain.StatusActive {
		s.activity.Publish(ctx, activitylog.Activity{
			OrgID:  orgID,
			Action: activitylog.ActionAddProductAndService,
			Name:   productDescription,
		})
	}
	return subscription, nil
}

// updateParentSubscription applies the parent propagation rule after a child
// transition: create a missing parent at the trigger status, advance a
// non-active one, never regress an ACTIVE one.
func (s *SubscriptionService) updateParentSubscription(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, product *productdomain.ProductCode, trigger domain.Status) error {
	parentCode := *product.ParentCode
	parentProduct, err := s.productRepo.FindByCode(ctx, tx, parentCode)
	if err != nil {
		return err
	}
	if parentProduct == nil {
		return berrors.ErrDataNotFound
	}

	existingParent, err := s.repo.FindByOrgAndCode(ctx, tx, orgID, parentCode)
	if err != nil {
		return err
	}
	if existingParent == nil {
		// A previously removed parent leaves an INACTIVE row behind; it must
		// be reactivated, not duplicated under the (org, product) index.
		inactiveParent, err := s.repo.FindByOrgAndCode(ctx, tx, orgID, parentCode, domain.StatusInactive)
		if err != nil {
			return err
		}
		_, err = s.subscribeAndPublishActivity(ctx, tx, orgID, parentCode, trigger, parentProduct.Description, inactiveParent)
		return err
	}

	next := domain.PropagateParent(existingParent.StatusCode, trigger)
	if next == existingParent.StatusCode {
		return nil
	}
	existingParent.StatusCode = next
	existingParent.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, tx, existingParent); err != nil {
		return err
	}
	s.metrics.SubscriptionTransitions.WithLabelValues(string(next)).Inc()
	return nil
}

func (s *SubscriptionService) createReviewTask(ctx context.Context, tx *gorm.DB, org *orgdomain.Org, product *productdomain.ProductCode, subscription *domain.ProductSubscription, externalSourceID string) error {
	uc, _ := usercontext.FromContext(ctx)

	action := taskdomain.ActionProductReview
	if productdomain.IsQualifiedSupplier(product.Code) {
		action = taskdomain.ActionQualifiedSupplierReview
	}

	task := &taskdomain.Task{
		ID:                 s.genID.Generate(),
		Name:               org.Name,
		RelationshipType:   taskdomain.RelationshipTypeProduct,
		RelationshipID:     subscription.ID,
		RelationshipStatus: string(domain.StatusPendingStaffReview),
		Status:             taskdomain.StatusOpen,
		Action:             action,
		Type:               product.Description,
		AccountID:          org.ID,
		RelatedTo:          snowflake.ID(uc.UserID),
		DateSubmitted:      s.clock.Now(),
	}
	if externalSourceID != "" {
		task.ExternalSourceID = &externalSourceID
	}
	return s.taskRepo.Create(ctx, tx, task)
}

func (s *SubscriptionService) sendConfirmation(ctx context.Context, tx *gorm.DB, product *productdomain.ProductCode, subscription *domain.ProductSubscription, orgID snowflake.ID) error {
	adminEmails, err := s.orgRepo.AdminEmails(ctx, tx, orgID)
	if err != nil {
		return err
	}
	return s.sendNotification(ctx, notification.ProductNotificationInfo{
		RecipientEmails: adminEmails,
		ProductName:     product.Description,
		ProductCode:     product.Code,
		StatusCode:      subscription.StatusCode,
		IsConfirmation:  true,
	})
}

func (s *SubscriptionService) sendNotification(ctx context.Context, info notification.ProductNotificationInfo) error {
	notificationType, ok := notification.TypeFor(info)
	if !ok {
		return nil
	}
	if err := s.notifier.Publish(ctx, notificationType, notification.DataFor(info)); err != nil {
		s.log.Error("publish subscription notification",
			zap.String("type", string(notificationType)),
			zap.String("product_code", info.ProductCode),
			zap.Error(err),
		)
		return berrors.ErrFailedNotification
	}
	return nil
}

// Remove implements domain.Service. Removal is a soft deactivation; a still
// open review task for a pending subscription is deleted alongside.
func (s *SubscriptionService) Remove(ctx context.Context, req domain.RemoveRequest) ([]domain.SubscriptionView, error) {
	if _, err := s.findOrg(ctx, req.OrgID); err != nil {
		return nil, err
	}
	if !req.SkipAuth {
		if err := s.authz.Authorize(ctx, req.OrgID, authorization.ObjectProductSubscription, authorization.ActionSubscriptionManage); err != nil {
			return nil, err
		}
	}

	err := s.inTransaction(ctx, nil, func(tx *gorm.DB) error {
		existing, err := s.repo.FindByOrgAndCode(ctx, tx, req.OrgID, req.ProductCode)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		next, err := domain.Transition(existing.StatusCode, domain.StatusInactive)
		if err != nil {
			return err
		}
		existing.StatusCode = next
		existing.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		s.metrics.SubscriptionTransitions.WithLabelValues(string(next)).Inc()

		pendingTask, err := s.taskRepo.FindIncompleteByRelationship(ctx, tx, existing.ID, taskdomain.RelationshipTypeProduct, string(domain.StatusPendingStaffReview))
		if err != nil {
			return err
		}
		if pendingTask != nil {
			return s.taskRepo.Delete(ctx, tx, pendingTask.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAllSubscriptions(ctx, req.OrgID, true)
}

// Resubmit implements domain.Service. A resubmission is only possible when
// the product allows it and the completed review task is currently rejected.
func (s *SubscriptionService) Resubmit(ctx context.Context, req domain.ResubmitRequest) ([]domain.SubscriptionView, error) {
	org, err := s.findOrg(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	if !req.SkipAuth {
		if err := s.authz.Authorize(ctx, req.OrgID, authorization.ObjectProductSubscription, authorization.ActionSubscriptionManage); err != nil {
			return nil, err
		}
	}

	uc, _ := usercontext.FromContext(ctx)

	err = s.inTransaction(ctx, nil, func(tx *gorm.DB) error {
		for _, sub := range req.Subscriptions {
			existing, err := s.repo.FindByOrgAndCode(ctx, tx, org.ID, sub.ProductCode)
			if err != nil {
				return err
			}
			// Only existing subscriptions matter for resubmission.
			if existing == nil {
				continue
			}

			product, err := s.productRepo.FindByCode(ctx, tx, sub.ProductCode)
			if err != nil {
				return err
			}
			if product == nil {
				return berrors.ErrDataNotFound
			}

			task, err := s.taskRepo.FindByRelationship(ctx, tx, existing.ID, taskdomain.RelationshipTypeProduct, taskdomain.StatusCompleted)
			if err != nil {
				return err
			}
			if err := validateResubmission(task, product); err != nil {
				return err
			}

			if err := s.resetSubscriptionAndReviewTask(ctx, tx, task, product, existing, uc.UserID); err != nil {
				return err
			}

			if err := s.sendConfirmation(ctx, tx, product, existing, org.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAllSubscriptions(ctx, req.OrgID, true)
}

func validateResubmission(task *taskdomain.Task, product *productdomain.ProductCode) error {
	if !(product.CanResubmit && product.NeedReview) {
		return berrors.ErrInvalidProductResubmission
	}
	// Task missing or not rejected: the review state must not be reset.
	if task == nil || task.RelationshipStatus != string(domain.StatusRejected) {
		return berrors.ErrInvalidProductResubState
	}
	return nil
}

func (s *SubscriptionService) resetSubscriptionAndReviewTask(ctx context.Context, tx *gorm.DB, task *taskdomain.Task, product *productdomain.ProductCode, subscription *domain.ProductSubscription, userID int64) error {
	task.Status = taskdomain.StatusOpen
	task.RelatedTo = snowflake.ID(userID)
	task.RelationshipStatus = string(domain.StatusPendingStaffReview)
	task.DateSubmitted = s.clock.Now()
	task.IsResubmitted = true
	task.Remarks = nil
	if err := s.taskRepo.Update(ctx, tx, task); err != nil {
		return err
	}

	if product.ParentCode != nil {
		if err := s.updateParentSubscription(ctx, tx, subscription.OrgID, product, domain.StatusPendingStaffReview); err != nil {
			return err
		}
	}

	next, err := domain.Transition(subscription.StatusCode, domain.StatusPendingStaffReview)
	if err != nil {
		return err
	}
	subscription.StatusCode = next
	subscription.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, tx, subscription); err != nil {
		return err
	}
	s.metrics.SubscriptionTransitions.WithLabelValues(string(next)).Inc()
	return nil
}

// ImportBCOLProfile creates ACTIVE subscriptions for the products mapped
// from legacy BC Online profile flags. No review, no notification.
func (s *SubscriptionService) ImportBCOLProfile(ctx context.Context, orgID snowflake.ID, profileFlags []string) error {
	if len(profileFlags) == 0 {
		return nil
	}

	return s.inTransaction(ctx, nil, func(tx *gorm.DB) error {
		for _, flag := range profileFlags {
			productCode, ok := domain.BCOLProfileProductMap[flag]
			if !ok {
				continue
			}

			subscription, err := s.repo.FindByOrgAndCode(ctx, tx, orgID, productCode)
			if err != nil {
				return err
			}
			if subscription == nil {
				// Flip a soft-removed row back instead of inserting a duplicate.
				subscription, err = s.repo.FindByOrgAndCode(ctx, tx, orgID, productCode, domain.StatusInactive)
				if err != nil {
					return err
				}
			}
			if subscription == nil {
				now := s.clock.Now()
				subscription = &domain.ProductSubscription{
					ID:          s.genID.Generate(),
					OrgID:       orgID,
					ProductCode: productCode,
					StatusCode:  domain.StatusActive,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := s.repo.Insert(ctx, tx, subscription); err != nil {
					return err
				}
				continue
			}
			if subscription.StatusCode == domain.StatusActive {
				continue
			}

			next, err := domain.Transition(subscription.StatusCode, domain.StatusActive)
			if err != nil {
				return err
			}
			subscription.StatusCode = next
			subscription.UpdatedAt = s.clock.Now()
			if err := s.repo.Update(ctx, tx, subscription); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAllSubscriptions implements domain.Service: the catalog annotated with
// the org's status per product, NOT_SUBSCRIBED when no row exists.
func (s *SubscriptionService) GetAllSubscriptions(ctx context.Context, orgID snowflake.ID, skipAuth bool) ([]domain.SubscriptionView, error) {
	uc, _ := usercontext.FromContext(ctx)

	org, err := s.findOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !skipAuth && !uc.IsExternalStaff() {
		if err := s.authz.Authorize(ctx, orgID, authorization.ObjectProductSubscription, authorization.ActionSubscriptionView); err != nil {
			return nil, err
		}
	}

	subscriptions, err := s.repo.FindByOrgID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	statusByCode := make(map[string]domain.Status, len(subscriptions))
	for _, sub := range subscriptions {
		statusByCode[sub.ProductCode] = sub.StatusCode
	}

	// Hidden products show up only for staff and SBC staff orgs.
	includeHidden := uc.IsStaff() || uc.IsExternalStaff() || org.TypeCode == orgdomain.OrgTypeSBCStaff

	var products []productdomain.ProductCode
	if includeHidden {
		products, err = s.productRepo.FindAll(ctx, s.db)
	} else {
		products, err = s.productRepo.FindVisible(ctx, s.db)
	}
	if err != nil {
		return nil, err
	}

	views := make([]domain.SubscriptionView, 0, len(products))
	for _, product := range products {
		status, ok := statusByCode[product.Code]
		if !ok {
			status = domain.StatusNotSubscribed
		}
		views = append(views, domain.SubscriptionView{
			ProductCode:        product,
			SubscriptionStatus: status,
		})
	}
	return views, nil
}

func (s *SubscriptionService) findOrg(ctx context.Context, orgID snowflake.ID) (*orgdomain.Org, error) {
	org, err := s.orgRepo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, berrors.ErrDataNotFound
	}
	return org, nil
}

// inTransaction runs fn in the caller's transaction when one is given,
// otherwise in a fresh one committed on return.
func (s *SubscriptionService) inTransaction(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}
