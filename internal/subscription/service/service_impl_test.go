package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/authhub/internal/activitylog"
	"github.com/smallbiznis/authhub/internal/berrors"
	"github.com/smallbiznis/authhub/internal/clock"
	"github.com/smallbiznis/authhub/internal/notification"
	"github.com/smallbiznis/authhub/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	orgrepository "github.com/smallbiznis/authhub/internal/organization/repository"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	productrepository "github.com/smallbiznis/authhub/internal/product/repository"
	"github.com/smallbiznis/authhub/internal/subscription/domain"
	subrepository "github.com/smallbiznis/authhub/internal/subscription/repository"
	taskdomain "github.com/smallbiznis/authhub/internal/task/domain"
	taskrepository "github.com/smallbiznis/authhub/internal/task/repository"
	"github.com/smallbiznis/authhub/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type authzStub struct {
	err     error
	actions []string
}

func (a *authzStub) Authorize(ctx context.Context, orgID snowflake.ID, object, action string) error {
	a.actions = append(a.actions, action)
	return a.err
}

type publishedNotification struct {
	Type notification.Type
	Data map[string]any
}

type notifierStub struct {
	err       error
	published []publishedNotification
}

func (n *notifierStub) Publish(ctx context.Context, notificationType notification.Type, data map[string]any) error {
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, publishedNotification{Type: notificationType, Data: data})
	return nil
}

type activityStub struct {
	entries []activitylog.Activity
}

func (a *activityStub) Publish(ctx context.Context, activity activitylog.Activity) {
	a.entries = append(a.entries, activity)
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	authz    *authzStub
	notifier *notifierStub
	activity *activityStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Org{},
		&orgdomain.Membership{},
		&orgdomain.User{},
		&productdomain.ProductCode{},
		&domain.ProductSubscription{},
		&taskdomain.Task{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		node:     node,
		clk:      clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		authz:    &authzStub{},
		notifier: &notifierStub{},
		activity: &activityStub{},
	}
	f.svc = NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       f.clk,
		Repo:        subrepository.Provide(),
		TaskRepo:    taskrepository.Provide(),
		OrgRepo:     orgrepository.Provide(),
		ProductRepo: productrepository.Provide(),
		Authz:       f.authz,
		Notifier:    f.notifier,
		Activity:    f.activity,
		Metrics:     metrics.New(metrics.NewRegistry()),
	})
	return f
}

func (f *fixture) seedOrg(t *testing.T, accessType, typeCode string) *orgdomain.Org {
	t.Helper()
	org := &orgdomain.Org{
		ID:         f.node.Generate(),
		Name:       "Bobs Paddle Shop",
		AccessType: accessType,
		TypeCode:   typeCode,
	}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *fixture) seedProduct(t *testing.T, product productdomain.ProductCode) productdomain.ProductCode {
	t.Helper()
	if product.Description == "" {
		product.Description = product.Code + " Registry"
	}
	if product.TypeCode == "" {
		product.TypeCode = "PARTNER"
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product
}

func (f *fixture) seedAdmin(t *testing.T, orgID snowflake.ID, email string) snowflake.ID {
	t.Helper()
	user := &orgdomain.User{ID: f.node.Generate(), KeycloakGUID: testGUID(f.node), Email: email}
	require.NoError(t, f.db.Create(user).Error)
	require.NoError(t, f.db.Create(&orgdomain.Membership{
		ID:             f.node.Generate(),
		OrgID:          orgID,
		UserID:         user.ID,
		MembershipType: orgdomain.MembershipTypeAdmin,
		Status:         orgdomain.MembershipStatusActive,
	}).Error)
	return user.ID
}

func testGUID(node *snowflake.Node) string {
	return fmt.Sprintf("guid-%s", node.Generate())
}

func (f *fixture) seedSubscription(t *testing.T, orgID snowflake.ID, code string, status domain.Status) *domain.ProductSubscription {
	t.Helper()
	sub := &domain.ProductSubscription{
		ID:          f.node.Generate(),
		OrgID:       orgID,
		ProductCode: code,
		StatusCode:  status,
		CreatedAt:   f.clk.Now(),
		UpdatedAt:   f.clk.Now(),
	}
	require.NoError(t, f.db.Create(sub).Error)
	return sub
}

func (f *fixture) subscriptionFor(t *testing.T, orgID snowflake.ID, code string) *domain.ProductSubscription {
	t.Helper()
	var sub domain.ProductSubscription
	err := f.db.Raw(
		`SELECT id, org_id, product_code, status_code, created_at, updated_at
		 FROM product_subscriptions WHERE org_id = ? AND product_code = ? ORDER BY id DESC LIMIT 1`,
		orgID, code,
	).Scan(&sub).Error
	require.NoError(t, err)
	if sub.ID == 0 {
		return nil
	}
	return &sub
}

func (f *fixture) countSubscriptions(t *testing.T, orgID snowflake.ID, code string) int {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&domain.ProductSubscription{}).
		Where("org_id = ? AND product_code = ?", orgID, code).Count(&count).Error)
	return int(count)
}

func (f *fixture) tasksFor(t *testing.T, relationshipID snowflake.ID) []taskdomain.Task {
	t.Helper()
	var tasks []taskdomain.Task
	require.NoError(t, f.db.Where("relationship_id = ?", relationshipID).Find(&tasks).Error)
	return tasks
}

func testCtx(userID int64, roles ...string) context.Context {
	return usercontext.WithUser(context.Background(), usercontext.UserContext{
		UserID: userID,
		Roles:  roles,
	})
}

func statusOf(views []domain.SubscriptionView, code string) (domain.Status, bool) {
	for _, view := range views {
		if view.Code == code {
			return view.SubscriptionStatus, true
		}
	}
	return "", false
}

func TestCreateUnknownOrg(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         f.node.Generate(),
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "PPR"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrDataNotFound)
}

func TestCreateUnknownProduct(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "NOPE"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrDataNotFound)
	assert.Zero(t, f.countSubscriptions(t, org.ID, "NOPE"))
}

func TestCreateDuplicateSubscription(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.seedSubscription(t, org.ID, "PPR", domain.StatusActive)

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "PPR"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrProductSubscriptionExists)
}

func TestCreateNeedReviewGoesPending(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})
	f.seedAdmin(t, org.ID, "admin@example.com")

	views, err := f.svc.Create(testCtx(42), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR", ExternalSourceID: "ext-9"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, ok := statusOf(views, "MHR")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPendingStaffReview, status)

	sub := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	assert.Equal(t, domain.StatusPendingStaffReview, sub.StatusCode)

	tasks := f.tasksFor(t, sub.ID)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, org.Name, task.Name)
	assert.Equal(t, taskdomain.StatusOpen, task.Status)
	assert.Equal(t, taskdomain.ActionProductReview, task.Action)
	assert.Equal(t, string(domain.StatusPendingStaffReview), task.RelationshipStatus)
	assert.Equal(t, snowflake.ID(42), task.RelatedTo)
	require.NotNil(t, task.ExternalSourceID)
	assert.Equal(t, "ext-9", *task.ExternalSourceID)

	require.Len(t, f.notifier.published, 1)
	assert.Equal(t, notification.TypeProductConfirmation, f.notifier.published[0].Type)
	assert.Equal(t, "admin@example.com", f.notifier.published[0].Data["emailAddresses"])

	assert.Empty(t, f.activity.entries)
}

func TestCreateQualifiedSupplierReviewAction(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: productdomain.CodeMhrQualifiedLawyer, NeedReview: true})

	_, err := f.svc.Create(testCtx(7), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: productdomain.CodeMhrQualifiedLawyer}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	sub := f.subscriptionFor(t, org.ID, productdomain.CodeMhrQualifiedLawyer)
	require.NotNil(t, sub)
	tasks := f.tasksFor(t, sub.ID)
	require.Len(t, tasks, 1)
	assert.Equal(t, taskdomain.ActionQualifiedSupplierReview, tasks[0].Action)
}

func TestCreateGovmSkipsReview(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeGovm, "BASIC")
	product := f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})

	views, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusActive, status)

	sub := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	assert.Empty(t, f.tasksFor(t, sub.ID))
	assert.Empty(t, f.notifier.published)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, activitylog.ActionAddProductAndService, f.activity.entries[0].Action)
	assert.Equal(t, product.Description, f.activity.entries[0].Name)
}

func TestCreateAutoApprove(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})

	views, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
		AutoApprove:   true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusActive, status)
	sub := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	assert.Empty(t, f.tasksFor(t, sub.ID))
}

func TestCreateLinkedProductMirrorsStatus(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	linked := "ESRA"
	f.seedProduct(t, productdomain.ProductCode{Code: "CA_SEARCH", NeedReview: true, LinkedProductCode: &linked})
	f.seedProduct(t, productdomain.ProductCode{Code: linked})

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "CA_SEARCH"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	main := f.subscriptionFor(t, org.ID, "CA_SEARCH")
	mirror := f.subscriptionFor(t, org.ID, linked)
	require.NotNil(t, main)
	require.NotNil(t, mirror)
	assert.Equal(t, domain.StatusPendingStaffReview, main.StatusCode)
	assert.Equal(t, domain.StatusPendingStaffReview, mirror.StatusCode)
}

func TestCreateLinkedProductReactivatedAfterRemoval(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	linked := "ESRA"
	f.seedProduct(t, productdomain.ProductCode{Code: "CA_SEARCH", NeedReview: true, LinkedProductCode: &linked})
	f.seedProduct(t, productdomain.ProductCode{Code: linked})
	removed := f.seedSubscription(t, org.ID, linked, domain.StatusInactive)

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "CA_SEARCH"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	mirror := f.subscriptionFor(t, org.ID, linked)
	require.NotNil(t, mirror)
	assert.Equal(t, removed.ID, mirror.ID)
	assert.Equal(t, domain.StatusPendingStaffReview, mirror.StatusCode)
	assert.Equal(t, 1, f.countSubscriptions(t, org.ID, linked))
}

func TestCreateParentCreatedAtTriggerStatus(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "BCA_CHILD"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, domain.StatusPendingStaffReview, parentSub.StatusCode)
}

func TestCreateActiveParentNotRegressed(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})
	f.seedSubscription(t, org.ID, parent, domain.StatusActive)

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "BCA_CHILD"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, domain.StatusActive, parentSub.StatusCode)
}

func TestCreateParentReactivatedAfterRemoval(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})
	removed := f.seedSubscription(t, org.ID, parent, domain.StatusInactive)

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "BCA_CHILD"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, removed.ID, parentSub.ID)
	assert.Equal(t, domain.StatusPendingStaffReview, parentSub.StatusCode)
	assert.Equal(t, 1, f.countSubscriptions(t, org.ID, parent))
}

func TestCreatePreviouslyApprovedSkipsReview(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	inactive := f.seedSubscription(t, org.ID, "MHR", domain.StatusInactive)
	require.NoError(t, f.db.Create(&taskdomain.Task{
		ID:                 f.node.Generate(),
		Name:               org.Name,
		RelationshipType:   taskdomain.RelationshipTypeProduct,
		RelationshipID:     inactive.ID,
		RelationshipStatus: string(domain.StatusActive),
		Status:             taskdomain.StatusCompleted,
		Action:             taskdomain.ActionProductReview,
		AccountID:          org.ID,
		DateSubmitted:      f.clk.Now(),
	}).Error)

	views, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusActive, status)

	// The inactive row is reactivated, not duplicated.
	assert.Equal(t, 1, f.countSubscriptions(t, org.ID, "MHR"))
	sub := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	assert.Equal(t, inactive.ID, sub.ID)
	assert.Equal(t, domain.StatusActive, sub.StatusCode)
}

func TestCreateReusedRowStillNeedsReviewWhenNotApprovedBefore(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	inactive := f.seedSubscription(t, org.ID, "MHR", domain.StatusInactive)
	require.NoError(t, f.db.Create(&taskdomain.Task{
		ID:                 f.node.Generate(),
		Name:               org.Name,
		RelationshipType:   taskdomain.RelationshipTypeProduct,
		RelationshipID:     inactive.ID,
		RelationshipStatus: string(domain.StatusRejected),
		Status:             taskdomain.StatusCompleted,
		Action:             taskdomain.ActionProductReview,
		AccountID:          org.ID,
		DateSubmitted:      f.clk.Now(),
	}).Error)

	views, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusPendingStaffReview, status)
	assert.Equal(t, 1, f.countSubscriptions(t, org.ID, "MHR"))
}

func TestCreateNotificationFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	f.notifier.err = fmt.Errorf("broker unavailable")

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrFailedNotification)
	assert.Zero(t, f.countSubscriptions(t, org.ID, "MHR"))
}

func TestCreateAuthorizationDenied(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.authz.err = berrors.ErrNotAuthorized

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "PPR"}},
	})
	require.ErrorIs(t, err, berrors.ErrNotAuthorized)
	assert.Zero(t, f.countSubscriptions(t, org.ID, "PPR"))
}

func TestCreateSystemAdminProductChecksSystemAction(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "SVC", NeedSystemAdmin: true})

	// The system check runs even when the caller-level check is skipped.
	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "SVC"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)
	assert.Contains(t, f.authz.actions, "product_subscription.system")
}

func TestRemoveDeactivatesSubscription(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.seedSubscription(t, org.ID, "PPR", domain.StatusActive)

	views, err := f.svc.Remove(testCtx(1), domain.RemoveRequest{
		OrgID:       org.ID,
		ProductCode: "PPR",
		SkipAuth:    true,
	})
	require.NoError(t, err)

	sub := f.subscriptionFor(t, org.ID, "PPR")
	require.NotNil(t, sub)
	assert.Equal(t, domain.StatusInactive, sub.StatusCode)

	status, _ := statusOf(views, "PPR")
	assert.Equal(t, domain.StatusInactive, status)
}

func TestRemovePendingDeletesOpenReviewTask(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})

	_, err := f.svc.Create(testCtx(1), domain.CreateRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	sub := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	require.Len(t, f.tasksFor(t, sub.ID), 1)

	_, err = f.svc.Remove(testCtx(1), domain.RemoveRequest{
		OrgID:       org.ID,
		ProductCode: "MHR",
		SkipAuth:    true,
	})
	require.NoError(t, err)

	assert.Empty(t, f.tasksFor(t, sub.ID))
	sub = f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, sub)
	assert.Equal(t, domain.StatusInactive, sub.StatusCode)
}

func TestRemoveNonexistentIsNoop(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})

	views, err := f.svc.Remove(testCtx(1), domain.RemoveRequest{
		OrgID:       org.ID,
		ProductCode: "PPR",
		SkipAuth:    true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "PPR")
	assert.Equal(t, domain.StatusNotSubscribed, status)
}

func TestResubmitResetsSubscriptionAndTask(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	rejected := f.seedSubscription(t, org.ID, "MHR", domain.StatusRejected)
	remarks := "missing documents"
	require.NoError(t, f.db.Create(&taskdomain.Task{
		ID:                 f.node.Generate(),
		Name:               org.Name,
		RelationshipType:   taskdomain.RelationshipTypeProduct,
		RelationshipID:     rejected.ID,
		RelationshipStatus: string(domain.StatusRejected),
		Status:             taskdomain.StatusCompleted,
		Action:             taskdomain.ActionProductReview,
		AccountID:          org.ID,
		Remarks:            &remarks,
		DateSubmitted:      f.clk.Now().Add(-48 * time.Hour),
	}).Error)

	f.clk.Advance(time.Hour)

	views, err := f.svc.Resubmit(testCtx(99), domain.ResubmitRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusPendingStaffReview, status)

	tasks := f.tasksFor(t, rejected.ID)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, taskdomain.StatusOpen, task.Status)
	assert.Equal(t, string(domain.StatusPendingStaffReview), task.RelationshipStatus)
	assert.True(t, task.IsResubmitted)
	assert.Nil(t, task.Remarks)
	assert.Equal(t, snowflake.ID(99), task.RelatedTo)
	assert.WithinDuration(t, f.clk.Now(), task.DateSubmitted, time.Second)

	require.Len(t, f.notifier.published, 1)
	assert.Equal(t, notification.TypeProductConfirmation, f.notifier.published[0].Type)
}

func TestResubmitRequiresRejectedTask(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)
	require.NoError(t, f.db.Create(&taskdomain.Task{
		ID:                 f.node.Generate(),
		Name:               org.Name,
		RelationshipType:   taskdomain.RelationshipTypeProduct,
		RelationshipID:     sub.ID,
		RelationshipStatus: string(domain.StatusActive),
		Status:             taskdomain.StatusCompleted,
		Action:             taskdomain.ActionProductReview,
		AccountID:          org.ID,
		DateSubmitted:      f.clk.Now(),
	}).Error)

	_, err := f.svc.Resubmit(testCtx(1), domain.ResubmitRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrInvalidProductResubState)
}

func TestResubmitProductNotEligible(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR", NeedReview: true})
	f.seedSubscription(t, org.ID, "PPR", domain.StatusRejected)

	_, err := f.svc.Resubmit(testCtx(1), domain.ResubmitRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "PPR"}},
		SkipAuth:      true,
	})
	require.ErrorIs(t, err, berrors.ErrInvalidProductResubmission)
}

func TestResubmitSkipsUnknownSubscriptions(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})

	views, err := f.svc.Resubmit(testCtx(1), domain.ResubmitRequest{
		OrgID:         org.ID,
		Subscriptions: []domain.SubscriptionRequest{{ProductCode: "MHR"}},
		SkipAuth:      true,
	})
	require.NoError(t, err)

	status, _ := statusOf(views, "MHR")
	assert.Equal(t, domain.StatusNotSubscribed, status)
	assert.Empty(t, f.notifier.published)
}

func TestImportBCOLProfile(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR"})
	f.seedSubscription(t, org.ID, "MHR", domain.StatusRejected)

	err := f.svc.ImportBCOLProfile(testCtx(1), org.ID, []string{"PPR", "MHR", "UNKNOWN_FLAG"})
	require.NoError(t, err)

	ppr := f.subscriptionFor(t, org.ID, "PPR")
	require.NotNil(t, ppr)
	assert.Equal(t, domain.StatusActive, ppr.StatusCode)

	mhr := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, mhr)
	assert.Equal(t, domain.StatusActive, mhr.StatusCode)

	// Legacy imports never queue review or email.
	assert.Empty(t, f.notifier.published)
	assert.Empty(t, f.activity.entries)
}

func TestImportBCOLProfileReactivatesRemovedSubscription(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	removed := f.seedSubscription(t, org.ID, "PPR", domain.StatusInactive)

	err := f.svc.ImportBCOLProfile(testCtx(1), org.ID, []string{"PPR"})
	require.NoError(t, err)

	ppr := f.subscriptionFor(t, org.ID, "PPR")
	require.NotNil(t, ppr)
	assert.Equal(t, removed.ID, ppr.ID)
	assert.Equal(t, domain.StatusActive, ppr.StatusCode)
	assert.Equal(t, 1, f.countSubscriptions(t, org.ID, "PPR"))
}

func TestImportBCOLProfileEmptyFlags(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	require.NoError(t, f.svc.ImportBCOLProfile(testCtx(1), org.ID, nil))
}

func TestGetAllSubscriptionsAnnotatesCatalog(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR"})
	f.seedProduct(t, productdomain.ProductCode{Code: "INTERNAL", Hidden: true})
	f.seedSubscription(t, org.ID, "PPR", domain.StatusActive)

	views, err := f.svc.GetAllSubscriptions(testCtx(1), org.ID, true)
	require.NoError(t, err)
	require.Len(t, views, 2)

	status, _ := statusOf(views, "PPR")
	assert.Equal(t, domain.StatusActive, status)
	status, _ = statusOf(views, "MHR")
	assert.Equal(t, domain.StatusNotSubscribed, status)
	_, ok := statusOf(views, "INTERNAL")
	assert.False(t, ok)
}

func TestGetAllSubscriptionsStaffSeesHidden(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "PPR"})
	f.seedProduct(t, productdomain.ProductCode{Code: "INTERNAL", Hidden: true})

	views, err := f.svc.GetAllSubscriptions(testCtx(1, usercontext.RoleStaff), org.ID, true)
	require.NoError(t, err)
	require.Len(t, views, 2)
}

func TestGetAllSubscriptionsSBCStaffOrgSeesHidden(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, orgdomain.OrgTypeSBCStaff)
	f.seedProduct(t, productdomain.ProductCode{Code: "INTERNAL", Hidden: true})

	views, err := f.svc.GetAllSubscriptions(testCtx(1), org.ID, true)
	require.NoError(t, err)
	require.Len(t, views, 1)
}
