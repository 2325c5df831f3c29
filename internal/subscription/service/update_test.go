package service

import (
	"testing"

	"github.com/smallbiznis/authhub/internal/activitylog"
	"github.com/smallbiznis/authhub/internal/berrors"
	"github.com/smallbiznis/authhub/internal/notification"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	productdomain "github.com/smallbiznis/authhub/internal/product/domain"
	"github.com/smallbiznis/authhub/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateApprove(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	product := f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.NoError(t, err)

	updated := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusActive, updated.StatusCode)

	require.Len(t, f.notifier.published, 1)
	published := f.notifier.published[0]
	assert.Equal(t, notification.TypeProductApproved, published.Type)
	assert.Equal(t, "admin@example.com", published.Data["emailAddresses"])
	assert.Equal(t, product.Code, published.Data["productCode"])

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, activitylog.ActionAddProductAndService, f.activity.entries[0].Action)
	assert.Equal(t, product.Description, f.activity.entries[0].Name)
}

func TestUpdateReject(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		TaskRemarks:    "incomplete paperwork",
	})
	require.NoError(t, err)

	updated := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusRejected, updated.StatusCode)

	require.Len(t, f.notifier.published, 1)
	published := f.notifier.published[0]
	assert.Equal(t, notification.TypeProductRejected, published.Type)
	assert.Equal(t, "incomplete paperwork", published.Data["remarks"])

	assert.Empty(t, f.activity.entries)
}

func TestUpdateHoldKeepsPendingWithoutNotification(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		IsHold:         true,
	})
	require.NoError(t, err)

	updated := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusPendingStaffReview, updated.StatusCode)
	assert.Empty(t, f.notifier.published)
}

func TestUpdateUnknownSubscription(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: f.node.Generate(),
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.ErrorIs(t, err, berrors.ErrDataNotFound)
}

func TestUpdateReapprovalNotification(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusRejected)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.published, 1)
	published := f.notifier.published[0]
	assert.Equal(t, notification.TypeProductReapproved, published.Type)
	assert.Equal(t, true, published.Data["isReapproved"])
}

func TestUpdateResubmittedApprovalIsReapproval(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true, CanResubmit: true})
	f.seedAdmin(t, org.ID, "admin@example.com")
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		IsApproved:     true,
		IsResubmitted:  true,
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.published, 1)
	assert.Equal(t, notification.TypeProductReapproved, f.notifier.published[0].Type)
}

func TestUpdateNoAdminEmailContinues(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	f.seedProduct(t, productdomain.ProductCode{Code: "MHR", NeedReview: true})
	sub := f.seedSubscription(t, org.ID, "MHR", domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: sub.ID,
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.NoError(t, err)

	updated := f.subscriptionFor(t, org.ID, "MHR")
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusActive, updated.StatusCode)
	assert.Empty(t, f.notifier.published)
}

func TestUpdateApproveCascadesToParent(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})
	f.seedAdmin(t, org.ID, "admin@example.com")
	child := f.seedSubscription(t, org.ID, "BCA_CHILD", domain.StatusPendingStaffReview)
	f.seedSubscription(t, org.ID, parent, domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: child.ID,
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, domain.StatusActive, parentSub.StatusCode)

	// One decision email per affected subscription.
	assert.Len(t, f.notifier.published, 2)
	assert.Len(t, f.activity.entries, 2)
}

func TestUpdateActiveParentLeftAlone(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})
	f.seedAdmin(t, org.ID, "admin@example.com")
	child := f.seedSubscription(t, org.ID, "BCA_CHILD", domain.StatusPendingStaffReview)
	f.seedSubscription(t, org.ID, parent, domain.StatusActive)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: child.ID,
		OrgID:          org.ID,
		IsApproved:     true,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, domain.StatusActive, parentSub.StatusCode)
	assert.Len(t, f.notifier.published, 1)
	assert.Len(t, f.activity.entries, 1)
}

func TestUpdateRejectCascadesToParent(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, orgdomain.AccessTypeRegular, "BASIC")
	parent := "BCA"
	f.seedProduct(t, productdomain.ProductCode{Code: parent})
	f.seedProduct(t, productdomain.ProductCode{Code: "BCA_CHILD", NeedReview: true, ParentCode: &parent})
	f.seedAdmin(t, org.ID, "admin@example.com")
	child := f.seedSubscription(t, org.ID, "BCA_CHILD", domain.StatusPendingStaffReview)
	f.seedSubscription(t, org.ID, parent, domain.StatusPendingStaffReview)

	err := f.svc.Update(testCtx(1), domain.UpdateRequest{
		SubscriptionID: child.ID,
		OrgID:          org.ID,
	})
	require.NoError(t, err)

	parentSub := f.subscriptionFor(t, org.ID, parent)
	require.NotNil(t, parentSub)
	assert.Equal(t, domain.StatusRejected, parentSub.StatusCode)
	assert.Empty(t, f.activity.entries)
}
