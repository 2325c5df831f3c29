package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authhub/internal/berrors"
	subscriptiondomain "github.com/smallbiznis/authhub/internal/subscription/domain"
)

// ListProducts handles GET /products: the public catalog. Hidden products
// are included only for staff callers.
func (s *Server) ListProducts(c *gin.Context) {
	products, err := s.productSvc.GetProducts(c.Request.Context(), true, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

type subscriptionRequestBody struct {
	ProductCode      string `json:"product_code" binding:"required"`
	ExternalSourceID string `json:"external_source_id"`
}

type createSubscriptionsBody struct {
	Subscriptions []subscriptionRequestBody `json:"subscriptions" binding:"required,min=1,dive"`
	AutoApprove   bool                      `json:"auto_approve"`
}

type resubmitSubscriptionsBody struct {
	Subscriptions []subscriptionRequestBody `json:"subscriptions" binding:"required,min=1,dive"`
}

type reviewSubscriptionBody struct {
	IsApproved    bool   `json:"is_approved"`
	IsHold        bool   `json:"is_hold"`
	IsResubmitted bool   `json:"is_resubmitted"`
	TaskRemarks   string `json:"task_remarks"`
}

// ListOrgProducts handles GET /orgs/:orgID/products: the catalog annotated
// with the org's subscription status per product.
func (s *Server) ListOrgProducts(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views, err := s.subscriptionSvc.GetAllSubscriptions(c.Request.Context(), orgID, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateOrgProducts handles POST /orgs/:orgID/products.
func (s *Server) CreateOrgProducts(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body createSubscriptionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, berrors.ErrInvalidRequest)
		return
	}

	views, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateRequest{
		OrgID:         orgID,
		Subscriptions: toSubscriptionRequests(body.Subscriptions),
		AutoApprove:   body.AutoApprove,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, views)
}

// ResubmitOrgProducts handles PATCH /orgs/:orgID/products.
func (s *Server) ResubmitOrgProducts(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body resubmitSubscriptionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, berrors.ErrInvalidRequest)
		return
	}

	views, err := s.subscriptionSvc.Resubmit(c.Request.Context(), subscriptiondomain.ResubmitRequest{
		OrgID:         orgID,
		Subscriptions: toSubscriptionRequests(body.Subscriptions),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// RemoveOrgProduct handles DELETE /orgs/:orgID/products/:code.
func (s *Server) RemoveOrgProduct(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		AbortWithError(c, berrors.ErrDataNotFound)
		return
	}

	views, err := s.subscriptionSvc.Remove(c.Request.Context(), subscriptiondomain.RemoveRequest{
		OrgID:       orgID,
		ProductCode: code,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ReviewOrgProduct handles PUT /orgs/:orgID/products/subscriptions/:subscriptionID:
// a staff approve/reject/hold decision.
func (s *Server) ReviewOrgProduct(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	subscriptionID, err := snowflake.ParseString(strings.TrimSpace(c.Param("subscriptionID")))
	if err != nil || subscriptionID == 0 {
		AbortWithError(c, berrors.ErrDataNotFound)
		return
	}

	var body reviewSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, berrors.ErrInvalidRequest)
		return
	}

	if err := s.subscriptionSvc.Update(c.Request.Context(), subscriptiondomain.UpdateRequest{
		SubscriptionID: subscriptionID,
		OrgID:          orgID,
		IsApproved:     body.IsApproved,
		IsHold:         body.IsHold,
		IsResubmitted:  body.IsResubmitted,
		TaskRemarks:    body.TaskRemarks,
	}); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SyncOrgGroups handles POST /orgs/:orgID/products/group-sync: recompute
// and submit identity-provider group membership for the org's members.
func (s *Server) SyncOrgGroups(c *gin.Context) {
	orgID, err := s.orgIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.groupSyncSvc.SyncOrg(c.Request.Context(), orgID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) orgIDParam(c *gin.Context) (snowflake.ID, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(c.Param("orgID")))
	if err != nil || orgID == 0 {
		return 0, berrors.ErrDataNotFound
	}
	return orgID, nil
}

func toSubscriptionRequests(body []subscriptionRequestBody) []subscriptiondomain.SubscriptionRequest {
	requests := make([]subscriptiondomain.SubscriptionRequest, 0, len(body))
	for _, item := range body {
		requests = append(requests, subscriptiondomain.SubscriptionRequest{
			ProductCode:      item.ProductCode,
			ExternalSourceID: item.ExternalSourceID,
		})
	}
	return requests
}
