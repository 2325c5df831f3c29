package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/authhub/internal/berrors"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	"github.com/smallbiznis/authhub/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	OrgRepo  orgdomain.Repository
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	orgRepo  orgdomain.Repository
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		orgRepo:  p.OrgRepo,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, orgID snowflake.ID, object, action string) error {
	if orgID == 0 {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, orgID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
			zap.Int64("org_id", int64(orgID)),
		)
		return berrors.ErrNotAuthorized
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, orgID snowflake.ID) (string, string, error) {
	uc, ok := usercontext.FromContext(ctx)
	if !ok {
		return "", "", ErrInvalidActor
	}
	if uc.IsSystem() {
		return "system", "role:system", nil
	}

	subject := fmt.Sprintf("user:%d", uc.UserID)
	if uc.UserID == 0 {
		return "", "", ErrInvalidActor
	}
	if uc.IsStaff() {
		return subject, "role:staff", nil
	}
	if uc.IsExternalStaff() {
		return subject, "role:external_staff", nil
	}

	membership, err := s.orgRepo.FindMembership(ctx, s.db, orgID, snowflake.ID(uc.UserID))
	if err != nil {
		return "", "", err
	}
	if membership == nil {
		return "", "", berrors.ErrNotAuthorized
	}
	return subject, fmt.Sprintf("role:%s", strings.ToLower(membership.MembershipType)), nil
}

// ensureGrouping keeps the enforcer's role link for the subject current with
// the membership table, replacing a stale link when the role changed.
func (s *ServiceImpl) ensureGrouping(subject, roleName, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Member permissions (read-only)
		{"role:member", ObjectProductSubscription, ActionSubscriptionView},
		{"role:member", ObjectProductCatalog, ActionCatalogView},

		// Coordinator and admin manage their own org's subscriptions
		{"role:coordinator", ObjectProductSubscription, ActionSubscriptionView},
		{"role:coordinator", ObjectProductSubscription, ActionSubscriptionManage},
		{"role:coordinator", ObjectProductCatalog, ActionCatalogView},

		{"role:admin", ObjectProductSubscription, ActionSubscriptionView},
		{"role:admin", ObjectProductSubscription, ActionSubscriptionManage},
		{"role:admin", ObjectProductCatalog, ActionCatalogView},

		// Staff review subscriptions across orgs
		{"role:staff", ObjectProductSubscription, ActionSubscriptionView},
		{"role:staff", ObjectProductSubscription, ActionSubscriptionManage},
		{"role:staff", ObjectProductSubscription, ActionSubscriptionReview},
		{"role:staff", ObjectProductCatalog, ActionCatalogView},

		{"role:external_staff", ObjectProductSubscription, ActionSubscriptionView},
		{"role:external_staff", ObjectProductCatalog, ActionCatalogView},

		// System permissions (automated processes)
		{"role:system", ObjectProductSubscription, ActionSubscriptionView},
		{"role:system", ObjectProductSubscription, ActionSubscriptionManage},
		{"role:system", ObjectProductSubscription, ActionSubscriptionReview},
		{"role:system", ObjectProductSubscription, ActionSubscriptionSystem},
		{"role:system", ObjectProductCatalog, ActionCatalogView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
