package groupsync

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/keycloak"
	"github.com/smallbiznis/authhub/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/authhub/internal/organization/domain"
	subdomain "github.com/smallbiznis/authhub/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service derives identity-provider group changes from the current
// subscription state and submits them.
type Service interface {
	// GroupSubscriptions computes, per (user, product with a configured
	// group), whether the user holds an active subscription and the group
	// action that follows.
	GroupSubscriptions(ctx context.Context, userIDs []snowflake.ID) ([]keycloak.GroupSubscription, error)
	SyncUsers(ctx context.Context, userIDs []snowflake.ID) error
	SyncOrg(ctx context.Context, orgID snowflake.ID) error
}

type ServiceImpl struct {
	db      *gorm.DB
	log     *zap.Logger
	orgRepo orgdomain.Repository
	kc      keycloak.Client
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	OrgRepo orgdomain.Repository
	KC      keycloak.Client
	Metrics *metrics.Metrics
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:      p.DB,
		log:     p.Log.Named("groupsync.service"),
		orgRepo: p.OrgRepo,
		kc:      p.KC,
		metrics: p.Metrics,
	}
}

type userGroupRow struct {
	UserID                  snowflake.ID `gorm:"column:user_id"`
	KeycloakGUID            string       `gorm:"column:keycloak_guid"`
	ProductCode             string       `gorm:"column:product_code"`
	KeycloakGroup           string       `gorm:"column:keycloak_group"`
	ActiveSubscriptionCount int          `gorm:"column:active_subscription_count"`
}

// GroupSubscriptions implements Service. Rows are updated in place, so the
// greatest id per (org, user) membership and per (org, product) subscription
// is the current state.
func (s *ServiceImpl) GroupSubscriptions(ctx context.Context, userIDs []snowflake.ID) ([]keycloak.GroupSubscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows []userGroupRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT u.id AS user_id,
		        u.keycloak_guid,
		        pc.code AS product_code,
		        pc.keycloak_group,
		        SUM(CASE WHEN m.status = ? AND ps.status_code = ? THEN 1 ELSE 0 END) AS active_subscription_count
		 FROM users u
		 CROSS JOIN product_codes pc
		 LEFT JOIN (
		     SELECT MAX(id) AS id, org_id, user_id
		     FROM memberships
		     GROUP BY org_id, user_id
		 ) mm ON mm.user_id = u.id
		 LEFT JOIN memberships m ON m.id = mm.id
		 LEFT JOIN (
		     SELECT MAX(id) AS id, product_code, org_id
		     FROM product_subscriptions
		     GROUP BY product_code, org_id
		 ) pm ON pm.product_code = pc.code
		 LEFT JOIN product_subscriptions ps ON ps.id = pm.id
		 WHERE (ps.org_id = m.org_id OR ps.org_id IS NULL OR m.org_id IS NULL)
		   AND u.id IN ?
		   AND pc.keycloak_group IS NOT NULL
		 GROUP BY u.id, u.keycloak_guid, pc.code, pc.keycloak_group
		 ORDER BY u.id, pc.code`,
		orgdomain.MembershipStatusActive,
		subdomain.StatusActive,
		userIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	subscriptions := make([]keycloak.GroupSubscription, 0, len(rows))
	for _, row := range rows {
		action := keycloak.GroupActionRemove
		if row.ActiveSubscriptionCount > 0 {
			action = keycloak.GroupActionAdd
		}
		subscriptions = append(subscriptions, keycloak.GroupSubscription{
			KeycloakGUID: row.KeycloakGUID,
			ProductCode:  row.ProductCode,
			GroupName:    row.KeycloakGroup,
			Action:       action,
		})
	}
	return subscriptions, nil
}

// SyncUsers implements Service.
func (s *ServiceImpl) SyncUsers(ctx context.Context, userIDs []snowflake.ID) error {
	subscriptions, err := s.GroupSubscriptions(ctx, userIDs)
	if err != nil {
		return err
	}
	if len(subscriptions) == 0 {
		return nil
	}

	for _, sub := range subscriptions {
		s.metrics.GroupSyncActions.WithLabelValues(string(sub.Action)).Inc()
	}
	s.log.Debug("submitting group changes", zap.Int("count", len(subscriptions)))
	return s.kc.AddOrRemoveGroups(ctx, subscriptions)
}

// SyncOrg implements Service: sync every active member of the org.
func (s *ServiceImpl) SyncOrg(ctx context.Context, orgID snowflake.ID) error {
	members, err := s.orgRepo.FindMembersByOrgID(ctx, s.db, orgID)
	if err != nil {
		return err
	}
	userIDs := make([]snowflake.ID, 0, len(members))
	for _, member := range members {
		userIDs = append(userIDs, member.UserID)
	}
	return s.SyncUsers(ctx, userIDs)
}
