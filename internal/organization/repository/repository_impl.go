package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Org, error) {
	var org domain.Org
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, access_type, type_code, created_at, updated_at
		 FROM organizations WHERE id = ?`,
		id,
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) FindMembersByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Membership, error) {
	var members []domain.Membership
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, user_id, membership_type, status, created_at, updated_at
		 FROM memberships WHERE org_id = ? AND status = ?`,
		orgID,
		domain.MembershipStatusActive,
	).Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) FindMembership(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*domain.Membership, error) {
	var membership domain.Membership
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, user_id, membership_type, status, created_at, updated_at
		 FROM memberships
		 WHERE org_id = ? AND user_id = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		orgID,
		userID,
		domain.MembershipStatusActive,
	).Scan(&membership).Error
	if err != nil {
		return nil, err
	}
	if membership.ID == 0 {
		return nil, nil
	}
	return &membership, nil
}

func (r *repo) AdminEmails(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (string, error) {
	var emails []string
	err := db.WithContext(ctx).Raw(
		`SELECT u.email
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.org_id = ?
		   AND m.status = ?
		   AND m.membership_type IN (?, ?)
		   AND u.email <> ''
		 ORDER BY u.id`,
		orgID,
		domain.MembershipStatusActive,
		domain.MembershipTypeAdmin,
		domain.MembershipTypeCoordinator,
	).Scan(&emails).Error
	if err != nil {
		return "", err
	}
	return strings.Join(emails, ","), nil
}
