package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Org, error)
	FindMembersByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Membership, error)
	FindMembership(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*Membership, error)
	// AdminEmails returns the email addresses of active ADMIN and
	// COORDINATOR members, comma separated, empty when none exist.
	AdminEmails(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (string, error)
}
