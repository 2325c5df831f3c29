package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Access types classify how an organization was onboarded. GOVM accounts
// are government ministries and skip staff review entirely.
const (
	AccessTypeRegular   = "REGULAR"
	AccessTypeGovm      = "GOVM"
	AccessTypeGovn      = "GOVN"
	AccessTypeAnonymous = "ANONYMOUS"
)

const OrgTypeSBCStaff = "SBC_STAFF"

// Membership lifecycle.
const (
	MembershipStatusActive   = "ACTIVE"
	MembershipStatusInactive = "INACTIVE"
)

// Membership types. ADMIN and COORDINATOR can manage product subscriptions.
const (
	MembershipTypeAdmin       = "ADMIN"
	MembershipTypeCoordinator = "COORDINATOR"
	MembershipTypeMember      = "MEMBER"
)

// Org is an account that products are subscribed under.
type Org struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Name       string       `json:"name" gorm:"type:text;not null"`
	AccessType string       `json:"access_type" gorm:"type:text;not null;default:'REGULAR'"`
	TypeCode   string       `json:"type_code" gorm:"type:text;not null;default:'BASIC'"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Org) TableName() string { return "organizations" }

// Membership links a user to an org with a role.
type Membership struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID          snowflake.ID `json:"org_id" gorm:"not null;index"`
	UserID         snowflake.ID `json:"user_id" gorm:"not null;index"`
	MembershipType string       `json:"membership_type" gorm:"type:text;not null"`
	Status         string       `json:"status" gorm:"type:text;not null"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Membership) TableName() string { return "memberships" }

// User mirrors the identity record the platform keeps per login.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	KeycloakGUID string       `json:"keycloak_guid" gorm:"column:keycloak_guid;type:text;not null;uniqueIndex"`
	Email        string       `json:"email" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }
