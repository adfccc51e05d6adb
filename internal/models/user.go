package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Account roles. Admin-level accounts skip email verification.
const (
	RoleUser       = "user"
	RoleDriver     = "driver"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole reports whether role is one of the accepted account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleDriver, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AdminRole reports whether role grants administrative access.
func AdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// MaxLoginLocations caps the last-login geolocation tag list.
const MaxLoginLocations = 10

// User represents a registered account.
//
// MotiID is the derived public identifier carried in session tokens. It is
// recomputed only when the email changes or the field is unset, and carries
// no unique index: token subject resolution is its only consumer.
type User struct {
	BaseModel
	Email               string         `gorm:"uniqueIndex;size:256" json:"email"`
	Username            string         `gorm:"uniqueIndex;size:256" json:"username"`
	MotiID              string         `gorm:"size:256" json:"moti_id"`
	Role                string         `gorm:"size:32;default:user" json:"role"`
	PasswordHash        string         `json:"-"`
	TempPassword        *string        `json:"-"`
	TempPasswordExpires *time.Time     `json:"-"`
	LastLoginIPA        pq.StringArray `gorm:"type:text[]" json:"last_login_ipa"`
	LastLogin           *time.Time     `json:"last_login"`
	LoginCount          int            `json:"login_count"`
	IsActive            bool           `json:"is_active"`
	Journeys            []Journey      `json:"journeys,omitempty"`
}

// HasTempPassword reports whether a temporary secret is still pending.
func (u *User) HasTempPassword() bool {
	return u.TempPassword != nil && *u.TempPassword != ""
}

// OtpToken is a single-use verification challenge tied to an account.
// Challenges are deleted on successful verification; issuing a new one does
// not remove older unconsumed rows (verification always reads the latest).
type OtpToken struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Code      string    `gorm:"size:6" json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
