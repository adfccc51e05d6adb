package services

import (
	"github.com/google/uuid"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// UserStore is the durable, unique-constrained account storage the core
// depends on. Lookups that match nothing return ErrNotFound; writes that
// violate the email or username unique indexes return ErrConflict.
type UserStore interface {
	Create(user *models.User) error
	Save(user *models.User) error
	ByID(id uuid.UUID) (*models.User, error)
	ByEmail(email string) (*models.User, error)
	ByMotiID(motiID string) (*models.User, error)
	UsernameTaken(username string, excluding uuid.UUID) (bool, error)
	Delete(id uuid.UUID) error
}

// OtpStore persists verification challenges. LatestForUser returns the most
// recently created challenge or ErrNotFound.
type OtpStore interface {
	Create(token *models.OtpToken) error
	LatestForUser(userID uuid.UUID) (*models.OtpToken, error)
	Delete(id uuid.UUID) error
	DeleteForUser(userID uuid.UUID) error
}

// MailKind selects the message template used by the mailer.
type MailKind string

const (
	MailVerification MailKind = "verification"
	MailCredentials  MailKind = "credentials"
	MailDeletion     MailKind = "deletion"
)

// Mailer delivers transactional mail to an account's address. Delivery is
// fire-and-forget beyond the returned error; a failed send must surface,
// since the recipient cannot complete activation without it.
type Mailer interface {
	Send(user *models.User, kind MailKind, payload string) error
}

// Locator resolves a client IP to ordered location tags for the login audit
// trail. Implementations degrade to the bare IP on lookup failure.
type Locator interface {
	Locate(ip string) []string
}
