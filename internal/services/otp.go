package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// OtpService runs the one-time-passcode lifecycle: short-lived challenges
// created on demand, delivered by mail, and consumed exactly once.
type OtpService struct {
	store  OtpStore
	mailer Mailer
	ttl    time.Duration
	now    func() time.Time
}

// NewOtpService constructs an OtpService.
func NewOtpService(store OtpStore, mailer Mailer, ttl time.Duration) *OtpService {
	return &OtpService{store: store, mailer: mailer, ttl: ttl, now: time.Now}
}

// GenerateOtpCode produces a 6-character uppercase hex code from a
// cryptographically secure source.
func GenerateOtpCode() (string, error) {
	raw := make([]byte, 3)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Issue creates a new challenge for the account and hands it to the mailer.
// Older unconsumed challenges are left in place; verification only ever
// reads the latest one. A failed send surfaces as ErrDelivery with the
// challenge already stored.
func (s *OtpService) Issue(user *models.User, kind MailKind) (*models.OtpToken, error) {
	code, err := GenerateOtpCode()
	if err != nil {
		return nil, err
	}

	token := &models.OtpToken{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.Create(token); err != nil {
		return nil, err
	}

	if err := s.mailer.Send(user, kind, code); err != nil {
		return token, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return token, nil
}

// Verify checks a submitted code against the account's most recent
// challenge. The comparison is case-insensitive. On success the challenge
// is deleted, so a second verification of the same code fails with
// ErrOtpNotFound.
func (s *OtpService) Verify(user *models.User, submitted string) error {
	token, err := s.store.LatestForUser(user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrOtpNotFound
		}
		return err
	}

	if !s.now().Before(token.ExpiresAt) {
		return ErrOtpExpired
	}

	if !strings.EqualFold(token.Code, strings.TrimSpace(submitted)) {
		return ErrOtpMismatch
	}

	return s.store.Delete(token.ID)
}

// Resend deletes every outstanding challenge for the account, then issues a
// fresh one. Only the new code verifies afterwards.
func (s *OtpService) Resend(user *models.User, kind MailKind) (*models.OtpToken, error) {
	if err := s.store.DeleteForUser(user.ID); err != nil {
		return nil, err
	}
	return s.Issue(user, kind)
}

// Purge removes all outstanding challenges for the account.
func (s *OtpService) Purge(user *models.User) error {
	return s.store.DeleteForUser(user.ID)
}
