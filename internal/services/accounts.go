package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// AccountService orchestrates the account lifecycle: registration,
// activation, login, credential reset, and OTP-gated deletion. Derived
// fields are recomputed explicitly before each persist rather than through
// storage hooks, so every state transition is visible at the call site.
type AccountService struct {
	users  UserStore
	otps   *OtpService
	creds  *CredentialService
	tokens *TokenService
	mailer Mailer
	geo    Locator
	now    func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(users UserStore, otps *OtpService, creds *CredentialService, tokens *TokenService, mailer Mailer, geo Locator) *AccountService {
	return &AccountService{
		users:  users,
		otps:   otps,
		creds:  creds,
		tokens: tokens,
		mailer: mailer,
		geo:    geo,
		now:    time.Now,
	}
}

// Register creates a new account with a derived username, a temporary
// password, and (for ordinary roles) a pending verification challenge sent
// by mail. Admin-level accounts are active immediately and receive no OTP.
// A failed OTP delivery surfaces as ErrDelivery with the account created.
func (s *AccountService) Register(email, role string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if _, err := s.users.ByEmail(email); err == nil {
		return nil, fmt.Errorf("%w: email is linked to an existing account", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Role:     role,
		IsActive: models.AdminRole(role),
	}

	if _, err := s.creds.IssueTemporary(user); err != nil {
		return nil, err
	}

	taken := func(candidate string) (bool, error) {
		return s.users.UsernameTaken(candidate, user.ID)
	}

	// Username before the first persist; moti id after, once the internal
	// key exists.
	if err := Normalize(user, false, taken); err != nil {
		return nil, err
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	if err := Normalize(user, false, taken); err != nil {
		return nil, err
	}
	if err := s.users.Save(user); err != nil {
		return nil, err
	}

	if !models.AdminRole(role) {
		if _, err := s.otps.Issue(user, MailVerification); err != nil {
			return user, err
		}
	}

	return user, nil
}

// VerifyEmail consumes the account's pending challenge, flips it active,
// and delivers the temporary password before clearing the
// temporary-delivery state in a single persisted update.
func (s *AccountService) VerifyEmail(email, code string) (*models.User, error) {
	user, err := s.users.ByEmail(NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if err := s.otps.Verify(user, code); err != nil {
		return nil, err
	}

	user.IsActive = true
	if user.HasTempPassword() {
		if err := s.mailer.Send(user, MailCredentials, *user.TempPassword); err != nil {
			log.Printf("[Accounts] Failed to send credentials to %s: %v", user.Email, err)
		}
	}
	s.creds.ConsumeTemporary(user)

	return user, s.users.Save(user)
}

// ResendOtp invalidates every outstanding challenge and issues a fresh one.
func (s *AccountService) ResendOtp(email string) error {
	user, err := s.users.ByEmail(NormalizeEmail(email))
	if err != nil {
		return err
	}

	_, err = s.otps.Resend(user, MailVerification)
	return err
}

// Login verifies the submitted secret and issues a session token. Unknown
// accounts and wrong passwords both fail with ErrCredentialMismatch so the
// login path does not leak which accounts exist.
func (s *AccountService) Login(email, password, ip string) (*models.User, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.ByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrCredentialMismatch
		}
		return nil, "", err
	}

	if err := s.creds.CheckLogin(user, password); err != nil {
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", ErrInactiveAccount
	}

	var tags []string
	if s.geo != nil {
		tags = s.geo.Locate(ip)
	}
	user.LastLoginIPA = prependLocations(tags, user.LastLoginIPA)
	user.LoginCount++
	loggedIn := s.now()
	user.LastLogin = &loggedIn

	if err := s.users.Save(user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.MotiID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// SetPassword exchanges a live temporary password for a permanent one,
// consuming the temporary pair and the new hash in one persisted update.
func (s *AccountService) SetPassword(email, tempPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	user, err := s.users.ByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrCredentialMismatch
		}
		return err
	}

	if !user.HasTempPassword() || subtle.ConstantTimeCompare([]byte(tempPassword), []byte(*user.TempPassword)) != 1 {
		return ErrCredentialMismatch
	}
	if user.TempPasswordExpires == nil || !s.now().Before(*user.TempPasswordExpires) {
		return ErrExpiredCredential
	}

	hash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	s.creds.ConsumeTemporary(user)

	return s.users.Save(user)
}

// RequestDeletion issues a deletion-confirmation challenge for the account.
// No destructive action happens until the code comes back verified.
func (s *AccountService) RequestDeletion(user *models.User) error {
	_, err := s.otps.Issue(user, MailDeletion)
	return err
}

// ConfirmDeletion verifies the deletion challenge and removes the account
// together with its remaining challenges.
func (s *AccountService) ConfirmDeletion(user *models.User, code string) error {
	if err := s.otps.Verify(user, code); err != nil {
		return err
	}

	if err := s.otps.Purge(user); err != nil {
		return err
	}

	return s.users.Delete(user.ID)
}

// Authenticate is the request-time gate: it splits the raw Authorization
// header into scheme and token, verifies the token, and resolves its
// subject to a live account. Header absence is the caller's concern;
// anonymous access is a capability decision made per endpoint.
func (s *AccountService) Authenticate(header string) (*models.User, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrInvalidScheme
	}

	claims, err := s.tokens.Verify(parts[1])
	if err != nil {
		return nil, err
	}

	user, err := s.users.ByMotiID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}

	return user, nil
}

// prependLocations puts the newest tags first and caps the list.
func prependLocations(tags, existing []string) []string {
	merged := append(append([]string{}, tags...), existing...)
	if len(merged) > models.MaxLoginLocations {
		merged = merged[:models.MaxLoginLocations]
	}
	return merged
}
