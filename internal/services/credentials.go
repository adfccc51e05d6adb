package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

const (
	argonSaltLength = 16
	argonKeyLength  = 32
)

// Argon2Params are the tunable Argon2id cost knobs. They come from
// deployment configuration, not code.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// CredentialService owns password hashing and the temporary-password
// bootstrap used during account activation.
type CredentialService struct {
	params  Argon2Params
	tempTTL time.Duration
	now     func() time.Time
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(params Argon2Params, tempTTL time.Duration) *CredentialService {
	return &CredentialService{params: params, tempTTL: tempTTL, now: time.Now}
}

// HashPassword returns a PHC-format Argon2id hash including salt and cost
// parameters, so verification works across parameter changes.
func (s *CredentialService) HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, s.params.Iterations, s.params.Memory, s.params.Parallelism, argonKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.Memory,
		s.params.Iterations,
		s.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against a PHC-format
// Argon2id hash in constant time.
func (s *CredentialService) VerifyPassword(password, encodedHash string) bool {
	parts := splitPHC(encodedHash)
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func splitPHC(encoded string) []string {
	parts := make([]string, 0, 6)
	start := 0
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == '$' {
			parts = append(parts, encoded[start:i])
			start = i + 1
		}
	}
	return append(parts, encoded[start:])
}

// GenerateTempPassword produces a 16-hex-character secret from a
// cryptographically secure source.
func GenerateTempPassword() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// IssueTemporary generates a temporary password for the account, storing it
// in the clear with an expiry and also as the account's password hash so it
// authenticates like a normal password during the activation window. The
// caller persists the account. Returns the plaintext secret.
func (s *CredentialService) IssueTemporary(user *models.User) (string, error) {
	secret, err := GenerateTempPassword()
	if err != nil {
		return "", err
	}

	hash, err := s.HashPassword(secret)
	if err != nil {
		return "", err
	}

	expires := s.now().Add(s.tempTTL)
	user.TempPassword = &secret
	user.TempPasswordExpires = &expires
	user.PasswordHash = hash

	return secret, nil
}

// ConsumeTemporary clears the temporary secret and its expiry together.
func (s *CredentialService) ConsumeTemporary(user *models.User) {
	user.TempPassword = nil
	user.TempPasswordExpires = nil
}

// CheckLogin applies the login policy to a submitted secret.
//
// A submitted secret matching a live temporary password succeeds the check
// but demands a mandatory reset (ErrRequiresReset) instead of a session; a
// matching but expired temporary password fails with ErrExpiredCredential.
// Anything else falls through to ordinary hash verification.
func (s *CredentialService) CheckLogin(user *models.User, password string) error {
	if user.HasTempPassword() && subtle.ConstantTimeCompare([]byte(password), []byte(*user.TempPassword)) == 1 {
		if user.TempPasswordExpires == nil || !s.now().Before(*user.TempPasswordExpires) {
			return ErrExpiredCredential
		}
		return ErrRequiresReset
	}

	if !s.VerifyPassword(password, user.PasswordHash) {
		return ErrCredentialMismatch
	}

	return nil
}
