package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// maxMotiIDLength bounds the derived public identifier.
const maxMotiIDLength = 256

// NormalizeEmail lowercases and trims an email address so uniqueness checks
// and moti-id derivation see a canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveMotiID computes the public identifier for an account: a SHA-256
// digest of "<internal key>:<email>" rendered as hex, then run-length
// compressed so identical adjacent digits collapse to <digit><count>.
// Deterministic and non-reversible; collisions are accepted (the field is
// not a storage key).
func DeriveMotiID(internalKey, email string) string {
	sum := sha256.Sum256([]byte(internalKey + ":" + email))
	compressed := compressRuns(hex.EncodeToString(sum[:]))
	if len(compressed) > maxMotiIDLength {
		compressed = compressed[:maxMotiIDLength]
	}
	return compressed
}

func compressRuns(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			continue
		}
		b.WriteByte(s[i-1])
		b.WriteString(strconv.Itoa(run))
		run = 1
	}
	b.WriteByte(s[len(s)-1])
	b.WriteString(strconv.Itoa(run))

	return b.String()
}

// AllocateUsername derives a handle from the email local-part, probing
// base, base1, base2, ... until a free candidate is found. The check is
// advisory; the unique index on the username column is the arbiter under
// concurrent allocation, and a losing racer retries or surfaces a conflict.
func AllocateUsername(email string, taken func(candidate string) (bool, error)) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at >= 0 {
		base = email[:at]
	}
	if base == "" {
		return "", fmt.Errorf("%w: email has no local part", ErrValidation)
	}

	candidate := base
	for counter := 1; ; counter++ {
		inUse, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(counter)
	}
}

// Normalize recomputes derived identity fields ahead of a persist. The
// username is assigned whenever it is unset or the email changed; the moti
// id additionally waits until the internal key exists, since it is derived
// from it. Callers persist the result explicitly.
func Normalize(user *models.User, emailChanged bool, taken func(candidate string) (bool, error)) error {
	if user.Username == "" || emailChanged {
		username, err := AllocateUsername(user.Email, taken)
		if err != nil {
			return err
		}
		user.Username = username
	}

	if user.ID != uuid.Nil && (user.MotiID == "" || emailChanged) {
		user.MotiID = DeriveMotiID(user.ID.String(), user.Email)
	}

	return nil
}
