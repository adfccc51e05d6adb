package services

import "errors"

// Sentinel errors returned by the account core. Handlers translate these to
// HTTP responses at the endpoint boundary; none are fatal.
var (
	ErrValidation = errors.New("invalid input")
	ErrConflict   = errors.New("already exists")
	ErrNotFound   = errors.New("not found")

	// Token / gate errors.
	ErrInvalidScheme  = errors.New("invalid authorization scheme")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrMissingExpiry  = errors.New("token has no expiration")
	ErrUnknownSubject = errors.New("token subject does not match any account")

	// Credential errors.
	ErrCredentialMismatch = errors.New("invalid credentials")
	ErrExpiredCredential  = errors.New("temporary password has expired")
	ErrRequiresReset      = errors.New("a new password must be set")
	ErrInactiveAccount    = errors.New("account is inactive")

	// OTP errors.
	ErrOtpNotFound = errors.New("no otp found")
	ErrOtpExpired  = errors.New("otp has expired")
	ErrOtpMismatch = errors.New("otp does not match")

	// Collaborator errors.
	ErrDelivery = errors.New("mail delivery failed")
)
