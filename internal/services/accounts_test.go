package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates an inactive account with derived identity", func(t *testing.T) {
		env := newTestEnv(t)

		user, err := env.accounts.Register("A@Gmail.com ", "")
		require.NoError(t, err)

		require.Equal(t, "a@gmail.com", user.Email)
		require.Equal(t, "a", user.Username)
		require.Equal(t, models.RoleUser, user.Role)
		require.False(t, user.IsActive)
		require.Equal(t, DeriveMotiID(user.ID.String(), user.Email), user.MotiID)

		require.NotNil(t, user.TempPassword)
		require.Len(t, *user.TempPassword, 16)
		require.NotNil(t, user.TempPasswordExpires)

		mail, ok := env.mailer.lastOfKind(MailVerification)
		require.True(t, ok)
		require.Equal(t, "a@gmail.com", mail.email)
		require.Len(t, mail.payload, 6)

		stored, err := env.users.ByEmail("a@gmail.com")
		require.NoError(t, err)
		require.Equal(t, user.MotiID, stored.MotiID)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.accounts.Register("a@gmail.com", "")
		require.NoError(t, err)

		_, err = env.accounts.Register("a@gmail.com", "")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects a missing email and an unknown role", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.accounts.Register("   ", "")
		require.ErrorIs(t, err, ErrValidation)

		_, err = env.accounts.Register("r@gmail.com", "owner")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("admin accounts are active on creation and get no otp", func(t *testing.T) {
		env := newTestEnv(t)

		user, err := env.accounts.Register("boss@gmail.com", models.RoleAdmin)
		require.NoError(t, err)
		require.True(t, user.IsActive)
		require.Empty(t, env.mailer.sent)
		require.Equal(t, 0, env.otpStore.countForUser(user.ID))
	})

	t.Run("colliding local parts get numeric suffixes", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.accounts.Register("moti@gmail.com", "")
		require.NoError(t, err)
		second, err := env.accounts.Register("moti@yahoo.com", "")
		require.NoError(t, err)

		require.Equal(t, "moti", first.Username)
		require.Equal(t, "moti1", second.Username)
	})

	t.Run("delivery failure surfaces with the account created", func(t *testing.T) {
		env := newTestEnv(t)
		env.mailer.fail = true

		_, err := env.accounts.Register("a@gmail.com", "")
		require.ErrorIs(t, err, ErrDelivery)

		_, err = env.users.ByEmail("a@gmail.com")
		require.NoError(t, err)
	})
}

// Registration through activation: the account flips active, the temporary
// password is delivered and cleared, and the challenge is consumed.
func TestActivationFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	user, err := env.accounts.Register("a@gmail.com", "")
	require.NoError(t, err)
	tempSecret := *user.TempPassword

	otpMail, ok := env.mailer.lastOfKind(MailVerification)
	require.True(t, ok)

	activated, err := env.accounts.VerifyEmail("a@gmail.com", otpMail.payload)
	require.NoError(t, err)
	require.True(t, activated.IsActive)
	require.Nil(t, activated.TempPassword)
	require.Nil(t, activated.TempPasswordExpires)

	credMail, ok := env.mailer.lastOfKind(MailCredentials)
	require.True(t, ok)
	require.Equal(t, tempSecret, credMail.payload)

	require.Equal(t, 0, env.otpStore.countForUser(user.ID))

	// Replaying the code fails: the challenge was consumed.
	_, err = env.accounts.VerifyEmail("a@gmail.com", otpMail.payload)
	require.ErrorIs(t, err, ErrOtpNotFound)
}

// Login with a live temporary secret signals a mandatory reset and never
// issues a session token.
func TestLoginWithTemporaryPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	user, err := env.accounts.Register("a@gmail.com", "")
	require.NoError(t, err)

	_, token, err := env.accounts.Login("a@gmail.com", *user.TempPassword, "127.0.0.1")
	require.ErrorIs(t, err, ErrRequiresReset)
	require.Empty(t, token)
}

func TestLoginWithExpiredTemporaryPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	user, err := env.accounts.Register("a@gmail.com", "")
	require.NoError(t, err)

	env.creds.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, token, err := env.accounts.Login("a@gmail.com", *user.TempPassword, "127.0.0.1")
	require.ErrorIs(t, err, ErrExpiredCredential)
	require.Empty(t, token)
}

// A successful login returns a session token whose claims carry the
// account's public identifier and a six-hour expiry.
func TestLoginIssuesSessionToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := activateAccount(t, env, "a@gmail.com")
	password := verifiedPassword(t, env)

	loggedIn, token, err := env.accounts.Login("a@gmail.com", password, "41.90.1.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.MotiID, claims.UserID)
	require.Equal(t, "a@gmail.com", claims.Email)
	require.WithinDuration(t, time.Now().Add(6*time.Hour), claims.ExpiresAt.Time, time.Minute)

	require.Equal(t, 1, loggedIn.LoginCount)
	require.NotNil(t, loggedIn.LastLogin)
	require.Equal(t, []string{"41.90.1.1", "Nairobi", "Kenya"}, []string(loggedIn.LastLoginIPA))
}

func TestLoginLocationTagsAreCapped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	activateAccount(t, env, "a@gmail.com")
	password := verifiedPassword(t, env)

	var last *models.User
	for i := 0; i < 5; i++ {
		user, _, err := env.accounts.Login("a@gmail.com", password, "41.90.1.1")
		require.NoError(t, err)
		last = user
	}

	require.Len(t, last.LastLoginIPA, models.MaxLoginLocations)
	require.Equal(t, 5, last.LoginCount)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	activateAccount(t, env, "a@gmail.com")
	password := verifiedPassword(t, env)

	t.Run("unknown account and wrong password look identical", func(t *testing.T) {
		_, _, unknownErr := env.accounts.Login("ghost@gmail.com", "whatever", "")
		_, _, wrongErr := env.accounts.Login("a@gmail.com", "wrong password", "")
		require.ErrorIs(t, unknownErr, ErrCredentialMismatch)
		require.ErrorIs(t, wrongErr, ErrCredentialMismatch)
	})

	t.Run("missing fields are invalid", func(t *testing.T) {
		_, _, err := env.accounts.Login("", password, "")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("inactive account cannot log in", func(t *testing.T) {
		_, err := env.accounts.Register("b@gmail.com", "")
		require.NoError(t, err)
		require.NoError(t, env.accounts.SetPassword("b@gmail.com", tempSecretFor(t, env, "b@gmail.com"), "permanent-pass"))

		_, _, err = env.accounts.Login("b@gmail.com", "permanent-pass", "")
		require.ErrorIs(t, err, ErrInactiveAccount)
	})
}

func TestSetPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.accounts.Register("a@gmail.com", "")
	require.NoError(t, err)
	temp := tempSecretFor(t, env, "a@gmail.com")

	t.Run("rejects a short password", func(t *testing.T) {
		require.ErrorIs(t, env.accounts.SetPassword("a@gmail.com", temp, "tiny"), ErrValidation)
	})

	t.Run("rejects a wrong temporary secret", func(t *testing.T) {
		require.ErrorIs(t, env.accounts.SetPassword("a@gmail.com", "0000000000000000", "permanent-pass"), ErrCredentialMismatch)
	})

	t.Run("exchanges the temporary secret in one update", func(t *testing.T) {
		require.NoError(t, env.accounts.SetPassword("a@gmail.com", temp, "permanent-pass"))

		user, err := env.users.ByEmail("a@gmail.com")
		require.NoError(t, err)
		require.Nil(t, user.TempPassword)
		require.Nil(t, user.TempPasswordExpires)
		require.NoError(t, env.creds.CheckLogin(user, "permanent-pass"))
		require.ErrorIs(t, env.creds.CheckLogin(user, temp), ErrCredentialMismatch)
	})
}

// Deletion is OTP-gated: the first call only issues a challenge; the second
// call with the correct code removes the account and its challenges.
func TestDeletionFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := activateAccount(t, env, "a@gmail.com")

	require.NoError(t, env.accounts.RequestDeletion(user))

	mail, ok := env.mailer.lastOfKind(MailDeletion)
	require.True(t, ok)

	// The account is untouched until the code comes back.
	_, err := env.users.ByEmail("a@gmail.com")
	require.NoError(t, err)

	require.NoError(t, env.accounts.ConfirmDeletion(user, mail.payload))

	_, err = env.users.ByEmail("a@gmail.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, env.otpStore.countForUser(user.ID))
}

func TestDeletionRejectsBadCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := activateAccount(t, env, "a@gmail.com")

	require.NoError(t, env.accounts.RequestDeletion(user))
	require.ErrorIs(t, env.accounts.ConfirmDeletion(user, "ZZZZZZ"), ErrOtpMismatch)

	_, err := env.users.ByEmail("a@gmail.com")
	require.NoError(t, err)
}

func TestResendOtp(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	user, err := env.accounts.Register("a@gmail.com", "")
	require.NoError(t, err)

	require.NoError(t, env.accounts.ResendOtp("a@gmail.com"))
	require.NoError(t, env.accounts.ResendOtp("a@gmail.com"))
	require.Equal(t, 1, env.otpStore.countForUser(user.ID))

	require.ErrorIs(t, env.accounts.ResendOtp("ghost@gmail.com"), ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := activateAccount(t, env, "a@gmail.com")
	password := verifiedPassword(t, env)

	_, token, err := env.accounts.Login("a@gmail.com", password, "")
	require.NoError(t, err)

	t.Run("resolves a bearer token to the account", func(t *testing.T) {
		resolved, err := env.accounts.Authenticate("Bearer " + token)
		require.NoError(t, err)
		require.Equal(t, user.ID, resolved.ID)

		// Scheme comparison is case-insensitive.
		_, err = env.accounts.Authenticate("bearer " + token)
		require.NoError(t, err)
	})

	t.Run("rejects a non-bearer scheme", func(t *testing.T) {
		_, err := env.accounts.Authenticate("Token " + token)
		require.ErrorIs(t, err, ErrInvalidScheme)

		_, err = env.accounts.Authenticate(token)
		require.ErrorIs(t, err, ErrInvalidScheme)
	})

	t.Run("rejects a malformed token", func(t *testing.T) {
		_, err := env.accounts.Authenticate("Bearer not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects an unknown subject", func(t *testing.T) {
		orphan, err := env.tokens.Issue("f4a7b2", "ghost@gmail.com")
		require.NoError(t, err)

		_, err = env.accounts.Authenticate("Bearer " + orphan)
		require.ErrorIs(t, err, ErrUnknownSubject)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		env.tokens.now = func() time.Time { return time.Now().Add(7 * time.Hour) }
		defer func() { env.tokens.now = time.Now }()

		_, err := env.accounts.Authenticate("Bearer " + token)
		require.ErrorIs(t, err, ErrExpiredToken)
	})
}

// activateAccount registers and verifies an account, returning its stored
// state after activation.
func activateAccount(t *testing.T, env *testEnv, email string) *models.User {
	t.Helper()

	_, err := env.accounts.Register(email, "")
	require.NoError(t, err)

	mail, ok := env.mailer.lastOfKind(MailVerification)
	require.True(t, ok)

	user, err := env.accounts.VerifyEmail(email, mail.payload)
	require.NoError(t, err)
	return user
}

// verifiedPassword returns the password delivered by the most recent
// credentials mail. After activation it authenticates like any permanent
// password.
func verifiedPassword(t *testing.T, env *testEnv) string {
	t.Helper()

	mail, ok := env.mailer.lastOfKind(MailCredentials)
	require.True(t, ok)
	return mail.payload
}

// tempSecretFor reads the stored temporary secret for an account that has
// not yet activated.
func tempSecretFor(t *testing.T, env *testEnv, email string) string {
	t.Helper()

	user, err := env.users.ByEmail(email)
	require.NoError(t, err)
	require.NotNil(t, user.TempPassword)
	return *user.TempPassword
}
