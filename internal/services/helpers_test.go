package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MuthonduG/moti-monolythic/internal/models"
)

// memUserStore is an in-memory UserStore with the same uniqueness rules the
// database enforces.
type memUserStore struct {
	users map[uuid.UUID]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *memUserStore) Create(user *models.User) error {
	if err := s.checkUnique(user, uuid.Nil); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) Save(user *models.User) error {
	if err := s.checkUnique(user, user.ID); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) checkUnique(user *models.User, excluding uuid.UUID) error {
	for id, existing := range s.users {
		if id == excluding {
			continue
		}
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrConflict
		}
	}
	return nil
}

func (s *memUserStore) ByID(id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, ErrNotFound
}

func (s *memUserStore) ByEmail(email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) ByMotiID(motiID string) (*models.User, error) {
	for _, user := range s.users {
		if user.MotiID == motiID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) UsernameTaken(username string, excluding uuid.UUID) (bool, error) {
	for id, user := range s.users {
		if id != excluding && user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUserStore) Delete(id uuid.UUID) error {
	delete(s.users, id)
	return nil
}

// memOtpStore is an in-memory OtpStore ordered by creation.
type memOtpStore struct {
	tokens []*models.OtpToken
}

func (s *memOtpStore) Create(token *models.OtpToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	clone := *token
	s.tokens = append(s.tokens, &clone)
	return nil
}

func (s *memOtpStore) LatestForUser(userID uuid.UUID) (*models.OtpToken, error) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i].UserID == userID {
			clone := *s.tokens[i]
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memOtpStore) Delete(id uuid.UUID) error {
	kept := s.tokens[:0]
	for _, token := range s.tokens {
		if token.ID != id {
			kept = append(kept, token)
		}
	}
	s.tokens = kept
	return nil
}

func (s *memOtpStore) DeleteForUser(userID uuid.UUID) error {
	kept := s.tokens[:0]
	for _, token := range s.tokens {
		if token.UserID != userID {
			kept = append(kept, token)
		}
	}
	s.tokens = kept
	return nil
}

func (s *memOtpStore) countForUser(userID uuid.UUID) int {
	count := 0
	for _, token := range s.tokens {
		if token.UserID == userID {
			count++
		}
	}
	return count
}

// memMailer records every send and can simulate delivery failure.
type sentMail struct {
	email   string
	kind    MailKind
	payload string
}

type memMailer struct {
	sent []sentMail
	fail bool
}

func (m *memMailer) Send(user *models.User, kind MailKind, payload string) error {
	if m.fail {
		return errors.New("mail api unreachable")
	}
	m.sent = append(m.sent, sentMail{email: user.Email, kind: kind, payload: payload})
	return nil
}

func (m *memMailer) last() sentMail {
	return m.sent[len(m.sent)-1]
}

func (m *memMailer) lastOfKind(kind MailKind) (sentMail, bool) {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

// staticLocator returns fixed location tags.
type staticLocator []string

func (l staticLocator) Locate(ip string) []string {
	return l
}

// testEnv wires the account core against in-memory collaborators with fast
// hashing parameters.
type testEnv struct {
	users    *memUserStore
	otpStore *memOtpStore
	mailer   *memMailer
	creds    *CredentialService
	tokens   *TokenService
	otps     *OtpService
	accounts *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserStore()
	otpStore := &memOtpStore{}
	mailer := &memMailer{}

	creds := NewCredentialService(Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}, 24*time.Hour)
	tokens := NewTokenService("test-signing-secret", 6*time.Hour)
	otps := NewOtpService(otpStore, mailer, time.Hour)
	accounts := NewAccountService(users, otps, creds, tokens, mailer, staticLocator{"41.90.1.1", "Nairobi", "Kenya"})

	return &testEnv{
		users:    users,
		otpStore: otpStore,
		mailer:   mailer,
		creds:    creds,
		tokens:   tokens,
		otps:     otps,
		accounts: accounts,
	}
}
