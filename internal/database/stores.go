package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuthonduG/moti-monolythic/internal/models"
	"github.com/MuthonduG/moti-monolythic/internal/services"
)

// UserStore is the GORM-backed implementation of services.UserStore. The
// unique indexes on email and username are the final arbiter for races the
// advisory application-level checks miss.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(user *models.User) error {
	return translate(s.db.Create(user).Error)
}

func (s *UserStore) Save(user *models.User) error {
	return translate(s.db.Save(user).Error)
}

func (s *UserStore) ByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) ByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) ByMotiID(motiID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "moti_id = ?", motiID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) UsernameTaken(username string, excluding uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excluding).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *UserStore) Delete(id uuid.UUID) error {
	return translate(s.db.Delete(&models.User{}, "id = ?", id).Error)
}

// OtpStore is the GORM-backed implementation of services.OtpStore.
type OtpStore struct {
	db *gorm.DB
}

// NewOtpStore constructs an OtpStore.
func NewOtpStore(db *gorm.DB) *OtpStore {
	return &OtpStore{db: db}
}

func (s *OtpStore) Create(token *models.OtpToken) error {
	return translate(s.db.Create(token).Error)
}

func (s *OtpStore) LatestForUser(userID uuid.UUID) (*models.OtpToken, error) {
	var token models.OtpToken
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").
		First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (s *OtpStore) Delete(id uuid.UUID) error {
	return translate(s.db.Delete(&models.OtpToken{}, "id = ?", id).Error)
}

func (s *OtpStore) DeleteForUser(userID uuid.UUID) error {
	return translate(s.db.Delete(&models.OtpToken{}, "user_id = ?", userID).Error)
}

// translate maps GORM errors onto the service-level sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return services.ErrConflict
	default:
		return err
	}
}
