package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Journey statuses.
const (
	JourneyActive    = "active"
	JourneyCompleted = "completed"
	JourneyCancelled = "cancelled"
	JourneyPaused    = "paused"
)

// Login methods recorded against a journey.
const (
	LoginEmailPassword = "email_password"
	LoginGoogleOAuth   = "google_oauth"
)

// Journey is a single trip record owned by an account.
type Journey struct {
	BaseModel
	UserID              uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User                *User          `json:"-"`
	Status              string         `gorm:"size:20;index;default:active" json:"status"`
	OnboardingLocation  string         `gorm:"size:255" json:"onboarding_location"`
	OnboardingTime      time.Time      `json:"onboarding_time"`
	DestinationLocation string         `gorm:"size:255" json:"destination_location"`
	DestinationTime     time.Time      `json:"destination_time"`
	CumulativeDistance  float64        `json:"cumulative_distance"`
	CumulativeDuration  int            `json:"cumulative_duration"` // minutes
	RouteUsed           pq.StringArray `gorm:"type:text[]" json:"route_used"`
	LastLoginMethod     string         `gorm:"size:20;default:email_password" json:"last_login_method"`
}

// DurationHours converts the cumulative duration to hours for display.
func (j *Journey) DurationHours() float64 {
	if j.CumulativeDuration == 0 {
		return 0
	}
	return float64(j.CumulativeDuration) / 60
}
