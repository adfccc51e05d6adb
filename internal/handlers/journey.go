package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuthonduG/moti-monolythic/internal/middleware"
	"github.com/MuthonduG/moti-monolythic/internal/models"
	"github.com/MuthonduG/moti-monolythic/internal/utils"
)

// JourneyHandler manages trip record endpoints. All routes are owner-scoped
// through the authenticated account.
type JourneyHandler struct {
	db *gorm.DB
}

// NewJourneyHandler constructs a JourneyHandler.
func NewJourneyHandler(db *gorm.DB) *JourneyHandler {
	return &JourneyHandler{db: db}
}

type startJourneyRequest struct {
	OnboardingLocation  string `json:"onboarding_location"`
	DestinationLocation string `json:"destination_location"`
	LoginMethod         string `json:"login_method"`
}

// StartJourney creates a new active journey for the account.
func (h *JourneyHandler) StartJourney(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req startJourneyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.DestinationLocation == "" {
		return fiber.NewError(fiber.StatusBadRequest, "destination_location is required")
	}

	method := req.LoginMethod
	if method == "" {
		method = models.LoginEmailPassword
	}

	now := time.Now()
	journey := models.Journey{
		UserID:              user.ID,
		Status:              models.JourneyActive,
		OnboardingLocation:  req.OnboardingLocation,
		OnboardingTime:      now,
		DestinationLocation: req.DestinationLocation,
		DestinationTime:     now,
		LastLoginMethod:     method,
	}

	if err := h.db.Create(&journey).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "journey started successfully",
		"journey": journey,
	})
}

// ListJourneys returns the account's journeys, most recent first.
func (h *JourneyHandler) ListJourneys(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Journey{}).Where("user_id = ?", user.ID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var journeys []models.Journey
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&journeys).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"journeys": journeys,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetJourney returns a single journey owned by the account.
func (h *JourneyHandler) GetJourney(c *fiber.Ctx) error {
	journey, err := h.ownJourney(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"journey": journey,
		"duration_hours": journey.DurationHours(),
	})
}

// CompleteJourney marks an active journey completed.
func (h *JourneyHandler) CompleteJourney(c *fiber.Ctx) error {
	return h.setStatus(c, models.JourneyCompleted)
}

// CancelJourney marks a journey cancelled.
func (h *JourneyHandler) CancelJourney(c *fiber.Ctx) error {
	return h.setStatus(c, models.JourneyCancelled)
}

type journeyProgressRequest struct {
	AdditionalDistance float64 `json:"additional_distance"`
	AdditionalDuration int     `json:"additional_duration"`
}

// UpdateProgress accumulates distance and duration on a journey.
func (h *JourneyHandler) UpdateProgress(c *fiber.Ctx) error {
	journey, err := h.ownJourney(c)
	if err != nil {
		return err
	}

	var req journeyProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.AdditionalDistance < 0 || req.AdditionalDuration < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "progress values must be non-negative")
	}

	journey.CumulativeDistance += req.AdditionalDistance
	journey.CumulativeDuration += req.AdditionalDuration
	journey.DestinationTime = time.Now()

	if err := h.db.Save(journey).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "journey progress updated",
		"journey": journey,
	})
}

type breakPointRequest struct {
	Location string `json:"location"`
}

// AddBreakPoint appends a stop to the journey's route list.
func (h *JourneyHandler) AddBreakPoint(c *fiber.Ctx) error {
	journey, err := h.ownJourney(c)
	if err != nil {
		return err
	}

	var req breakPointRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Location == "" {
		return fiber.NewError(fiber.StatusBadRequest, "location is required")
	}

	journey.RouteUsed = append(journey.RouteUsed, req.Location)
	if err := h.db.Save(journey).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "break point added",
		"journey": journey,
	})
}

func (h *JourneyHandler) setStatus(c *fiber.Ctx, status string) error {
	journey, err := h.ownJourney(c)
	if err != nil {
		return err
	}

	journey.Status = status
	journey.DestinationTime = time.Now()
	if err := h.db.Save(journey).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "journey " + status,
		"journey": journey,
	})
}

func (h *JourneyHandler) ownJourney(c *fiber.Ctx) (*models.Journey, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	journeyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid journey id")
	}

	var journey models.Journey
	if err := h.db.First(&journey, "id = ? AND user_id = ?", journeyID, user.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "journey not found")
		}
		return nil, err
	}

	return &journey, nil
}
