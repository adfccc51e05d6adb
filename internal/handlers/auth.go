package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/MuthonduG/moti-monolythic/internal/middleware"
	"github.com/MuthonduG/moti-monolythic/internal/models"
	"github.com/MuthonduG/moti-monolythic/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Register creates a new account and sends the activation OTP by email.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.accounts.Register(req.Email, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrDelivery) {
			log.Printf("[Auth] Failed to send OTP to %s: %v", req.Email, err)
		}
		return httpError(err)
	}

	log.Printf("[Auth] OTP sent to new user %s", user.Email)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user registered successfully, check your email for the OTP",
		"user":    userView(user),
	})
}

type verifyEmailRequest struct {
	Email   string `json:"email"`
	OtpCode string `json:"otp_code"`
}

// VerifyEmail activates an account with a valid OTP code and delivers the
// temporary password by email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.OtpCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and otp code are required")
	}

	if _, err := h.accounts.VerifyEmail(req.Email, req.OtpCode); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "account activated successfully, password sent via email",
	})
}

type resendOtpRequest struct {
	Email string `json:"email"`
}

// ResendOtp invalidates outstanding OTP codes and sends a fresh one.
func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var req resendOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	if err := h.accounts.ResendOtp(req.Email); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "a new otp has been sent to your email",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and returns a session token. A live
// temporary password yields 403 with requires_new_password instead of a
// session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, token, err := h.accounts.Login(req.Email, req.Password, c.IP())
	if err != nil {
		if errors.Is(err, services.ErrRequiresReset) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success":               false,
				"error":                 "please set a new password",
				"requires_new_password": true,
			})
		}
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"user":    userView(user),
		"token":   token,
	})
}

type setPasswordRequest struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
	NewPassword  string `json:"new_password"`
}

// SetPassword exchanges a temporary password for a permanent one.
func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var req setPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.TempPassword == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email, temp_password and new_password are required")
	}

	if err := h.accounts.SetPassword(req.Email, req.TempPassword, req.NewPassword); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated successfully",
	})
}

type deleteAccountRequest struct {
	OtpCode string `json:"otp_code"`
}

// DeleteAccount removes the authenticated account. Without a code a fresh
// confirmation OTP is issued and nothing is deleted; with a valid code the
// account and its challenges are removed.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req deleteAccountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	if req.OtpCode == "" {
		if err := h.accounts.RequestDeletion(user); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "otp sent, confirm with the code to delete the account",
		})
	}

	if err := h.accounts.ConfirmDeletion(user, req.OtpCode); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "account " + user.Email + " successfully deleted",
	})
}

// userView is the account shape exposed to clients; secrets never leave.
func userView(user *models.User) fiber.Map {
	return fiber.Map{
		"id":             user.ID,
		"email":          user.Email,
		"username":       user.Username,
		"moti_id":        user.MotiID,
		"role":           user.Role,
		"is_active":      user.IsActive,
		"last_login_ipa": user.LastLoginIPA,
		"login_count":    user.LoginCount,
		"created_at":     user.CreatedAt,
	}
}
