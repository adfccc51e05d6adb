package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MuthonduG/moti-monolythic/internal/config"
	"github.com/MuthonduG/moti-monolythic/internal/database"
	"github.com/MuthonduG/moti-monolythic/internal/handlers"
	"github.com/MuthonduG/moti-monolythic/internal/middleware"
	"github.com/MuthonduG/moti-monolythic/internal/models"
	"github.com/MuthonduG/moti-monolythic/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	userStore := database.NewUserStore(db)
	otpStore := database.NewOtpStore(db)

	mailer := services.NewEmailService(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailSender)
	geo := services.NewGeoService()

	creds := services.NewCredentialService(services.Argon2Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	}, cfg.TempPasswordTTL)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenExpires)
	otps := services.NewOtpService(otpStore, mailer, cfg.OtpTTL)
	accounts := services.NewAccountService(userStore, otps, creds, tokens, mailer, geo)

	authHandler := handlers.NewAuthHandler(accounts)
	userHandler := handlers.NewUserHandler(db)
	journeyHandler := handlers.NewJourneyHandler(db)

	api := app.Group("/api", middleware.Authenticate(accounts))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/resend-otp", authHandler.ResendOtp)
	auth.Post("/set-password", authHandler.SetPassword)
	auth.Delete("/account", middleware.RequireAuth(), authHandler.DeleteAccount)

	// Account routes
	users := api.Group("/users")
	users.Get("/me", middleware.RequireAuth(), userHandler.GetMe)
	users.Get("/", middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin), userHandler.ListUsers)

	// Journey routes
	journeys := api.Group("/journeys", middleware.RequireAuth())
	journeys.Post("/start", journeyHandler.StartJourney)
	journeys.Get("/", journeyHandler.ListJourneys)
	journeys.Get("/:id", journeyHandler.GetJourney)
	journeys.Post("/:id/complete", journeyHandler.CompleteJourney)
	journeys.Post("/:id/cancel", journeyHandler.CancelJourney)
	journeys.Post("/:id/progress", journeyHandler.UpdateProgress)
	journeys.Post("/:id/break-points", journeyHandler.AddBreakPoint)
}
