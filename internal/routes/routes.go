package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickserve/quickserve-backend/internal/auth"
	"github.com/quickserve/quickserve-backend/internal/handlers"
	"github.com/quickserve/quickserve-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, flows *services.FlowManager, directory *services.UserDirectory, tokens *auth.TokenIssuer) {
	onboarding := handlers.NewOnboardingHandler(flows, tokens)
	account := handlers.NewAccountHandler(directory)
	health := handlers.NewHealthHandler("1.0.0", flows)

	app.Get("/health", health.Check)

	api := app.Group("/api")

	// Onboarding flow events
	flow := api.Group("/onboarding")
	flow.Post("/start", onboarding.Start)
	flow.Get("/:flowID", onboarding.State)
	flow.Post("/:flowID/role", onboarding.ChooseRole)
	flow.Post("/:flowID/phone", onboarding.SubmitPhone)
	flow.Post("/:flowID/otp", onboarding.SubmitOTP)
	flow.Post("/:flowID/otp/resend", onboarding.ResendOTP)
	flow.Post("/:flowID/aadhaar", onboarding.SubmitAadhaar)
	flow.Post("/:flowID/profile", onboarding.SubmitProfile)
	flow.Post("/:flowID/cancel", onboarding.Cancel)

	// Authenticated surface
	me := api.Group("/me", auth.RequireToken(tokens))
	me.Get("/", account.Me)

	api.Post("/logout", auth.RequireToken(tokens), account.Logout)
}
