package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/quickserve/quickserve-backend/internal/auth"
	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/services"
)

// OnboardingHandler translates HTTP requests into onboarding flow events
type OnboardingHandler struct {
	flows  *services.FlowManager
	tokens *auth.TokenIssuer
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(flows *services.FlowManager, tokens *auth.TokenIssuer) *OnboardingHandler {
	return &OnboardingHandler{flows: flows, tokens: tokens}
}

// Start opens a fresh flow
func (h *OnboardingHandler) Start(c *fiber.Ctx) error {
	id, flow := h.flows.StartFlow()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"flow_id": id,
		"step":    flow.CurrentStep(),
	})
}

// State returns the current step for render polling
func (h *OnboardingHandler) State(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}
	return c.JSON(fiber.Map{
		"step":      flow.CurrentStep(),
		"resend_in": flow.ResendIn(),
	})
}

// ChooseRole handles the role-selection event
func (h *OnboardingHandler) ChooseRole(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}

	var body struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	return h.respond(c, flow.ChooseRole(body.Role))
}

// SubmitPhone handles the phone-submission event
func (h *OnboardingHandler) SubmitPhone(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}

	var body struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	return h.respond(c, flow.SubmitPhone(body.Phone))
}

// SubmitOTP handles the code-submission event
func (h *OnboardingHandler) SubmitOTP(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	return h.respond(c, flow.SubmitOTP(body.Code))
}

// ResendOTP handles the resend event once the cooldown has elapsed
func (h *OnboardingHandler) ResendOTP(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}
	return h.respond(c, flow.ResendOTP())
}

// SubmitAadhaar handles the provider KYC event
func (h *OnboardingHandler) SubmitAadhaar(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}

	var body struct {
		Aadhaar string `json:"aadhaar"`
		Consent bool   `json:"consent"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	return h.respond(c, flow.SubmitAadhaar(c.Context(), body.Aadhaar, body.Consent))
}

// SubmitProfile handles the profile-completion event
func (h *OnboardingHandler) SubmitProfile(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}

	var body struct {
		FullName string   `json:"full_name"`
		Email    string   `json:"email"`
		Services []string `json:"services"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	return h.respond(c, flow.SubmitProfile(body.FullName, body.Email, body.Services))
}

// Cancel resets the flow to role selection
func (h *OnboardingHandler) Cancel(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if flow == nil {
		return err
	}
	return h.respond(c, flow.Cancel())
}

func (h *OnboardingHandler) flow(c *fiber.Ctx) (*services.OnboardingFlow, error) {
	flow, err := h.flows.GetFlow(c.Params("flowID"))
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Onboarding flow not found",
		})
	}
	return flow, nil
}

// respond serializes an outcome; terminal outcomes carry the account and a
// session token.
func (h *OnboardingHandler) respond(c *fiber.Ctx, out services.Outcome) error {
	resp := fiber.Map{
		"step":         out.Step,
		"notification": out.Notification,
	}
	if out.ResendIn > 0 {
		resp["resend_in"] = out.ResendIn
	}
	if out.Account != nil {
		resp["account"] = out.Account
		token, err := h.tokens.Issue(out.Account)
		if err != nil {
			log.Printf("❌ Failed to issue session token: %v", err)
		} else {
			resp["token"] = token
		}
	}
	return c.JSON(resp)
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
