package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/validation"
	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

// Step is the current position in the onboarding flow.
type Step string

const (
	StepRoleSelection   Step = "role_selection"
	StepPhoneInput      Step = "phone_input"
	StepOtpVerification Step = "otp_verification"
	StepAadhaarKyc      Step = "aadhaar_kyc"
	StepProfileSetup    Step = "profile_setup"
	// StepComplete ends a registration; StepLoggedIn ends a resumed login.
	// Both are terminal.
	StepComplete Step = "complete"
	StepLoggedIn Step = "logged_in"
)

// NotificationKind classifies a user-facing outcome message.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is what the presentation layer renders after an event.
// Retryable marks the two failure kinds where offering a manual retry makes
// sense (SMS transport and registry outages); nothing is retried silently.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable,omitempty"`
}

// Outcome is the result of delivering one event to the flow.
type Outcome struct {
	Step         Step            `json:"step"`
	Notification Notification    `json:"notification"`
	Account      *models.Account `json:"account,omitempty"` // set on terminal steps
	ResendIn     int             `json:"resend_in,omitempty"`
}

// OnboardingFlow is the per-client verification state machine. It holds the
// current step, the selected role and in-flight form data, and drives
// transitions by calling the OTP, KYC and directory services. All failures
// are absorbed into the returned Outcome; the step only moves forward, and
// only Cancel moves it back (to the start).
type OnboardingFlow struct {
	otp       *OTPService
	kyc       *KYCService
	directory *UserDirectory

	mu        sync.Mutex
	step      Step
	role      models.Role
	phone     string
	busy      bool
	countdown *ResendCountdown
	resendIn  int
	lastEvent time.Time
}

// NewOnboardingFlow starts a fresh flow at role selection
func NewOnboardingFlow(otp *OTPService, kyc *KYCService, directory *UserDirectory) *OnboardingFlow {
	return &OnboardingFlow{
		otp:       otp,
		kyc:       kyc,
		directory: directory,
		step:      StepRoleSelection,
		lastEvent: time.Now(),
	}
}

// CurrentStep returns the step the flow is waiting on.
func (f *OnboardingFlow) CurrentStep() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// ResendIn returns the seconds left on the resend cooldown countdown.
func (f *OnboardingFlow) ResendIn() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resendIn
}

// ChooseRole handles the role-selection event.
func (f *OnboardingFlow) ChooseRole(role models.Role) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepRoleSelection {
		return f.wrongStep()
	}
	if !role.Valid() {
		return f.notify(NotifyError, "Please choose Customer or Provider")
	}

	f.role = role
	f.step = StepPhoneInput
	return f.notify(NotifyInfo, "Enter your mobile number to continue")
}

// SubmitPhone validates the number and requests an OTP. The sanitized
// digits-only form is what the flow keeps.
func (f *OnboardingFlow) SubmitPhone(raw string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepPhoneInput {
		return f.wrongStep()
	}
	if !validation.IsValidPhoneNumber(raw) {
		return f.notify(NotifyError, "Please enter a valid phone number")
	}

	phone := validation.SanitizePhone(raw)
	if _, err := f.otp.RequestCode(phone); err != nil {
		return f.otpRequestFailed(err)
	}

	f.phone = phone
	f.step = StepOtpVerification
	f.startCountdownLocked()
	out := f.notify(NotifySuccess, "OTP sent successfully")
	out.ResendIn = f.resendIn
	return out
}

// ResendOTP requests a fresh code for the already-submitted number. Refused
// by the OTP service until the 30-second cooldown has run out.
func (f *OnboardingFlow) ResendOTP() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.step != StepOtpVerification {
		return f.wrongStep()
	}

	if _, err := f.otp.RequestCode(f.phone); err != nil {
		return f.otpRequestFailed(err)
	}

	f.startCountdownLocked()
	out := f.notify(NotifySuccess, "OTP sent successfully")
	out.ResendIn = f.resendIn
	return out
}

// SubmitOTP verifies the code. On success the phone number is looked up:
// an existing account logs straight in, a new provider goes to Aadhaar KYC,
// a new customer to profile setup. Lookup happens only after OTP success so
// the directory cannot be used to probe registered numbers.
func (f *OnboardingFlow) SubmitOTP(code string) Outcome {
	f.mu.Lock()
	if f.step != StepOtpVerification {
		defer f.mu.Unlock()
		return f.wrongStep()
	}
	if f.busy {
		defer f.mu.Unlock()
		return f.inFlight()
	}
	f.busy = true
	f.touch()
	phone := f.phone
	f.mu.Unlock()

	verifyErr := f.otp.VerifyCode(phone, code)

	var account *models.Account
	var lookupErr error
	if verifyErr == nil {
		account, lookupErr = f.directory.FindByPhone(phone)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	// The flow may have been cancelled while the calls were in flight; a
	// reset flow must not be moved forward by a stale result.
	if f.step != StepOtpVerification {
		return f.wrongStep()
	}

	if verifyErr != nil {
		return f.notify(NotifyError, verifyErr.Error())
	}
	if lookupErr != nil {
		log.Printf("❌ Account lookup failed for %s: %v", phone, lookupErr)
		return f.notify(NotifyError, "Something went wrong, please try again")
	}

	f.cancelCountdownLocked()

	if account != nil {
		if err := f.directory.SetCurrentSession(account.AccountID); err != nil {
			log.Printf("❌ Failed to set session: %v", err)
			return f.notify(NotifyError, "Something went wrong, please try again")
		}
		f.step = StepLoggedIn
		out := f.notify(NotifySuccess, "Welcome back!")
		out.Account = account
		return out
	}

	if f.role == models.RoleProvider {
		f.step = StepAadhaarKyc
		return f.notify(NotifyInfo, "Verify your Aadhaar to offer services")
	}
	f.step = StepProfileSetup
	return f.notify(NotifyInfo, "Set up your profile to finish")
}

// SubmitAadhaar delivers the KYC event for providers. The registry call may
// block; the flow stays suspended in this step until it resolves, and a
// second submit meanwhile is rejected.
func (f *OnboardingFlow) SubmitAadhaar(ctx context.Context, aadhaar string, consent bool) Outcome {
	f.mu.Lock()
	if f.step != StepAadhaarKyc {
		defer f.mu.Unlock()
		return f.wrongStep()
	}
	if f.busy {
		defer f.mu.Unlock()
		return f.inFlight()
	}
	f.busy = true
	f.touch()
	f.mu.Unlock()

	err := f.kyc.Verify(ctx, aadhaar, consent)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.step != StepAadhaarKyc {
		return f.wrongStep()
	}

	switch {
	case err == nil:
		f.step = StepProfileSetup
		return f.notify(NotifySuccess, "Aadhaar verified successfully")
	case errors.Is(err, aadhaarclient.ErrUnavailable):
		out := f.notify(NotifyError, "Verification service is unavailable, please try again")
		out.Notification.Retryable = true
		return out
	default:
		return f.notify(NotifyError, err.Error())
	}
}

// SubmitProfile creates the account and closes the flow. The directory
// enforces the name and provider-services guards; duplicates surface here if
// the phone registered through another client since OTP success.
func (f *OnboardingFlow) SubmitProfile(fullName, email string, services []string) Outcome {
	f.mu.Lock()
	if f.step != StepProfileSetup {
		defer f.mu.Unlock()
		return f.wrongStep()
	}
	if f.busy {
		defer f.mu.Unlock()
		return f.inFlight()
	}
	f.busy = true
	f.touch()
	reg := &models.Registration{
		Phone:    f.phone,
		FullName: fullName,
		Email:    email,
		Role:     f.role,
		Services: services,
	}
	if reg.Role == models.RoleCustomer {
		reg.Services = nil
	}
	f.mu.Unlock()

	account, err := f.directory.Create(reg)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.step != StepProfileSetup {
		return f.wrongStep()
	}

	if err != nil {
		return f.notify(NotifyError, err.Error())
	}

	if err := f.directory.SetCurrentSession(account.AccountID); err != nil {
		log.Printf("❌ Failed to set session: %v", err)
		return f.notify(NotifyError, "Something went wrong, please try again")
	}

	f.step = StepComplete
	out := f.notify(NotifySuccess, "Registration successful! Welcome to QuickServe")
	out.Account = account
	return out
}

// Cancel resets the flow to role selection from any step, discarding the
// selected role, the phone number and any in-flight OTP challenge. Accounts
// already created or resumed are untouched.
func (f *OnboardingFlow) Cancel() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.cancelCountdownLocked()
	if f.phone != "" {
		f.otp.Discard(f.phone)
	}

	f.role = ""
	f.phone = ""
	f.busy = false
	f.step = StepRoleSelection
	return f.notify(NotifyInfo, "Sign-in cancelled")
}

// Terminal reports whether the flow has finished.
func (f *OnboardingFlow) Terminal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step == StepComplete || f.step == StepLoggedIn
}

// callers must hold f.mu for everything below

func (f *OnboardingFlow) startCountdownLocked() {
	f.cancelCountdownLocked()
	f.resendIn = int(ResendCooldown / time.Second)
	cd := NewResendCountdown()
	f.countdown = cd
	cd.Start(
		func(remaining int) {
			f.mu.Lock()
			if f.countdown == cd {
				f.resendIn = remaining
			}
			f.mu.Unlock()
		},
		nil,
	)
}

func (f *OnboardingFlow) cancelCountdownLocked() {
	if f.countdown != nil {
		f.countdown.Cancel()
		f.countdown = nil
	}
	f.resendIn = 0
}

func (f *OnboardingFlow) otpRequestFailed(err error) Outcome {
	switch {
	case errors.Is(err, ErrRateLimited):
		out := f.notify(NotifyWarning, ErrRateLimited.Error())
		out.ResendIn = f.resendIn
		return out
	case errors.Is(err, ErrSendFailed):
		out := f.notify(NotifyError, ErrSendFailed.Error())
		out.Notification.Retryable = true
		return out
	default:
		log.Printf("❌ OTP request failed: %v", err)
		return f.notify(NotifyError, "Something went wrong, please try again")
	}
}

func (f *OnboardingFlow) wrongStep() Outcome {
	return f.notify(NotifyError, "That action is not available right now")
}

func (f *OnboardingFlow) inFlight() Outcome {
	return f.notify(NotifyWarning, "Hold on, still processing your last request")
}

// notify builds the outcome for the current step value, whether or not the
// event just changed it.
func (f *OnboardingFlow) notify(kind NotificationKind, msg string) Outcome {
	return Outcome{Step: f.step, Notification: Notification{Kind: kind, Message: msg}}
}

func (f *OnboardingFlow) touch() {
	f.lastEvent = time.Now()
}

// LastEvent is read by the flow manager's expiry sweep.
func (f *OnboardingFlow) LastEvent() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEvent
}
