package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-backend/internal/models"
	"github.com/quickserve/quickserve-backend/internal/storage"
	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

type flowFixture struct {
	flow      *OnboardingFlow
	store     *storage.MemoryStore
	sender    *captureSender
	otp       *OTPService
	directory *UserDirectory
	sandbox   *aadhaarclient.Sandbox
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	sender := &captureSender{}
	otp := NewOTPService(store, sender)
	sandbox := &aadhaarclient.Sandbox{}
	directory := NewUserDirectory(store)
	flow := NewOnboardingFlow(otp, NewKYCService(sandbox), directory)
	t.Cleanup(func() { flow.Cancel() })

	return &flowFixture{
		flow:      flow,
		store:     store,
		sender:    sender,
		otp:       otp,
		directory: directory,
		sandbox:   sandbox,
	}
}

// lastCode returns the most recently dispatched OTP code.
func (fx *flowFixture) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, fx.sender.codes, "no OTP was sent")
	return fx.sender.codes[len(fx.sender.codes)-1]
}

func (fx *flowFixture) advanceToOTP(t *testing.T, role models.Role, phone string) {
	t.Helper()
	out := fx.flow.ChooseRole(role)
	require.Equal(t, StepPhoneInput, out.Step)
	out = fx.flow.SubmitPhone(phone)
	require.Equal(t, StepOtpVerification, out.Step)
}

func TestCustomerRegistrationEndToEnd(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleCustomer, "98765 43210")

	out := fx.flow.SubmitOTP(fx.lastCode(t))
	require.Equal(t, StepProfileSetup, out.Step, "customer skips aadhaar KYC")

	out = fx.flow.SubmitProfile("Asha Rao", "", nil)
	require.Equal(t, StepComplete, out.Step)
	require.NotNil(t, out.Account)
	assert.Equal(t, NotifySuccess, out.Notification.Kind)

	// The sanitized digits-only phone is what got persisted.
	assert.Equal(t, "9876543210", out.Account.Phone)
	assert.Empty(t, out.Account.ServiceList())
	assert.Equal(t, models.RoleCustomer, out.Account.Role)
	assert.True(t, out.Account.Verified)

	// Session points at the new account.
	current, err := fx.directory.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, out.Account.AccountID, current.AccountID)
}

func TestProviderRegistrationRequiresKYCAndServices(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleProvider, "9876543210")

	out := fx.flow.SubmitOTP(fx.lastCode(t))
	require.Equal(t, StepAadhaarKyc, out.Step, "new providers go through aadhaar KYC")

	// Consent gate fires before anything else.
	out = fx.flow.SubmitAadhaar(context.Background(), "123456789012", false)
	assert.Equal(t, StepAadhaarKyc, out.Step)
	assert.Equal(t, NotifyError, out.Notification.Kind)

	out = fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	require.Equal(t, StepProfileSetup, out.Step)

	// Providers must pick at least one service category.
	out = fx.flow.SubmitProfile("Ravi Kumar", "ravi@example.com", nil)
	assert.Equal(t, StepProfileSetup, out.Step)
	assert.Equal(t, NotifyError, out.Notification.Kind)
	assert.Equal(t, ErrMissingServices.Error(), out.Notification.Message)

	out = fx.flow.SubmitProfile("Ravi Kumar", "ravi@example.com", []string{"plumbing", "electrical"})
	require.Equal(t, StepComplete, out.Step)
	require.NotNil(t, out.Account)
	assert.Equal(t, []string{"plumbing", "electrical"}, out.Account.ServiceList())
}

func TestProviderKYCDeniedStaysOnStep(t *testing.T) {
	fx := newFlowFixture(t)
	fx.sandbox.Deny = map[string]bool{"123456789012": true}

	fx.advanceToOTP(t, models.RoleProvider, "9876543210")
	require.Equal(t, StepAadhaarKyc, fx.flow.SubmitOTP(fx.lastCode(t)).Step)

	out := fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	assert.Equal(t, StepAadhaarKyc, out.Step)
	assert.Equal(t, NotifyError, out.Notification.Kind)
	assert.False(t, out.Notification.Retryable)
}

func TestProviderKYCUnavailableIsRetryable(t *testing.T) {
	fx := newFlowFixture(t)
	fx.sandbox.Unavailable = true

	fx.advanceToOTP(t, models.RoleProvider, "9876543210")
	require.Equal(t, StepAadhaarKyc, fx.flow.SubmitOTP(fx.lastCode(t)).Step)

	out := fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	assert.Equal(t, StepAadhaarKyc, out.Step)
	assert.True(t, out.Notification.Retryable)
}

func TestExistingAccountLogsStraightIn(t *testing.T) {
	fx := newFlowFixture(t)

	existing, err := fx.directory.Create(&models.Registration{
		Phone:    "9876543210",
		FullName: "Asha Rao",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)

	// Role selection does not matter for a returning phone number.
	fx.advanceToOTP(t, models.RoleProvider, "9876543210")

	out := fx.flow.SubmitOTP(fx.lastCode(t))
	require.Equal(t, StepLoggedIn, out.Step, "existing account bypasses KYC and profile setup")
	require.NotNil(t, out.Account)
	assert.Equal(t, existing.AccountID, out.Account.AccountID)
	assert.Equal(t, "Welcome back!", out.Notification.Message)

	current, err := fx.directory.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, existing.AccountID, current.AccountID)
}

func TestInvalidPhoneStaysOnPhoneInput(t *testing.T) {
	fx := newFlowFixture(t)

	require.Equal(t, StepPhoneInput, fx.flow.ChooseRole(models.RoleCustomer).Step)

	out := fx.flow.SubmitPhone("0123456789")
	assert.Equal(t, StepPhoneInput, out.Step)
	assert.Equal(t, NotifyError, out.Notification.Kind)
	assert.Empty(t, fx.sender.codes, "no OTP should be sent for an invalid number")
}

func TestWrongOTPSurfacesMismatchAndStays(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleCustomer, "9876543210")

	wrong := "000000"
	if fx.lastCode(t) == wrong {
		wrong = "111111"
	}

	out := fx.flow.SubmitOTP(wrong)
	assert.Equal(t, StepOtpVerification, out.Step)
	assert.Equal(t, ErrCodeMismatch.Error(), out.Notification.Message)

	// The correct code still works within the attempt budget.
	out = fx.flow.SubmitOTP(fx.lastCode(t))
	assert.Equal(t, StepProfileSetup, out.Step)
}

func TestImmediateResendIsRateLimited(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleCustomer, "9876543210")

	out := fx.flow.ResendOTP()
	assert.Equal(t, StepOtpVerification, out.Step)
	assert.Equal(t, NotifyWarning, out.Notification.Kind)
	assert.Len(t, fx.sender.codes, 1, "cooldown must block the second send")
}

func TestEventsOutOfOrderAreRejected(t *testing.T) {
	fx := newFlowFixture(t)

	// Still at role selection: everything else is a step violation.
	assert.Equal(t, StepRoleSelection, fx.flow.SubmitPhone("9876543210").Step)
	assert.Equal(t, StepRoleSelection, fx.flow.SubmitOTP("123456").Step)
	assert.Equal(t, StepRoleSelection, fx.flow.SubmitAadhaar(context.Background(), "123456789012", true).Step)
	assert.Equal(t, StepRoleSelection, fx.flow.SubmitProfile("Asha Rao", "", nil).Step)

	// Choosing a role twice is equally invalid.
	require.Equal(t, StepPhoneInput, fx.flow.ChooseRole(models.RoleCustomer).Step)
	out := fx.flow.ChooseRole(models.RoleProvider)
	assert.Equal(t, StepPhoneInput, out.Step)
	assert.Equal(t, NotifyError, out.Notification.Kind)
}

func TestSecondSubmitWhileVerificationInFlightIsRejected(t *testing.T) {
	fx := newFlowFixture(t)
	fx.sandbox.Delay = 300 * time.Millisecond

	fx.advanceToOTP(t, models.RoleProvider, "9876543210")
	require.Equal(t, StepAadhaarKyc, fx.flow.SubmitOTP(fx.lastCode(t)).Step)

	first := make(chan Outcome, 1)
	go func() {
		first <- fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	}()

	// Let the first call reach the registry and suspend there.
	time.Sleep(50 * time.Millisecond)

	// Only one verification call may be in flight per flow.
	out := fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	assert.Equal(t, StepAadhaarKyc, out.Step)
	assert.Equal(t, NotifyWarning, out.Notification.Kind)

	// The suspended call still resolves and applies exactly one transition.
	select {
	case res := <-first:
		assert.Equal(t, StepProfileSetup, res.Step)
	case <-time.After(2 * time.Second):
		t.Fatal("first aadhaar submit never resolved")
	}
	assert.Equal(t, StepProfileSetup, fx.flow.CurrentStep())
}

func TestCancelWhileVerificationInFlightDropsStaleResult(t *testing.T) {
	fx := newFlowFixture(t)
	fx.sandbox.Delay = 300 * time.Millisecond

	fx.advanceToOTP(t, models.RoleProvider, "9876543210")
	require.Equal(t, StepAadhaarKyc, fx.flow.SubmitOTP(fx.lastCode(t)).Step)

	first := make(chan Outcome, 1)
	go func() {
		first <- fx.flow.SubmitAadhaar(context.Background(), "123456789012", true)
	}()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StepRoleSelection, fx.flow.Cancel().Step)

	// The registry answer lands after the reset; it must not move the flow.
	select {
	case res := <-first:
		assert.Equal(t, StepRoleSelection, res.Step)
		assert.Equal(t, NotifyError, res.Notification.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight aadhaar submit never resolved")
	}
	assert.Equal(t, StepRoleSelection, fx.flow.CurrentStep())
}

func TestCancelResetsFlowAndDiscardsChallenge(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleCustomer, "9876543210")
	code := fx.lastCode(t)

	out := fx.flow.Cancel()
	assert.Equal(t, StepRoleSelection, out.Step)
	assert.Zero(t, fx.flow.ResendIn())

	// The in-flight challenge is gone.
	err := fx.otp.VerifyCode("9876543210", code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCancelDoesNotDeleteCreatedAccount(t *testing.T) {
	fx := newFlowFixture(t)

	fx.advanceToOTP(t, models.RoleCustomer, "9876543210")
	require.Equal(t, StepProfileSetup, fx.flow.SubmitOTP(fx.lastCode(t)).Step)
	out := fx.flow.SubmitProfile("Asha Rao", "", nil)
	require.Equal(t, StepComplete, out.Step)

	fx.flow.Cancel()

	account, err := fx.directory.FindByPhone("9876543210")
	require.NoError(t, err)
	require.NotNil(t, account, "cancel must not delete a created account")
}
