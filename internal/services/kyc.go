package services

import (
	"context"
	"errors"

	"github.com/quickserve/quickserve-backend/internal/validation"
	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

var (
	// ErrConsentRequired means the user did not tick the consent box. The
	// registry is never contacted in that case.
	ErrConsentRequired = errors.New("consent is required for aadhaar verification")
	// ErrInvalidAadhaar means the id fails the format check.
	ErrInvalidAadhaar = errors.New("aadhaar number must be 12 digits")
)

// KYCService verifies a provider's Aadhaar id against the external registry.
// Stateless per call: a failure leaves nothing behind, and the caller decides
// whether to re-invoke.
type KYCService struct {
	registry aadhaarclient.Client
}

// NewKYCService creates a KYC service over the given registry client
func NewKYCService(registry aadhaarclient.Client) *KYCService {
	return &KYCService{registry: registry}
}

// Verify gates on consent, then format, then makes exactly one registry call.
// Registry outcomes surface as aadhaarclient.ErrDenied or
// aadhaarclient.ErrUnavailable; there is no automatic retry.
func (s *KYCService) Verify(ctx context.Context, aadhaar string, consentGiven bool) error {
	if !consentGiven {
		return ErrConsentRequired
	}
	if !validation.IsValidAadhaarNumber(aadhaar) {
		return ErrInvalidAadhaar
	}
	return s.registry.CheckID(ctx, validation.SanitizeAadhaar(aadhaar))
}
