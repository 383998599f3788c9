package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

// countingRegistry records verification attempts.
type countingRegistry struct {
	calls  int
	lastID string
	result error
}

func (r *countingRegistry) CheckID(ctx context.Context, aadhaar string) error {
	r.calls++
	r.lastID = aadhaar
	return r.result
}

func TestVerifyConsentGateBeforeAnyCall(t *testing.T) {
	registry := &countingRegistry{}
	svc := NewKYCService(registry)

	err := svc.Verify(context.Background(), "123456789012", false)
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Zero(t, registry.calls, "registry must not be contacted without consent")
}

func TestVerifyFormatGateBeforeAnyCall(t *testing.T) {
	registry := &countingRegistry{}
	svc := NewKYCService(registry)

	err := svc.Verify(context.Background(), "12345", true)
	assert.ErrorIs(t, err, ErrInvalidAadhaar)
	assert.Zero(t, registry.calls)
}

func TestVerifySendsSanitizedID(t *testing.T) {
	registry := &countingRegistry{}
	svc := NewKYCService(registry)

	err := svc.Verify(context.Background(), "1234 5678 9012", true)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.calls)
	assert.Equal(t, "123456789012", registry.lastID)
}

func TestVerifyDeniedAndUnavailableSurfaceUnchanged(t *testing.T) {
	registry := &countingRegistry{result: aadhaarclient.ErrDenied}
	svc := NewKYCService(registry)

	err := svc.Verify(context.Background(), "123456789012", true)
	assert.ErrorIs(t, err, aadhaarclient.ErrDenied)

	registry.result = aadhaarclient.ErrUnavailable
	err = svc.Verify(context.Background(), "123456789012", true)
	assert.ErrorIs(t, err, aadhaarclient.ErrUnavailable)

	// One call per invocation, never retried internally.
	assert.Equal(t, 2, registry.calls)
}

func TestSandboxRegistry(t *testing.T) {
	sandbox := &aadhaarclient.Sandbox{Deny: map[string]bool{"999999999999": true}}
	svc := NewKYCService(sandbox)

	require.NoError(t, svc.Verify(context.Background(), "123456789012", true))
	assert.ErrorIs(t, svc.Verify(context.Background(), "999999999999", true), aadhaarclient.ErrDenied)
}
