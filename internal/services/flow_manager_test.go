package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/quickserve-backend/internal/storage"
	"github.com/quickserve/quickserve-backend/pkg/aadhaarclient"
)

func newTestFlowManager(t *testing.T) *FlowManager {
	t.Helper()
	store := storage.NewMemoryStore()
	fm := NewFlowManager(
		NewOTPService(store, &captureSender{}),
		NewKYCService(&aadhaarclient.Sandbox{}),
		NewUserDirectory(store),
	)
	t.Cleanup(fm.Stop)
	return fm
}

func TestStartAndGetFlow(t *testing.T) {
	fm := newTestFlowManager(t)

	id, flow := fm.StartFlow()
	require.NotEmpty(t, id)
	assert.Equal(t, StepRoleSelection, flow.CurrentStep())

	got, err := fm.GetFlow(id)
	require.NoError(t, err)
	assert.Same(t, flow, got)
	assert.Equal(t, 1, fm.ActiveFlows())
}

func TestGetFlowUnknownID(t *testing.T) {
	fm := newTestFlowManager(t)

	_, err := fm.GetFlow("nope")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestEndFlowRemovesAndResets(t *testing.T) {
	fm := newTestFlowManager(t)

	id, _ := fm.StartFlow()
	fm.EndFlow(id)

	_, err := fm.GetFlow(id)
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.Zero(t, fm.ActiveFlows())
}
