package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFlowNotFound means the flow id is unknown or the flow expired.
var ErrFlowNotFound = errors.New("onboarding flow not found")

// FlowManager tracks the active onboarding flow per client. Abandoned flows
// are swept after a TTL so stale OTP challenges and countdowns do not linger.
type FlowManager struct {
	otp       *OTPService
	kyc       *KYCService
	directory *UserDirectory

	flows   map[string]*OnboardingFlow
	mu      sync.RWMutex
	flowTTL time.Duration
	stop    chan struct{}
}

// NewFlowManager creates a flow manager and starts its expiry sweep
func NewFlowManager(otp *OTPService, kyc *KYCService, directory *UserDirectory) *FlowManager {
	fm := &FlowManager{
		otp:       otp,
		kyc:       kyc,
		directory: directory,
		flows:     make(map[string]*OnboardingFlow),
		flowTTL:   30 * time.Minute,
		stop:      make(chan struct{}),
	}

	// Cleanup routine
	go fm.sweepExpiredFlows()

	return fm
}

// StartFlow creates a fresh flow and returns its id.
func (fm *FlowManager) StartFlow() (string, *OnboardingFlow) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	id := uuid.NewString()
	flow := NewOnboardingFlow(fm.otp, fm.kyc, fm.directory)
	fm.flows[id] = flow
	return id, flow
}

// GetFlow retrieves an active flow.
func (fm *FlowManager) GetFlow(id string) (*OnboardingFlow, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	flow, exists := fm.flows[id]
	if !exists {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// EndFlow removes a finished or cancelled flow.
func (fm *FlowManager) EndFlow(id string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if flow, exists := fm.flows[id]; exists {
		flow.Cancel()
		delete(fm.flows, id)
	}
}

// ActiveFlows returns how many flows are live (health endpoint).
func (fm *FlowManager) ActiveFlows() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.flows)
}

// Stop halts the expiry sweep.
func (fm *FlowManager) Stop() {
	close(fm.stop)
}

func (fm *FlowManager) sweepExpiredFlows() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fm.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-fm.flowTTL)
			fm.mu.Lock()
			for id, flow := range fm.flows {
				if flow.Terminal() || flow.LastEvent().Before(cutoff) {
					flow.Cancel()
					delete(fm.flows, id)
				}
			}
			fm.mu.Unlock()
		}
	}
}
