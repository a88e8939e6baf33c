package modules

import (
	"context"
	"errors"
	"sync"

	"github.com/nimda/password-tester/internal/interfaces"
)

// BaseVerifier provides common functionality for verifiers
type BaseVerifier struct {
	mu        sync.RWMutex
	mode      string
	target    string
	connected bool
}

// NewBaseVerifier creates a new base verifier
func NewBaseVerifier(mode, target string) *BaseVerifier {
	return &BaseVerifier{
		mode:   mode,
		target: target,
	}
}

// GetMode returns the verification mode
func (b *BaseVerifier) GetMode() string {
	return b.mode
}

// GetTarget returns the target
func (b *BaseVerifier) GetTarget() string {
	return b.target
}

// SetConnected marks the verifier as connected
func (b *BaseVerifier) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

// IsConnected returns whether the verifier is connected
func (b *BaseVerifier) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Connect marks the verifier ready; verifiers with real resources override it
func (b *BaseVerifier) Connect(ctx context.Context) error {
	b.SetConnected(true)
	return nil
}

// Verify is not implemented in BaseVerifier - must be implemented by concrete verifiers
func (b *BaseVerifier) Verify(ctx context.Context, candidate string) (interfaces.Outcome, error) {
	return interfaces.OutcomeFailure, errors.New("Verify not implemented")
}

// Close marks the verifier disconnected
func (b *BaseVerifier) Close() error {
	b.SetConnected(false)
	return nil
}

// Ensure BaseVerifier implements the Verifier interface
var _ interfaces.Verifier = (*BaseVerifier)(nil)
