package core

import (
	"context"
	"errors"
	"sync"

	"github.com/nimda/password-tester/internal/interfaces"
)

// scriptedVerifier accepts one password and can be told to fail on specific candidates
type scriptedVerifier struct {
	mu          sync.Mutex
	successPass string
	faults      map[string]error
	onVerify    func(n int, candidate string)
	connected   bool
	closed      int
	seen        []string
}

func newScriptedVerifier(successPass string) *scriptedVerifier {
	return &scriptedVerifier{
		successPass: successPass,
		faults:      make(map[string]error),
	}
}

func (m *scriptedVerifier) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *scriptedVerifier) Verify(ctx context.Context, candidate string) (interfaces.Outcome, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return interfaces.OutcomeFailure, errors.New("not connected")
	}
	m.seen = append(m.seen, candidate)
	n := len(m.seen)
	hook := m.onVerify
	fault := m.faults[candidate]
	m.mu.Unlock()

	if hook != nil {
		hook(n, candidate)
	}
	if fault != nil {
		return interfaces.OutcomeNetworkError, fault
	}
	if candidate == m.successPass {
		return interfaces.OutcomeSuccess, nil
	}
	return interfaces.OutcomeFailure, nil
}

func (m *scriptedVerifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.closed++
	return nil
}

func (m *scriptedVerifier) GetMode() string   { return "test" }
func (m *scriptedVerifier) GetTarget() string { return "scripted" }

func (m *scriptedVerifier) Seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.seen))
	copy(out, m.seen)
	return out
}

var _ interfaces.Verifier = (*scriptedVerifier)(nil)
