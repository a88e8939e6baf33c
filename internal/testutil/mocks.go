package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockVerifier is a testify mock of interfaces.Verifier
type MockVerifier struct {
	mock.Mock
}

// NewMockVerifier creates a mock verifier with mode and target expectations preset
func NewMockVerifier(mode, target string) *MockVerifier {
	m := &MockVerifier{}
	m.On("GetMode").Return(mode).Maybe()
	m.On("GetTarget").Return(target).Maybe()
	return m
}

// Connect records the call and returns the configured error
func (m *MockVerifier) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Verify records the call and returns the configured outcome and error
func (m *MockVerifier) Verify(ctx context.Context, candidate string) (interfaces.Outcome, error) {
	args := m.Called(ctx, candidate)
	return args.Get(0).(interfaces.Outcome), args.Error(1)
}

// Close records the call and returns the configured error
func (m *MockVerifier) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetMode returns the configured mode
func (m *MockVerifier) GetMode() string {
	args := m.Called()
	return args.String(0)
}

// GetTarget returns the configured target
func (m *MockVerifier) GetTarget() string {
	args := m.Called()
	return args.String(0)
}

// MockMetrics records metric calls in memory
type MockMetrics struct {
	mu            sync.Mutex
	Attempts      map[string]int
	NetworkErrors map[string]int
	Latencies     int
	Runs          []string // outcomes, in order
}

// NewMockMetrics creates an empty metrics recorder
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Attempts:      make(map[string]int),
		NetworkErrors: make(map[string]int),
	}
}

func (m *MockMetrics) IncAttempts(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts[mode]++
}

func (m *MockMetrics) IncNetworkErrors(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NetworkErrors[mode]++
}

func (m *MockMetrics) ObserveLatency(mode string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latencies++
}

func (m *MockMetrics) ObserveRun(mode, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, outcome)
}

// Ensure interfaces are implemented
var _ interfaces.Verifier = (*MockVerifier)(nil)
var _ interfaces.Metrics = (*MockMetrics)(nil)
