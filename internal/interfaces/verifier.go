package interfaces

import "context"

// Outcome classifies a single verification attempt
type Outcome int

const (
	// OutcomeFailure means the candidate was checked and rejected
	OutcomeFailure Outcome = iota
	// OutcomeSuccess means the candidate matched the target
	OutcomeSuccess
	// OutcomeNetworkError means the attempt could not be completed (web mode only)
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNetworkError:
		return "network-error"
	default:
		return "failure"
	}
}

// Verifier defines the interface that every verification strategy must implement
type Verifier interface {
	// Connect prepares any per-run resources (e.g. an HTTP session)
	Connect(ctx context.Context) error

	// Verify checks one candidate password against the target.
	// A non-nil error accompanies OutcomeNetworkError; any other error is fatal to the run.
	Verify(ctx context.Context, candidate string) (Outcome, error)

	// Close releases the resources acquired by Connect
	Close() error

	// GetMode returns the name of the verification mode ("local", "web")
	GetMode() string

	// GetTarget returns a printable description of the target
	GetTarget() string
}
