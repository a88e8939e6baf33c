package digest

import (
	"context"
	"crypto/subtle"
	"encoding/hex"

	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/internal/modules"
	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
)

// Verifier implements local hash comparison.
// Digests are compared with crypto/subtle so the comparison itself does not leak
// how many leading bytes matched.
type Verifier struct {
	*modules.BaseVerifier
	algorithm Algorithm
	want      []byte
}

// Option is a functional option for configuring a Verifier.
type Option func(*options)

type options struct {
	registry *Registry
}

// WithRegistry resolves the target algorithm from a custom registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// NewVerifier creates a hash verifier for target.
// Unknown algorithms and malformed digests are rejected here, never mid-run.
func NewVerifier(target Target, opts ...Option) (*Verifier, error) {
	o := &options{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(o)
	}

	alg, err := o.registry.Get(target.Algorithm)
	if err != nil {
		return nil, err
	}

	want, err := hex.DecodeString(target.Digest)
	if err != nil {
		return nil, &utils.MalformedTargetError{Value: target.Digest, Reason: "not a hex string"}
	}
	if len(want)*2 != alg.HexLen() {
		return nil, &utils.MalformedTargetError{Value: target.Digest, Reason: "digest length does not match " + alg.Name}
	}

	zlog.Debug().Str("algorithm", alg.Name).Msg("Hash verifier ready")

	return &Verifier{
		BaseVerifier: modules.NewBaseVerifier(interfaces.ModeLocal, alg.Name+":"+hex.EncodeToString(want)),
		algorithm:    alg,
		want:         want,
	}, nil
}

// Algorithm returns the resolved digest algorithm name
func (v *Verifier) Algorithm() string {
	return v.algorithm.Name
}

// Verify hashes candidate and compares it with the target digest
func (v *Verifier) Verify(ctx context.Context, candidate string) (interfaces.Outcome, error) {
	h := v.algorithm.New()
	h.Write([]byte(candidate))
	if subtle.ConstantTimeCompare(h.Sum(nil), v.want) == 1 {
		return interfaces.OutcomeSuccess, nil
	}
	return interfaces.OutcomeFailure, nil
}

// Sum returns the lowercase hex digest of plaintext under the named algorithm
func Sum(algorithm, plaintext string) (string, error) {
	alg, err := DefaultRegistry.Get(algorithm)
	if err != nil {
		return "", err
	}
	h := alg.New()
	h.Write([]byte(plaintext))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Ensure Verifier implements the Verifier interface
var _ interfaces.Verifier = (*Verifier)(nil)
