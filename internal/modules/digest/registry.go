package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	gohash "hash"
	"sort"
	"strings"
	"sync"

	"github.com/nimda/password-tester/pkg/utils"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// DefaultAlgorithm is used when a target does not name its algorithm
const DefaultAlgorithm = "sha256"

// Algorithm holds information about a supported digest algorithm.
type Algorithm struct {
	// Name is the algorithm identifier (e.g., "sha256").
	Name string

	// Description is a human-readable description of the algorithm.
	Description string

	// New returns a fresh hash state.
	New func() gohash.Hash
}

// HexLen returns the length of the algorithm's digest in hex characters.
func (a Algorithm) HexLen() int {
	return a.New().Size() * 2
}

// Registry manages registered digest algorithms.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates a new algorithm registry.
func NewRegistry() *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
	}
}

// Register adds an algorithm to the registry.
func (r *Registry) Register(alg Algorithm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alg.Name == "" {
		return fmt.Errorf("algorithm name cannot be empty")
	}
	if alg.New == nil {
		return fmt.Errorf("algorithm constructor cannot be nil")
	}
	name := strings.ToLower(alg.Name)
	if _, exists := r.algorithms[name]; exists {
		return fmt.Errorf("algorithm %q already registered", name)
	}

	alg.Name = name
	r.algorithms[name] = alg
	return nil
}

// Get returns the algorithm for the given name (case-insensitive).
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alg, ok := r.algorithms[strings.ToLower(name)]
	if !ok {
		return Algorithm{}, &utils.UnsupportedAlgorithmError{Algorithm: name}
	}
	return alg, nil
}

// List returns all registered algorithm names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global algorithm registry.
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register an algorithm with the default registry.
func Register(alg Algorithm) error {
	return DefaultRegistry.Register(alg)
}

func init() {
	for _, alg := range []Algorithm{
		{Name: "md5", Description: "MD5 (128-bit)", New: md5.New},
		{Name: "sha1", Description: "SHA-1 (160-bit)", New: sha1.New},
		{Name: "sha256", Description: "SHA-256 (256-bit)", New: sha256.New},
		{Name: "sha224", Description: "SHA-224", New: sha256.New224},
		{Name: "sha384", Description: "SHA-384", New: sha512.New384},
		{Name: "sha512", Description: "SHA-512", New: sha512.New},
		{Name: "sha3-256", Description: "SHA3-256", New: func() gohash.Hash { return sha3.New256() }},
		{Name: "sha3-512", Description: "SHA3-512", New: func() gohash.Hash { return sha3.New512() }},
		{Name: "md4", Description: "MD4 (legacy, NTLM building block)", New: md4.New},
		{Name: "ripemd160", Description: "RIPEMD-160", New: ripemd160.New},
	} {
		_ = Register(alg)
	}
}
