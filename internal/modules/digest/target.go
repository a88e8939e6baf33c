package digest

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
)

// Target is the local-mode verification target
type Target struct {
	Algorithm string
	Digest    string // lowercase hex
}

// String renders the target in the same algorithm:hexdigest form it is parsed from
func (t Target) String() string {
	return t.Algorithm + ":" + t.Digest
}

// bareDigestAlgorithms maps the hex lengths accepted without an algorithm prefix.
// A 64-character value resolves to the default sha256.
var bareDigestAlgorithms = map[int]string{
	32: "md5",
	40: "sha1",
	64: DefaultAlgorithm,
}

// ParseTarget parses a single target line against the default registry
// Format: algorithm:hexdigest or hexdigest
// Examples:
//
//	"sha1:5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8" - explicit algorithm
//	"5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8" - bare, sha256
func ParseTarget(line string) (Target, error) {
	return DefaultRegistry.ParseTarget(line)
}

// ParseTarget parses a single target line using the algorithms in r
func (r *Registry) ParseTarget(line string) (Target, error) {
	zlog.Trace().Str("line", line).Msg("Parsing hash target")

	line = strings.TrimSpace(line)
	if line == "" {
		return Target{}, &utils.MalformedTargetError{Value: line, Reason: "empty value"}
	}

	var name, value string
	if algorithm, digest, found := strings.Cut(line, ":"); found {
		name = strings.ToLower(strings.TrimSpace(algorithm))
		value = strings.TrimSpace(digest)
	} else {
		value = line
		var ok bool
		if name, ok = bareDigestAlgorithms[len(value)]; !ok {
			return Target{}, &utils.MalformedTargetError{
				Value:  line,
				Reason: "expected 32, 40 or 64 hex characters",
			}
		}
	}

	alg, err := r.Get(name)
	if err != nil {
		return Target{}, err
	}

	if _, err := hex.DecodeString(value); err != nil {
		return Target{}, &utils.MalformedTargetError{Value: line, Reason: "not a hex string"}
	}
	if len(value) != alg.HexLen() {
		return Target{}, &utils.MalformedTargetError{
			Value:  line,
			Reason: fmt.Sprintf("%s digests are %d hex characters, got %d", alg.Name, alg.HexLen(), len(value)),
		}
	}

	target := Target{Algorithm: alg.Name, Digest: strings.ToLower(value)}
	zlog.Debug().Str("algorithm", target.Algorithm).Msg("Parsed hash target")
	return target, nil
}

// LoadTarget reads a target file and parses its first non-blank line
func LoadTarget(filePath string) (Target, error) {
	zlog.Debug().Str("file", filePath).Msg("Loading hash target from file")

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Target{}, &utils.NotFoundError{Path: filePath}
		}
		return Target{}, utils.NewIOError(filePath, err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			zlog.Warn().Err(err).Msg("Failed to close hash file")
		}
	}(file)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return ParseTarget(line)
	}
	if err := scanner.Err(); err != nil {
		return Target{}, utils.NewIOError(filePath, err)
	}

	return Target{}, &utils.MalformedTargetError{Value: "", Reason: "hash file contains no target"}
}
