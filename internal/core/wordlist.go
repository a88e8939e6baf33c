package core

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// maxLineSize is the longest wordlist line that can be loaded
const maxLineSize = 1 << 20

// Wordlist is the ordered, fully materialised list of candidates for a run
type Wordlist struct {
	candidates []string
	source     string
}

// NewWordlist creates a wordlist from in-memory candidates, dropping empty entries
func NewWordlist(candidates []string) *Wordlist {
	w := &Wordlist{candidates: make([]string, 0, len(candidates)), source: "memory"}
	for _, c := range candidates {
		if c != "" {
			w.candidates = append(w.candidates, c)
		}
	}
	return w
}

// Len returns the number of candidates
func (w *Wordlist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.candidates)
}

// At returns the candidate at position i (0-based)
func (w *Wordlist) At(i int) string {
	return w.candidates[i]
}

// Candidates returns a copy of the candidates in attempt order
func (w *Wordlist) Candidates() []string {
	out := make([]string, len(w.candidates))
	copy(out, w.candidates)
	return out
}

// Source returns where the wordlist was loaded from
func (w *Wordlist) Source() string {
	return w.source
}

// WordlistOption configures wordlist loading
type WordlistOption func(*wordlistOptions)

type wordlistOptions struct {
	encoding string
}

// WithEncoding decodes the wordlist from a WHATWG-labelled encoding
// ("utf-8", "latin1", "windows-1252", "utf-16le", ...).
func WithEncoding(name string) WordlistOption {
	return func(o *wordlistOptions) {
		o.encoding = name
	}
}

// LoadWordlist reads a newline-delimited wordlist file.
// Trailing whitespace is stripped from every line and blank lines are dropped;
// order and duplicates are preserved.
func LoadWordlist(path string, opts ...WordlistOption) (*Wordlist, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zlog.Error().Str("file", path).Msg("Wordlist file not found")
			return nil, &utils.NotFoundError{Path: path}
		}
		return nil, utils.NewIOError(path, err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			zlog.Warn().Err(err).Msg("Failed to close wordlist file")
		}
	}(file)

	w, err := ReadWordlist(file, opts...)
	if err != nil {
		var cfgErr *utils.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, utils.NewIOError(path, err)
	}
	w.source = path

	zlog.Debug().Str("file", path).Int("n", w.Len()).Msg("Loaded n passwords")
	return w, nil
}

// ReadWordlist reads candidates from r with the same rules as LoadWordlist
func ReadWordlist(r io.Reader, opts ...WordlistOption) (*Wordlist, error) {
	o := &wordlistOptions{}
	for _, opt := range opts {
		opt(o)
	}

	enc, err := lookupEncoding(o.encoding)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	w := &Wordlist{source: "reader"}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if enc == nil {
			// invalid UTF-8 sequences are skipped rather than failing the load
			line = strings.ToValidUTF8(line, "")
		}
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		w.candidates = append(w.candidates, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return w, nil
}

// lookupEncoding returns nil for UTF-8, which is handled without a decoder
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, utils.NewConfigurationError("encoding", "unknown wordlist encoding "+name, err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
