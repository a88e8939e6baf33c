package core

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
)

// minElapsed floors run durations so throughput never divides by zero
const minElapsed = time.Microsecond

// Outcome is the terminal result of a run
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not-found"
	OutcomeAborted  Outcome = "aborted"
)

// Strength is the tier derived from an entropy estimate
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Summary describes a finished run. It is built once and returned by value.
type Summary struct {
	RunID         string
	Mode          string
	Target        string
	Outcome       Outcome
	Password      string // set only when Outcome is OutcomeFound
	Attempts      int
	Total         int
	NetworkErrors int
	StartedAt     time.Time
	Elapsed       time.Duration
	Throughput    float64 // attempts per second
	EntropyBits   float64 // set only when Outcome is OutcomeFound
}

func newSummary(outcome Outcome, password string, attempts int, started, ended time.Time) Summary {
	elapsed := ended.Sub(started)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}

	s := Summary{
		Outcome:    outcome,
		Attempts:   attempts,
		StartedAt:  started,
		Elapsed:    elapsed,
		Throughput: float64(attempts) / elapsed.Seconds(),
	}
	if outcome == OutcomeFound {
		s.Password = password
		s.EntropyBits = Entropy(password)
	}
	return s
}

// Found reports whether a matching candidate was discovered
func (s Summary) Found() bool {
	return s.Outcome == OutcomeFound
}

// ElapsedSeconds returns the run duration in seconds
func (s Summary) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}

// Strength returns the entropy tier of the discovered password
func (s Summary) Strength() Strength {
	return StrengthOf(s.EntropyBits)
}

// Entropy estimates password strength from the character classes it uses:
// 26 for lowercase, 26 for uppercase, 10 for digits and 33 for anything else,
// multiplied out as log2(alphabet) bits per character.
func Entropy(password string) float64 {
	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}

	alphabet := 0
	if lower {
		alphabet += 26
	}
	if upper {
		alphabet += 26
	}
	if digit {
		alphabet += 10
	}
	if other {
		alphabet += 33
	}
	if alphabet == 0 {
		return 0
	}
	return math.Log2(float64(alphabet)) * float64(utf8.RuneCountInString(password))
}

// StrengthOf maps entropy bits to a tier: below 30 weak, up to 50 moderate, above 50 strong
func StrengthOf(bits float64) Strength {
	switch {
	case bits < 30:
		return StrengthWeak
	case bits <= 50:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// Render writes the human-readable result block
func (s Summary) Render(w io.Writer) {
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	yellow.Fprintf(w, "\n%s\n", banner(" RESULTS ", 50))

	switch s.Outcome {
	case OutcomeFound:
		green.Fprintf(w, "[+] Password FOUND: %s\n", s.Password)
	case OutcomeAborted:
		yellow.Fprintf(w, "[!] Run aborted before the wordlist was exhausted.\n")
	default:
		red.Fprintf(w, "[!] Password NOT found in wordlist.\n")
	}

	fmt.Fprintf(w, "Attempts: %d\n", s.Attempts)
	fmt.Fprintf(w, "Time elapsed: %.2f seconds\n", s.ElapsedSeconds())
	fmt.Fprintf(w, "Throughput: %.2f attempts/second\n", s.Throughput)

	if s.Found() {
		fmt.Fprintf(w, "Password entropy (approx.): %.1f bits\n", s.EntropyBits)
		switch s.Strength() {
		case StrengthWeak:
			red.Fprintf(w, "Weak password! Easily guessable.\n")
		case StrengthModerate:
			yellow.Fprintf(w, "Moderate password. Could be improved.\n")
		default:
			green.Fprintf(w, "Strong password!\n")
		}
	}
	fmt.Fprintln(w, strings.Repeat("*", 50))
}

func banner(title string, width int) string {
	pad := width - len(title)
	if pad <= 0 {
		return title
	}
	left := pad / 2
	return strings.Repeat("*", left) + title + strings.Repeat("*", pad-left)
}
