package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	zlog "github.com/rs/zerolog/log"
)

var errConsentDenied = errors.New("permission not granted")

// confirmConsent asks the operator to confirm they are authorised to test the target
func confirmConsent(in io.Reader, out io.Writer) error {
	warn := color.New(color.FgRed, color.Bold)
	fmt.Fprintln(out, "\n"+strings.Repeat("!", 60))
	warn.Fprintln(out, "This tool is for EDUCATIONAL USE ONLY.")
	warn.Fprintln(out, "You must have EXPLICIT PERMISSION to test any system.")
	fmt.Fprintln(out, "Unauthorized use is illegal and unethical.")
	fmt.Fprintln(out, strings.Repeat("!", 60)+"\n")
	fmt.Fprint(out, "Do you have permission to test this system? (yes/no): ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read consent: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
		fmt.Fprintln(out, "Permission not granted. Exiting.")
		zlog.Warn().Msg("Consent refused")
		return errConsentDenied
	}
	return nil
}
