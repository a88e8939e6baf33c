package webform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
)

// Fields are the form input names used for a login attempt
type Fields struct {
	Username string
	Password string
}

// DiscoverFields fetches the login page and returns the input names of the first
// form that contains a password field. The page must be served from the local machine.
func DiscoverFields(ctx context.Context, client *http.Client, rawURL string) (Fields, error) {
	endpoint, err := CheckLoopback(rawURL)
	if err != nil {
		return Fields{}, err
	}
	session := http.Client{Timeout: interfaces.DefaultRequestTimeout}
	if client != nil {
		session = *client
	}
	session.CheckRedirect = checkRedirect

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Fields{}, err
	}
	resp, err := session.Do(req)
	if err != nil {
		var unsafe *utils.UnsafeTargetError
		if errors.As(err, &unsafe) {
			return Fields{}, unsafe
		}
		return Fields{}, utils.NewNetworkError(endpoint.String(), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zlog.Trace().Err(err).Msg("Error closing login page body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return Fields{}, utils.NewConfigurationError("url", fmt.Sprintf("login page returned status %d", resp.StatusCode), nil)
	}

	return ParseFields(io.LimitReader(resp.Body, maxBodySize))
}

// ParseFields extracts login field names from an HTML document
func ParseFields(r io.Reader) (Fields, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Fields{}, fmt.Errorf("failed to parse login page: %w", err)
	}

	var fields Fields
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		password, ok := form.Find(`input[type="password"]`).First().Attr("name")
		if !ok || password == "" {
			return true
		}

		var username string
		form.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
			name, ok := input.Attr("name")
			if !ok || name == "" {
				return true
			}
			switch strings.ToLower(input.AttrOr("type", "text")) {
			case "text", "email":
				username = name
				return false
			}
			return true
		})

		fields = Fields{Username: username, Password: password}
		return false
	})

	if fields.Password == "" {
		return Fields{}, utils.NewConfigurationError("pass_field", "no form with a password input found", nil)
	}
	if fields.Username == "" {
		return Fields{}, utils.NewConfigurationError("user_field", "login form has no text input for the username", nil)
	}

	zlog.Debug().Str("user_field", fields.Username).Str("pass_field", fields.Password).Msg("Discovered login form fields")
	return fields, nil
}
