// Package sheets provides the Google Sheets backed table store.
package sheets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AuthMethod is how the store authenticates against the Sheets API.
type AuthMethod string

// Supported authentication methods.
const (
	AuthNone           AuthMethod = ""
	AuthOAuth          AuthMethod = "oauth"
	AuthServiceAccount AuthMethod = "service_account"
)

// Config holds the configuration for the Google Sheets store.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	// SpreadsheetID may also be given as the spreadsheet's browser URL.
	SpreadsheetID    string
	ValueInputOption string
	RetryAttempts    int
	RetryDelay       time.Duration
}

// DefaultConfig returns the settings the household spreadsheet is written with.
// USER_ENTERED lets Sheets parse "12,50" and "03/02/2024" the way a person
// typing them would.
func DefaultConfig() Config {
	return Config{
		ValueInputOption: "USER_ENTERED",
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Auth reports which authentication method the credentials select.
func (c *Config) Auth() (AuthMethod, error) {
	oauthFields := 0
	for _, s := range []string{c.ClientID, c.ClientSecret, c.RefreshToken} {
		if s != "" {
			oauthFields++
		}
	}
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case oauthFields == 3 && hasServiceAccount:
		return AuthNone, errors.New("multiple authentication methods configured; use either OAuth2 or service account")
	case oauthFields == 3:
		return AuthOAuth, nil
	case hasServiceAccount:
		return AuthServiceAccount, nil
	case oauthFields > 0:
		return AuthNone, errors.New("no authentication method configured: OAuth2 needs client id, client secret and refresh token (run `ledger auth sheets`)")
	}
	return AuthNone, errors.New("no authentication method configured")
}

// Validate checks the configuration and normalizes SpreadsheetID.
func (c *Config) Validate() error {
	if _, err := c.Auth(); err != nil {
		return err
	}

	id, err := ParseSpreadsheetID(c.SpreadsheetID)
	if err != nil {
		return err
	}
	c.SpreadsheetID = id

	switch c.ValueInputOption {
	case "USER_ENTERED", "RAW":
	default:
		return fmt.Errorf("invalid value input option: %q", c.ValueInputOption)
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}

// ParseSpreadsheetID accepts a bare spreadsheet id or a
// https://docs.google.com/spreadsheets/d/<id>/... URL.
func ParseSpreadsheetID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("spreadsheet ID is required")
	}
	if !strings.Contains(s, "/") {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid spreadsheet URL %q: %w", s, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "d" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no spreadsheet ID in URL %q", s)
}
