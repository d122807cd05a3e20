package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Screenshot options for door events.
const (
	ScreenshotASAP = "asap" // emit as soon as the log entry appears
	ScreenshotWait = "wait" // hold the event until the snapshot URL is ready
)

// Account is the optional TOML account file. Field names map to snake_case
// keys in the file.
type Account struct {
	// PhoneNumber is the account's mobile number without country prefix.
	PhoneNumber string `toml:"phone_number"`

	// CountryCode is the international dialling code, e.g. "61".
	CountryCode string `toml:"country_code"`

	// Subdomain is the regional routing key. Empty means derive it from
	// the country code.
	Subdomain string `toml:"subdomain"`

	AuthToken    string `toml:"auth_token"`
	Token        string `toml:"token"`
	RefreshToken string `toml:"refresh_token"`

	// EventScreenshotOptions is "asap" or "wait". Default: asap
	EventScreenshotOptions string `toml:"event_screenshot_options"`

	// LogLevel overrides LOG_LEVEL when set.
	LogLevel string `toml:"log_level"`

	// TokenRefreshIntervalDays overrides the proactive refresh interval.
	TokenRefreshIntervalDays int `toml:"token_refresh_interval_days"`

	// TempKeyExpiredPassthrough reports the upstream Expired flag as-is
	// instead of negating it.
	TempKeyExpiredPassthrough bool `toml:"temp_key_expired_passthrough"`
}

// WaitForImageURL reports whether door events wait for the snapshot URL.
func (a Account) WaitForImageURL() bool {
	return strings.EqualFold(strings.TrimSpace(a.EventScreenshotOptions), ScreenshotWait)
}

// LoadAccount reads the account file at path. A missing file yields an
// empty Account and no error.
func LoadAccount(path string) (Account, error) {
	var account Account
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return account, nil
	}
	if _, err := toml.DecodeFile(path, &account); err != nil {
		return Account{}, errors.Wrapf(err, "[LoadAccount] decode %s", path)
	}
	if err := account.Validate(); err != nil {
		return Account{}, errors.Wrapf(err, "[LoadAccount] %s", path)
	}
	return account, nil
}

// Validate checks option values that have a closed set.
func (a Account) Validate() error {
	switch strings.ToLower(strings.TrimSpace(a.EventScreenshotOptions)) {
	case "", ScreenshotASAP, ScreenshotWait:
	default:
		return errors.Errorf("event_screenshot_options must be %q or %q, got %q", ScreenshotASAP, ScreenshotWait, a.EventScreenshotOptions)
	}
	if a.TokenRefreshIntervalDays < 0 {
		return errors.New("token_refresh_interval_days must not be negative")
	}
	return nil
}

// CleanPhoneNumber strips separators users commonly type.
func CleanPhoneNumber(phone string) string {
	return strings.NewReplacer("-", "", " ", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}
