package config

import "time"

type SecurityConfig interface {
	GetAPISecret() string
	GetAPITokenExpiry() time.Duration
	GetRequireAPIAuth() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAPISecret is the HMAC key for bearer tokens on the host-facing API.
func (Security) GetAPISecret() string {
	return GetEnv("BRIDGE_API_SECRET", "")
}

func (Security) GetAPITokenExpiry() time.Duration {
	return 30 * 24 * time.Hour
}

// GetRequireAPIAuth is false only when no secret is configured, which keeps
// a loopback-only install usable without setup.
func (s Security) GetRequireAPIAuth() bool {
	return s.GetAPISecret() != ""
}
