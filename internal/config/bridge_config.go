package config

import "time"

type BridgeConfig interface {
	GetRequestTimeout() time.Duration
	GetPollInterval() time.Duration
	GetImageWaitTimeout() time.Duration
	GetImageWaitInterval() time.Duration
	GetImageBackfillDelay() time.Duration
	GetTokenRefreshIntervalDays() int
	GetTokenExpiry() time.Duration
	GetRefreshCheckInterval() time.Duration
}

type Bridge struct{}

var _ BridgeConfig = Bridge{}

func (Bridge) GetRequestTimeout() time.Duration {
	return 10 * time.Second
}

func (Bridge) GetPollInterval() time.Duration {
	return 2 * time.Second
}

func (Bridge) GetImageWaitTimeout() time.Duration {
	return 5 * time.Second
}

func (Bridge) GetImageWaitInterval() time.Duration {
	return 500 * time.Millisecond
}

func (Bridge) GetImageBackfillDelay() time.Duration {
	return 3 * time.Second
}

// GetTokenRefreshIntervalDays leaves one day of margin before the upstream's
// 7 day hard expiry.
func (Bridge) GetTokenRefreshIntervalDays() int {
	return 6
}

func (Bridge) GetTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

func (Bridge) GetRefreshCheckInterval() time.Duration {
	return time.Hour
}
