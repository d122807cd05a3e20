package store

import "context"

// Persisted keys. The store is a flat map so writers touching different
// keys never overwrite each other.
const (
	KeyToken            = "token"
	KeyRefreshToken     = "refresh_token"
	KeyAuthToken        = "auth_token"
	KeyLastTokenRefresh = "last_token_refresh" // epoch seconds
	KeyLatestDoorLog    = "latest_door_log"
	KeyWaitForImageURL  = "wait_for_image_url"
	KeyHost             = "host"
	KeySubdomain        = "subdomain"
	KeyAppType          = "app_type"
)

// Repo is a durable key/value store. Values are JSON encoded.
type Repo interface {
	// Get decodes the value stored under key into out. It reports false
	// when the key is absent.
	Get(ctx context.Context, key string, out any) (bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}
