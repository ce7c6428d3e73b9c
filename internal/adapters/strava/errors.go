package strava

import "errors"

// Sentinel errors for the Strava adapter.
var (
	// ErrNoCredential indicates the user has no stored OAuth credential.
	ErrNoCredential = errors.New("no stored credential for user")

	// ErrTokenRefresh indicates the provider rejected a refresh attempt.
	ErrTokenRefresh = errors.New("token refresh failed")
)
