// Package verification runs a user's activity through the full contest
// check: credential, metadata, GPS stream, distance gate, per-route
// comparison, and exactly-once recording of the verdict.
package verification

import (
	"context"
	"time"

	"github.com/pablo-ross/komornicka100/internal/adapters/notifier"
	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/domain/geo"
)

// Status classifies the terminal state of one verification call.
type Status string

// Verification statuses.
const (
	StatusVerified              Status = "verified"
	StatusUnverified            Status = "unverified"
	StatusCredentialUnavailable Status = "credential_unavailable"
	StatusProviderError         Status = "provider_error"
	StatusWrongActivityKind     Status = "wrong_activity_kind"
	StatusNoGPSData             Status = "no_gps_data"
	StatusTooShort              Status = "too_short"
	StatusInsufficientPoints    Status = "insufficient_points"
	StatusRouteUnavailable      Status = "route_unavailable"
)

// Outcome is the structured result of one verification call. Message is
// human readable and safe to surface directly.
type Outcome struct {
	Status    Status
	Score     float64
	Message   string
	RouteID   string
	RouteName string
	// AlreadyRecorded is set when the activity was verified on an earlier
	// call; the outcome is still StatusVerified but no new side effects
	// happened.
	AlreadyRecorded bool
}

// Verified reports whether the outcome counts toward the contest.
func (o Outcome) Verified() bool { return o.Status == StatusVerified }

// Metadata is the activity summary the orchestrator needs from the provider.
type Metadata struct {
	Name           string
	Kind           string
	DistanceMeters float64
	ElapsedSeconds int
	StartDate      time.Time
}

// TokenSource hands out a live access token for a user. Any error means the
// user's credential is unavailable for this call.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// ActivityProvider fetches activity metadata and GPS tracks.
type ActivityProvider interface {
	Metadata(ctx context.Context, accessToken, activityID string) (*Metadata, error)
	Track(ctx context.Context, accessToken, activityID string) (geo.Track, error)
}

// RouteTracks resolves a reference route's GPX file to its track.
type RouteTracks interface {
	Track(ctx context.Context, filename string) (geo.Track, error)
}

// Store is the slice of the persistence layer the orchestrator needs.
type Store interface {
	UserByID(ctx context.Context, id string) (*store.User, error)
	ActiveRoutes(ctx context.Context) ([]store.Route, error)
	RouteByID(ctx context.Context, id string) (*store.Route, error)
	HasVerifiedActivity(ctx context.Context, stravaActivityID string) (bool, error)
	RecordVerification(ctx context.Context, attempts []store.Attempt, activity *store.VerifiedActivity) (bool, error)
}

// Notifier delivers the verified-activity notification.
type Notifier = notifier.Notifier
