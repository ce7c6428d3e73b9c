// Package store defines the persistence records and the Store contract the
// verification core depends on.
package store

import (
	"context"
	"time"
)

// User is a contest participant.
type User struct {
	ID                string     `gorm:"column:id;primaryKey" json:"id"`
	Email             string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	FirstName         string     `gorm:"column:first_name;not null" json:"first_name"`
	LastName          string     `gorm:"column:last_name;not null" json:"last_name"`
	StravaID          string     `gorm:"column:strava_id;index" json:"strava_id"`
	IsActive          bool       `gorm:"column:is_active;default:true" json:"is_active"`
	EmailVerified     bool       `gorm:"column:is_email_verified;default:false" json:"is_email_verified"`
	StravaConnected   bool       `gorm:"column:is_strava_connected;default:false" json:"is_strava_connected"`
	LastActivityCheck *time.Time `gorm:"column:last_activity_check" json:"last_activity_check"`
}

func (User) TableName() string { return "users" }

// Credential holds a user's OAuth tokens for the activity provider.
type Credential struct {
	UserID       string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	AccessToken  string    `gorm:"column:access_token;not null" json:"-"`
	RefreshToken string    `gorm:"column:refresh_token;not null" json:"-"`
	TokenType    string    `gorm:"column:token_type" json:"token_type"`
	ExpiresAt    int64     `gorm:"column:expires_at;not null" json:"expires_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Credential) TableName() string { return "credentials" }

// Route is an administrator-provided reference route. The source track lives
// in a GPX file on disk; rows are read-only to the core except the active
// flag, which administrators toggle.
type Route struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Description    string    `gorm:"column:description" json:"description"`
	Filename       string    `gorm:"column:filename;not null" json:"filename"`
	DistanceMeters float64   `gorm:"column:distance" json:"distance"`
	IsActive       bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Route) TableName() string { return "source_routes" }

// Attempt is the audit record of one comparison, successful or not.
// RouteID is nil when the activity never reached a per-route comparison.
type Attempt struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	UserID           string    `gorm:"column:user_id;index;not null" json:"user_id"`
	StravaActivityID string    `gorm:"column:strava_activity_id;index;not null" json:"strava_activity_id"`
	RouteID          *string   `gorm:"column:route_id" json:"route_id"`
	Name             string    `gorm:"column:name" json:"name"`
	DistanceMeters   float64   `gorm:"column:distance" json:"distance"`
	DurationSeconds  int       `gorm:"column:duration" json:"duration"`
	StartDate        time.Time `gorm:"column:start_date" json:"start_date"`
	CheckedAt        time.Time `gorm:"column:checked_at" json:"checked_at"`
	Verified         bool      `gorm:"column:is_verified" json:"is_verified"`
	SimilarityScore  float64   `gorm:"column:similarity_score" json:"similarity_score"`
	Message          string    `gorm:"column:verification_message" json:"verification_message"`
}

func (Attempt) TableName() string { return "verification_attempts" }

// VerifiedActivity is the canonical record that an activity counts toward the
// contest. At most one row may exist per external activity id, globally.
type VerifiedActivity struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	UserID           string    `gorm:"column:user_id;index;not null" json:"user_id"`
	StravaActivityID string    `gorm:"column:strava_activity_id;uniqueIndex;not null" json:"strava_activity_id"`
	RouteID          string    `gorm:"column:route_id;not null" json:"route_id"`
	Name             string    `gorm:"column:name" json:"name"`
	DistanceMeters   float64   `gorm:"column:distance" json:"distance"`
	DurationSeconds  int       `gorm:"column:duration" json:"duration"`
	StartDate        time.Time `gorm:"column:start_date" json:"start_date"`
	SimilarityScore  float64   `gorm:"column:similarity_score" json:"similarity_score"`
	VerifiedAt       time.Time `gorm:"column:verified_at" json:"verified_at"`
}

func (VerifiedActivity) TableName() string { return "verified_activities" }

// LeaderboardEntry is the materialized per-user aggregate. ActivityCount is
// recomputed from verified activities on every write, never incremented
// blindly.
type LeaderboardEntry struct {
	UserID        string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	FirstName     string    `gorm:"column:first_name" json:"first_name"`
	LastName      string    `gorm:"column:last_name" json:"last_name"`
	ActivityCount int       `gorm:"column:activity_count" json:"activity_count"`
	LastUpdated   time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (LeaderboardEntry) TableName() string { return "leaderboard" }

// Store provides typed access to contest state. Implementations must enforce
// the verified-activity uniqueness constraint; callers rely on nothing
// stronger than that to prevent double counting.
type Store interface {
	// EligibleUsers returns active users with a verified email and a
	// connected credential.
	EligibleUsers(ctx context.Context) ([]User, error)

	// UserByID returns the user or ErrNotFound.
	UserByID(ctx context.Context, id string) (*User, error)

	// AdvanceCheckpoint sets the user's last activity check instant.
	AdvanceCheckpoint(ctx context.Context, userID string, t time.Time) error

	// Credential returns the user's credential or ErrNotFound.
	Credential(ctx context.Context, userID string) (*Credential, error)

	// SaveCredential upserts the user's credential.
	SaveCredential(ctx context.Context, cred *Credential) error

	// ActiveRoutes lists reference routes with the active flag set, in a
	// stable order.
	ActiveRoutes(ctx context.Context) ([]Route, error)

	// RouteByID returns the route or ErrNotFound.
	RouteByID(ctx context.Context, id string) (*Route, error)

	// RouteByFilename returns the route backed by the given GPX file, or
	// ErrNotFound. Inactive routes are included.
	RouteByFilename(ctx context.Context, filename string) (*Route, error)

	// SaveRoute upserts a reference route.
	SaveRoute(ctx context.Context, r *Route) error

	// HasVerifiedActivity reports whether any verified activity exists for
	// the external activity id.
	HasVerifiedActivity(ctx context.Context, stravaActivityID string) (bool, error)

	// RecordVerification persists attempt rows and, when activity is not
	// nil, the verified activity plus a synchronous leaderboard recount for
	// its user, all atomically. It reports whether a new verified activity
	// row was created; a duplicate external activity id is an idempotent
	// no-op, not an error.
	RecordVerification(ctx context.Context, attempts []Attempt, activity *VerifiedActivity) (bool, error)

	// Leaderboard returns up to limit entries ordered by activity count
	// descending.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// LeaderboardEntryFor returns the user's entry or ErrNotFound.
	LeaderboardEntryFor(ctx context.Context, userID string) (*LeaderboardEntry, error)
}
