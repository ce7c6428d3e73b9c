package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pablo-ross/komornicka100/internal/adapters/notifier"
	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	"github.com/pablo-ross/komornicka100/internal/domain/similarity"
	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultActivityKind      = "Ride"
	defaultMinDistanceMeters = 100_000.0
)

// Orchestrator coordinates one verification call end to end. It is safe for
// concurrent use; all state lives in its collaborators.
type Orchestrator struct {
	tokens   TokenSource
	provider ActivityProvider
	store    Store
	tracks   RouteTracks
	notifier Notifier

	matcher           *similarity.Matcher
	activityKind      string
	minDistanceMeters float64
	now               func() time.Time
	logger            logger.Logger
}

// NewOrchestrator creates a verification orchestrator with configuration
// options.
func NewOrchestrator(tokens TokenSource, provider ActivityProvider, st Store, tracks RouteTracks, n Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tokens:            tokens,
		provider:          provider,
		store:             st,
		tracks:            tracks,
		notifier:          n,
		matcher:           similarity.NewMatcher(),
		activityKind:      defaultActivityKind,
		minDistanceMeters: defaultMinDistanceMeters,
		now:               time.Now,
		logger:            logger.Get().Named("verification"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Verify checks one activity for one user. When routeID is empty the activity
// is compared against every active reference route and the best-scoring match
// decides the outcome; ties keep the first route seen.
//
// Attempt rows are written for every comparison that ran, in one atomic batch
// with the verified-activity row and the leaderboard recount. A duplicate
// verification of an already-recorded activity returns a verified outcome
// without new side effects.
func (o *Orchestrator) Verify(ctx context.Context, userID, activityID, routeID string) (Outcome, error) {
	outcome, err := o.verify(ctx, userID, activityID, routeID)
	metrics.RecordOutcome(string(outcome.Status))
	return outcome, err
}

func (o *Orchestrator) verify(ctx context.Context, userID, activityID, routeID string) (Outcome, error) {
	token, err := o.tokens.AccessToken(ctx, userID)
	if err != nil {
		return Outcome{
			Status:  StatusCredentialUnavailable,
			Message: fmt.Sprintf("Failed to get valid token: %s", err),
		}, nil
	}

	meta, err := o.provider.Metadata(ctx, token, activityID)
	if err != nil {
		return Outcome{
			Status:  StatusProviderError,
			Message: fmt.Sprintf("Failed to get activity details: %s", err),
		}, nil
	}

	// The kind filter never reached a comparison, so no attempt is written.
	if meta.Kind != o.activityKind {
		return Outcome{
			Status:  StatusWrongActivityKind,
			Message: fmt.Sprintf("Activity is not a bike ride (type: %s)", meta.Kind),
		}, nil
	}

	candidate, err := o.provider.Track(ctx, token, activityID)
	if err != nil {
		return Outcome{
			Status:  StatusProviderError,
			Message: fmt.Sprintf("Failed to get activity streams: %s", err),
		}, nil
	}
	if len(candidate) == 0 {
		return Outcome{
			Status:  StatusNoGPSData,
			Message: "No GPS data found in activity",
		}, nil
	}

	if meta.DistanceMeters < o.minDistanceMeters {
		return o.recordTooShort(ctx, userID, activityID, meta)
	}

	routes, terminal, err := o.candidateRoutes(ctx, routeID)
	if err != nil {
		return Outcome{}, err
	}
	if terminal != nil {
		return *terminal, nil
	}

	return o.compareAndRecord(ctx, userID, activityID, meta, candidate, routes)
}

// recordTooShort persists the single failed attempt the distance gate leaves
// behind. The attempt has no route; the comparison never ran.
func (o *Orchestrator) recordTooShort(ctx context.Context, userID, activityID string, meta *Metadata) (Outcome, error) {
	message := fmt.Sprintf("Activity distance (%.1fkm) is less than required (%.1fkm)",
		meta.DistanceMeters/1000, o.minDistanceMeters/1000)

	attempt := o.newAttempt(userID, activityID, meta, nil, similarity.Result{Message: message})
	if _, err := o.store.RecordVerification(ctx, []store.Attempt{attempt}, nil); err != nil {
		return Outcome{}, fmt.Errorf("record distance-gate attempt: %w", err)
	}
	metrics.RecordAttempt()

	return Outcome{Status: StatusTooShort, Message: message}, nil
}

// candidateRoutes resolves the scan set: the one requested route, or every
// active route. A terminal outcome is returned instead when the set is empty
// or the requested route is unusable.
func (o *Orchestrator) candidateRoutes(ctx context.Context, routeID string) ([]store.Route, *Outcome, error) {
	if routeID != "" {
		route, err := o.store.RouteByID(ctx, routeID)
		if err != nil || !route.IsActive {
			return nil, &Outcome{
				Status:  StatusRouteUnavailable,
				Message: fmt.Sprintf("Source route %s not found or inactive", routeID),
			}, nil
		}
		return []store.Route{*route}, nil, nil
	}

	routes, err := o.store.ActiveRoutes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list active routes: %w", err)
	}
	if len(routes) == 0 {
		return nil, &Outcome{
			Status:  StatusRouteUnavailable,
			Message: "No active source routes found",
		}, nil
	}
	return routes, nil, nil
}

func (o *Orchestrator) compareAndRecord(ctx context.Context, userID, activityID string, meta *Metadata, candidate geo.Track, routes []store.Route) (Outcome, error) {
	var (
		attempts   []store.Attempt
		best       similarity.Result
		bestRoute  *store.Route
		firstScore = true
	)

	for i := range routes {
		route := routes[i]
		reference, err := o.tracks.Track(ctx, route.Filename)
		if err != nil {
			// One unreadable route never sinks the scan.
			o.logger.Warn(ctx, "skipping unreadable reference route",
				logger.String("route_id", route.ID),
				logger.String("filename", route.Filename),
				logger.Error(err))
			continue
		}

		result := o.matcher.Match(reference, candidate)
		attempts = append(attempts, o.newAttempt(userID, activityID, meta, &route.ID, result))
		metrics.RecordAttempt()
		metrics.RecordSimilarityScore(result.Score)

		// Strictly greater keeps the first-seen route on ties.
		if firstScore || result.Score > best.Score {
			best = result
			bestRoute = &routes[i]
			firstScore = false
		}
	}

	if bestRoute == nil {
		return Outcome{
			Status:  StatusRouteUnavailable,
			Message: "No usable source routes found",
		}, nil
	}

	outcome := Outcome{
		Score:     best.Score,
		Message:   best.Message,
		RouteID:   bestRoute.ID,
		RouteName: bestRoute.Name,
	}

	if !best.Verified {
		if _, err := o.store.RecordVerification(ctx, attempts, nil); err != nil {
			return Outcome{}, fmt.Errorf("record attempts: %w", err)
		}
		outcome.Status = StatusUnverified
		if best.InsufficientPoints {
			outcome.Status = StatusInsufficientPoints
		}
		return outcome, nil
	}

	activity := &store.VerifiedActivity{
		ID:               uuid.NewString(),
		UserID:           userID,
		StravaActivityID: activityID,
		RouteID:          bestRoute.ID,
		Name:             meta.Name,
		DistanceMeters:   meta.DistanceMeters,
		DurationSeconds:  meta.ElapsedSeconds,
		StartDate:        meta.StartDate,
		SimilarityScore:  best.Score,
		VerifiedAt:       o.now().UTC(),
	}

	created, err := o.store.RecordVerification(ctx, attempts, activity)
	if err != nil {
		return Outcome{}, fmt.Errorf("record verification: %w", err)
	}

	outcome.Status = StatusVerified
	if !created {
		outcome.AlreadyRecorded = true
		return outcome, nil
	}

	metrics.RecordActivityVerified()
	o.logger.Info(ctx, "activity verified",
		logger.String("user_id", userID),
		logger.String("activity_id", activityID),
		logger.String("route", bestRoute.Name),
		logger.Float64("score", best.Score))

	o.notify(ctx, userID, meta, bestRoute.Name)
	return outcome, nil
}

// notify is fire and forget: delivery failure never affects the outcome.
func (o *Orchestrator) notify(ctx context.Context, userID string, meta *Metadata, routeName string) {
	user, err := o.store.UserByID(ctx, userID)
	if err != nil {
		o.logger.Warn(ctx, "cannot notify unknown user",
			logger.String("user_id", userID), logger.Error(err))
		return
	}

	err = o.notifier.NotifyVerified(ctx, notifier.Verification{
		Email:        user.Email,
		FirstName:    user.FirstName,
		ActivityName: meta.Name,
		ActivityDate: meta.StartDate,
		RouteName:    routeName,
	})
	if err != nil {
		o.logger.Warn(ctx, "verification notification failed",
			logger.String("user_id", userID), logger.Error(err))
	}
}

func (o *Orchestrator) newAttempt(userID, activityID string, meta *Metadata, routeID *string, result similarity.Result) store.Attempt {
	return store.Attempt{
		ID:               uuid.NewString(),
		UserID:           userID,
		StravaActivityID: activityID,
		RouteID:          routeID,
		Name:             meta.Name,
		DistanceMeters:   meta.DistanceMeters,
		DurationSeconds:  meta.ElapsedSeconds,
		StartDate:        meta.StartDate,
		CheckedAt:        o.now().UTC(),
		Verified:         result.Verified,
		SimilarityScore:  result.Score,
		Message:          result.Message,
	}
}
