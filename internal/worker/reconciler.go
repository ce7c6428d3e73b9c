// Package worker schedules the periodic reconciliation sweep: discover each
// eligible user's new activities and push them through verification.
package worker

import (
	"context"
	"time"

	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/domain/verification"
	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

// Default scheduling constants.
const (
	defaultInterval        = 2 * time.Hour
	defaultWindowStartHour = 6
	defaultWindowEndHour   = 22
	defaultInitialLookback = 30 * 24 * time.Hour
	defaultOverlap         = 24 * time.Hour
	defaultTimezone        = "Europe/Warsaw"
)

// Verifier runs one activity through the verification pipeline.
type Verifier interface {
	Verify(ctx context.Context, userID, activityID, routeID string) (verification.Outcome, error)
}

// TokenSource hands out a live access token for a user.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// Lister returns the ids of qualifying activities started after the given
// instant.
type Lister interface {
	ActivitiesSince(ctx context.Context, accessToken string, since time.Time) ([]string, error)
}

// Store is the slice of the persistence layer the reconciler needs.
type Store interface {
	EligibleUsers(ctx context.Context) ([]store.User, error)
	AdvanceCheckpoint(ctx context.Context, userID string, t time.Time) error
}

// Reconciler sweeps eligible users on a fixed interval, but only inside the
// configured daily active window. Ticks outside the window are skipped, not
// queued.
type Reconciler struct {
	store    Store
	tokens   TokenSource
	lister   Lister
	verifier Verifier

	interval        time.Duration
	windowStartHour int
	windowEndHour   int
	location        *time.Location
	initialLookback time.Duration
	overlap         time.Duration
	// advanceAfterRun moves the checkpoint only after a user's sweep
	// completes, trading the risk of re-scanning a window after a crash for
	// never missing a late upload.
	advanceAfterRun bool

	now    func() time.Time
	logger logger.Logger
}

// NewReconciler creates a reconciler with configuration options.
func NewReconciler(st Store, tokens TokenSource, lister Lister, verifier Verifier, opts ...Option) *Reconciler {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	r := &Reconciler{
		store:           st,
		tokens:          tokens,
		lister:          lister,
		verifier:        verifier,
		interval:        defaultInterval,
		windowStartHour: defaultWindowStartHour,
		windowEndHour:   defaultWindowEndHour,
		location:        loc,
		initialLookback: defaultInitialLookback,
		overlap:         defaultOverlap,
		now:             time.Now,
		logger:          logger.Get().Named("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InActiveWindow reports whether t falls inside the daily active window.
func (r *Reconciler) InActiveWindow(t time.Time) bool {
	h := t.In(r.location).Hour()
	return h >= r.windowStartHour && h < r.windowEndHour
}

// Run sweeps immediately when inside the active window, then on every
// interval tick until the context is canceled. A sweep failure is logged and
// the loop continues with the next tick.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info(ctx, "reconciler started",
		logger.Duration("interval", r.interval),
		logger.Int("window_start_hour", r.windowStartHour),
		logger.Int("window_end_hour", r.windowEndHour))

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "reconciler stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	if !r.InActiveWindow(r.now()) {
		metrics.RecordReconcileTickSkipped()
		r.logger.Debug(ctx, "tick outside active window, skipping")
		return
	}
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error(ctx, "sweep failed", logger.Error(err))
	}
}

// RunOnce performs one full sweep over all eligible users. A failure for one
// user never stops the rest of the sweep.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := r.now()
	r.logger.Info(ctx, "starting activity sweep")

	users, err := r.store.EligibleUsers(ctx)
	if err != nil {
		return err
	}
	metrics.UpdateUsersProcessed(len(users))

	for i := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.processUser(ctx, &users[i]); err != nil {
			r.logger.Warn(ctx, "user sweep failed",
				logger.String("user_id", users[i].ID), logger.Error(err))
		}
	}

	metrics.RecordReconcileRun(r.now().Sub(start).Seconds())
	r.logger.Info(ctx, "activity sweep finished",
		logger.Int("users", len(users)),
		logger.Duration("elapsed", r.now().Sub(start)))
	return nil
}

func (r *Reconciler) processUser(ctx context.Context, user *store.User) error {
	token, err := r.tokens.AccessToken(ctx, user.ID)
	if err != nil {
		return err
	}

	now := r.now()
	since := r.lookbackStart(user, now)

	if !r.advanceAfterRun {
		// Advancing before the fetch bounds the scan window even across
		// crashes; the overlap covers late-arriving activities.
		if err := r.store.AdvanceCheckpoint(ctx, user.ID, now); err != nil {
			return err
		}
	}

	activityIDs, err := r.lister.ActivitiesSince(ctx, token, since)
	if err != nil {
		return err
	}
	if len(activityIDs) == 0 {
		r.logger.Debug(ctx, "no new activities", logger.String("user_id", user.ID))
		return nil
	}
	r.logger.Info(ctx, "found new activities",
		logger.String("user_id", user.ID), logger.Int("count", len(activityIDs)))

	for _, activityID := range activityIDs {
		outcome, err := r.verifier.Verify(ctx, user.ID, activityID, "")
		if err != nil {
			// Per-activity failures are isolated; the next overlapping
			// sweep retries.
			r.logger.Warn(ctx, "activity verification failed",
				logger.String("user_id", user.ID),
				logger.String("activity_id", activityID),
				logger.Error(err))
			continue
		}
		r.logger.Info(ctx, "activity checked",
			logger.String("user_id", user.ID),
			logger.String("activity_id", activityID),
			logger.String("status", string(outcome.Status)),
			logger.String("message", outcome.Message))
	}

	if r.advanceAfterRun {
		if err := r.store.AdvanceCheckpoint(ctx, user.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// lookbackStart computes where the user's activity scan begins: one overlap
// behind the checkpoint, or the initial lookback for first-time users.
func (r *Reconciler) lookbackStart(user *store.User, now time.Time) time.Time {
	if user.LastActivityCheck != nil {
		return user.LastActivityCheck.Add(-r.overlap)
	}
	return now.Add(-r.initialLookback)
}
