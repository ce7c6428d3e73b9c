// Package service wires the verification system together: store, Strava
// client, route library, matcher, orchestrator, and reconciler.
package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pablo-ross/komornicka100/internal/adapters/notifier"
	"github.com/pablo-ross/komornicka100/internal/adapters/routes"
	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/adapters/strava"
	"github.com/pablo-ross/komornicka100/internal/config"
	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	"github.com/pablo-ross/komornicka100/internal/domain/similarity"
	"github.com/pablo-ross/komornicka100/internal/domain/verification"
	"github.com/pablo-ross/komornicka100/internal/worker"
	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

// providerAdapter exposes the Strava client through the interfaces the
// orchestrator and reconciler consume.
type providerAdapter struct {
	client *strava.Client
	kind   string
}

func (p *providerAdapter) Metadata(ctx context.Context, accessToken, activityID string) (*verification.Metadata, error) {
	act, err := p.client.Activity(ctx, accessToken, activityID)
	if err != nil {
		return nil, err
	}
	return &verification.Metadata{
		Name:           act.Name,
		Kind:           act.Kind,
		DistanceMeters: act.DistanceMeters,
		ElapsedSeconds: act.ElapsedTime,
		StartDate:      act.StartDate,
	}, nil
}

func (p *providerAdapter) Track(ctx context.Context, accessToken, activityID string) (geo.Track, error) {
	return p.client.Streams(ctx, accessToken, activityID)
}

func (p *providerAdapter) ActivitiesSince(ctx context.Context, accessToken string, since time.Time) ([]string, error) {
	acts, err := p.client.ActivitiesAfter(ctx, accessToken, since, p.kind)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(acts))
	for i, act := range acts {
		ids[i] = strconv.FormatInt(act.ID, 10)
	}
	return ids, nil
}

// Service owns the wired component graph for both the worker daemon and the
// one-shot verify command.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store        store.Store
	library      *routes.Library
	tokens       *strava.TokenService
	notifier     notifier.Notifier
	orchestrator *verification.Orchestrator
	reconciler   *worker.Reconciler

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a store, bypassing the Postgres connection. Used by
// tests and tooling.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithNotifier overrides the notifier chosen from configuration.
func WithNotifier(n notifier.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects the store, seeds the route registry, and builds the
// verification pipeline. It does not begin the reconciliation loop; run
// Reconciler().Run for that.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting verification service")

	if s.store == nil {
		pg, err := store.OpenPostgres(s.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		s.store = pg
	}

	s.library = routes.NewLibrary(s.cfg.SourceGPXPath)
	if err := s.library.Sync(ctx, s.store); err != nil {
		// Routes already registered in the store still verify.
		s.logger.Warn(ctx, "route directory sync failed", logger.Error(err))
	}

	client := strava.NewClient()
	s.tokens = strava.NewTokenService(s.store, s.cfg.StravaClientID, s.cfg.StravaClientSecret)

	if s.notifier == nil {
		if s.cfg.SMTPServer != "" {
			s.notifier = notifier.NewEmail(
				s.cfg.SMTPServer, s.cfg.SMTPPort,
				s.cfg.SMTPUsername, s.cfg.SMTPPassword,
				s.cfg.ProjectName,
			)
		} else {
			s.notifier = notifier.NewLog()
		}
	}

	matcher := similarity.NewMatcher(
		similarity.WithSimplifyTolerance(s.cfg.SimplifyTolerance),
		similarity.WithMaxDeviation(s.cfg.MaxDeviationMeters),
		similarity.WithThreshold(s.cfg.SimilarityThreshold),
		similarity.WithMinTrackPoints(s.cfg.MinTrackPoints),
	)

	provider := &providerAdapter{client: client, kind: s.cfg.ActivityKind}

	s.orchestrator = verification.NewOrchestrator(
		s.tokens, provider, s.store, s.library, s.notifier,
		verification.WithMatcher(matcher),
		verification.WithActivityKind(s.cfg.ActivityKind),
		verification.WithMinDistance(s.cfg.MinDistanceKM*1000),
	)

	s.reconciler = worker.NewReconciler(
		s.store, s.tokens, provider, s.orchestrator,
		worker.WithInterval(s.cfg.CheckInterval),
		worker.WithActiveWindow(s.cfg.WindowStartHour, s.cfg.WindowEndHour),
		worker.WithLocation(s.cfg.Location()),
		worker.WithInitialLookback(s.cfg.InitialLookback),
		worker.WithOverlap(s.cfg.CheckpointOverlap),
		worker.WithAdvanceAfterRun(s.cfg.AdvanceAfterRun),
	)

	s.started = true
	s.logger.Info(ctx, "verification service started",
		logger.String("routes_dir", s.cfg.SourceGPXPath),
		logger.Duration("check_interval", s.cfg.CheckInterval))
	return nil
}

// Stop releases held resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping verification service")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "verification service stopped")
}

// Verifier returns the verification orchestrator. Valid after Start.
func (s *Service) Verifier() *verification.Orchestrator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orchestrator
}

// Reconciler returns the reconciliation worker. Valid after Start.
func (s *Service) Reconciler() *worker.Reconciler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconciler
}

// Store returns the wired store. Valid after Start.
func (s *Service) Store() store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// RefreshStats pushes store-derived gauges to the metrics registry.
func (s *Service) RefreshStats(ctx context.Context) {
	s.mu.RLock()
	st := s.store
	started := s.started
	s.mu.RUnlock()

	if !started {
		return
	}

	entries, err := st.Leaderboard(ctx, 0)
	if err != nil {
		metrics.RecordLeaderboardError()
		s.logger.Warn(ctx, "leaderboard stats refresh failed", logger.Error(err))
		return
	}
	metrics.UpdateLeaderboardSize(len(entries))
}
