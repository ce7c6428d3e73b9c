// Package routes serves reference route tracks from a directory of GPX
// files and seeds the route registry from its contents.
package routes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	"github.com/pablo-ross/komornicka100/internal/domain/gpx"
	"github.com/pablo-ross/komornicka100/pkg/logger"
)

// Registry is the slice of the store the library needs for seeding.
type Registry interface {
	RouteByFilename(ctx context.Context, filename string) (*store.Route, error)
	SaveRoute(ctx context.Context, r *store.Route) error
}

// Library loads and caches route tracks by filename. Route files are
// administrator-managed and effectively immutable while the service runs, so
// the cache has no invalidation.
type Library struct {
	dir    string
	mu     sync.RWMutex
	tracks map[string]geo.Track
	logger logger.Logger
}

// NewLibrary creates a track library rooted at dir.
func NewLibrary(dir string, opts ...Option) *Library {
	l := &Library{
		dir:    dir,
		tracks: make(map[string]geo.Track),
		logger: logger.Get().Named("routes"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Track returns the parsed track for the route's GPX file.
func (l *Library) Track(_ context.Context, filename string) (geo.Track, error) {
	l.mu.RLock()
	track, ok := l.tracks[filename]
	l.mu.RUnlock()
	if ok {
		return track, nil
	}

	content, err := os.ReadFile(filepath.Join(l.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("read route file %s: %w", filename, err)
	}
	track, err = gpx.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse route file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.tracks[filename] = track
	l.mu.Unlock()
	return track, nil
}

// Sync registers every GPX file in the directory that the registry does not
// know yet. Existing rows are left alone so administrators keep control of
// names and the active flag. Unparseable files are logged and skipped.
func (l *Library) Sync(ctx context.Context, reg Registry) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read route directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".gpx") {
			continue
		}
		filename := entry.Name()

		if _, err := reg.RouteByFilename(ctx, filename); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("look up route %s: %w", filename, err)
		}

		content, err := os.ReadFile(filepath.Join(l.dir, filename))
		if err != nil {
			l.logger.Warn(ctx, "skipping unreadable route file",
				logger.String("filename", filename), logger.Error(err))
			continue
		}
		file, err := gpx.ParseFile(content)
		if err != nil {
			l.logger.Warn(ctx, "skipping unparseable route file",
				logger.String("filename", filename), logger.Error(err))
			continue
		}

		name := file.Name
		if name == "" {
			name = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
		route := &store.Route{
			ID:             uuid.NewString(),
			Name:           name,
			Description:    file.Description,
			Filename:       filename,
			DistanceMeters: file.Track.LengthMeters(),
			IsActive:       true,
			CreatedAt:      time.Now().UTC(),
		}
		if err := reg.SaveRoute(ctx, route); err != nil {
			return fmt.Errorf("register route %s: %w", filename, err)
		}

		l.mu.Lock()
		l.tracks[filename] = file.Track
		l.mu.Unlock()

		l.logger.Info(ctx, "registered route",
			logger.String("name", route.Name),
			logger.String("filename", filename),
			logger.Float64("distance_km", route.DistanceMeters/1000))
	}
	return nil
}
