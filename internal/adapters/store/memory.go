package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory implements Store entirely in memory. It mirrors the Postgres
// semantics, including the verified-activity uniqueness backstop and the
// synchronous leaderboard recount, and backs the test suites.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]*User
	credentials map[string]*Credential
	routes      []Route
	attempts    []Attempt
	verified    map[string]*VerifiedActivity // keyed by strava activity id
	leaderboard map[string]*LeaderboardEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*User),
		credentials: make(map[string]*Credential),
		verified:    make(map[string]*VerifiedActivity),
		leaderboard: make(map[string]*LeaderboardEntry),
	}
}

// Seed helpers for wiring fixtures.

// AddUser registers a user.
func (m *Memory) AddUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

// AddRoute registers a reference route. Listing order is insertion order.
func (m *Memory) AddRoute(r Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, r)
}

// Attempts returns a copy of all recorded attempts.
func (m *Memory) Attempts() []Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, len(m.attempts))
	copy(out, m.attempts)
	return out
}

// VerifiedActivities returns a copy of all verified activities.
func (m *Memory) VerifiedActivities() []VerifiedActivity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]VerifiedActivity, 0, len(m.verified))
	for _, v := range m.verified {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StravaActivityID < out[j].StravaActivityID })
	return out
}

func (m *Memory) EligibleUsers(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []User
	for _, u := range m.users {
		if u.IsActive && u.EmailVerified && u.StravaConnected {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *Memory) AdvanceCheckpoint(_ context.Context, userID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	checkpoint := t
	u.LastActivityCheck = &checkpoint
	return nil
}

func (m *Memory) Credential(_ context.Context, userID string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.credentials[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *Memory) SaveCredential(_ context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *cred
	m.credentials[cred.UserID] = &clone
	return nil
}

func (m *Memory) ActiveRoutes(_ context.Context) ([]Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var routes []Route
	for _, r := range m.routes {
		if r.IsActive {
			routes = append(routes, r)
		}
	}
	return routes, nil
}

func (m *Memory) RouteByID(_ context.Context, id string) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routes {
		if r.ID == id {
			clone := r
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RouteByFilename(_ context.Context, filename string) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routes {
		if r.Filename == filename {
			clone := r
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SaveRoute(_ context.Context, r *Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.routes {
		if m.routes[i].ID == r.ID {
			m.routes[i] = *r
			return nil
		}
	}
	m.routes = append(m.routes, *r)
	return nil
}

func (m *Memory) HasVerifiedActivity(_ context.Context, stravaActivityID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.verified[stravaActivityID]
	return ok, nil
}

func (m *Memory) RecordVerification(_ context.Context, attempts []Attempt, activity *VerifiedActivity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts = append(m.attempts, attempts...)

	if activity == nil {
		return false, nil
	}
	if _, exists := m.verified[activity.StravaActivityID]; exists {
		return false, nil
	}

	clone := *activity
	m.verified[activity.StravaActivityID] = &clone
	m.syncLeaderboardLocked(activity.UserID)
	return true, nil
}

// syncLeaderboardLocked recounts the user's verified activities. Caller holds
// the write lock.
func (m *Memory) syncLeaderboardLocked(userID string) {
	count := 0
	for _, v := range m.verified {
		if v.UserID == userID {
			count++
		}
	}

	entry := &LeaderboardEntry{
		UserID:        userID,
		ActivityCount: count,
		LastUpdated:   time.Now().UTC(),
	}
	if u, ok := m.users[userID]; ok {
		entry.FirstName = u.FirstName
		entry.LastName = u.LastName
	}
	m.leaderboard[userID] = entry
}

func (m *Memory) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]LeaderboardEntry, 0, len(m.leaderboard))
	for _, e := range m.leaderboard {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ActivityCount != entries[j].ActivityCount {
			return entries[i].ActivityCount > entries[j].ActivityCount
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *Memory) LeaderboardEntryFor(_ context.Context, userID string) (*LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.leaderboard[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *e
	return &clone, nil
}
