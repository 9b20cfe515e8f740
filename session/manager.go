package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/dto"
)

// ErrProfileNotFound is returned by a ProfileStore that has no profile for an applicant.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists profiles between requests.
type ProfileStore interface {
	Load(ctx context.Context, applicantID string) (dto.UserProfile, error)
	Save(ctx context.Context, profile dto.UserProfile) error
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Manager hands out one Session per applicant and writes profiles back to the store.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	store    ProfileStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewManager(store ProfileStore, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the live session for an applicant, loading it from the store on first use.
// Unknown applicants start with an empty NotStarted profile.
func (m *Manager) Get(ctx context.Context, applicantID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[applicantID]; ok {
		e.lastUsed = m.now()
		return e.session, nil
	}

	profile := dto.NewUserProfile(applicantID)
	if m.store != nil {
		loaded, err := m.store.Load(ctx, applicantID)
		switch {
		case err == nil:
			profile = loaded
		case errors.Is(err, ErrProfileNotFound):
		default:
			return nil, fmt.Errorf("failed to load profile %s: %w", applicantID, err)
		}
	}

	s := New(profile)
	m.sessions[applicantID] = &entry{session: s, lastUsed: m.now()}
	return s, nil
}

// Persist writes the profile to the store. A store failure is logged and returned;
// the in-memory session stays authoritative.
func (m *Manager) Persist(ctx context.Context, profile dto.UserProfile) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, profile); err != nil {
		m.logger.Error("failed to persist profile",
			zap.String("applicant_id", profile.ApplicantID), zap.Error(err))
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// EvictIdle drops sessions not used for longer than idle. Sessions with a verification
// still running are kept. With a store configured the next Get reloads the profile;
// without one the application is gone.
func (m *Manager) EvictIdle(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	evicted := 0
	for id, e := range m.sessions {
		if e.lastUsed.After(cutoff) || e.session.Busy() {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is cancelled.
func (m *Manager) RunEviction(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(idle); n > 0 {
				m.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
