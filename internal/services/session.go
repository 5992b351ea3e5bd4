package services

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/metrics"
	"github.com/brookstone/whatsapp-bot/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired phones.
var ErrSessionNotFound = errors.New("session not found")

const maxCleanupInterval = 5 * time.Minute

type sessionEntry struct {
	mu      sync.Mutex
	session *models.Session
}

// SessionManager manages per-phone conversation state in memory
type SessionManager struct {
	mu         sync.RWMutex
	sessions   map[string]*sessionEntry
	sessionTTL time.Duration
	now        func() time.Time

	logger  *zap.Logger
	metrics *metrics.Metrics

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionManager creates a session manager and starts its cleanup routine.
func NewSessionManager(ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *SessionManager {
	sm := &SessionManager{
		sessions:   make(map[string]*sessionEntry),
		sessionTTL: ttl,
		now:        time.Now,
		logger:     logger,
		metrics:    m,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	interval := ttl / 4
	if interval > maxCleanupInterval || interval <= 0 {
		interval = maxCleanupInterval
	}
	go sm.cleanupExpiredSessions(interval)

	return sm
}

// Acquire returns the session for phone, creating it if missing or expired,
// and holds its lock until release is called. Work on one phone is serialized.
func (sm *SessionManager) Acquire(phone string) (*models.Session, func()) {
	now := sm.now()

	var entry *sessionEntry
	for {
		sm.mu.Lock()
		current, exists := sm.sessions[phone]
		if !exists {
			current = &sessionEntry{session: models.NewSession(phone, now, sm.sessionTTL)}
			sm.sessions[phone] = current
			sm.metrics.SetActiveSessions(len(sm.sessions))
			sm.logger.Debug("session created", zap.String("phone", phone))
		}
		sm.mu.Unlock()

		current.mu.Lock()
		sm.mu.RLock()
		evicted := sm.sessions[phone] != current
		sm.mu.RUnlock()
		if !evicted {
			entry = current
			break
		}
		current.mu.Unlock()
	}

	if now.After(entry.session.ExpiresAt) {
		entry.session = models.NewSession(phone, now, sm.sessionTTL)
		sm.metrics.RecordSessionsExpired(1)
	}
	entry.session.Touch(now, sm.sessionTTL)

	return entry.session, entry.mu.Unlock
}

// GetSession returns a copy of an active session.
func (sm *SessionManager) GetSession(phone string) (models.Session, error) {
	sm.mu.RLock()
	entry, exists := sm.sessions[phone]
	sm.mu.RUnlock()
	if !exists {
		return models.Session{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if sm.now().After(entry.session.ExpiresAt) {
		return models.Session{}, ErrSessionNotFound
	}
	return copySession(entry.session), nil
}

// ExpireSession drops a session immediately.
func (sm *SessionManager) ExpireSession(phone string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[phone]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, phone)
	sm.metrics.SetActiveSessions(len(sm.sessions))
	sm.logger.Info("session expired manually", zap.String("phone", phone))
	return nil
}

// GetActiveSessions returns copies of all unexpired sessions, most recently active first.
func (sm *SessionManager) GetActiveSessions() []models.Session {
	sm.mu.RLock()
	entries := make([]*sessionEntry, 0, len(sm.sessions))
	for _, entry := range sm.sessions {
		entries = append(entries, entry)
	}
	sm.mu.RUnlock()

	now := sm.now()
	active := make([]models.Session, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !now.After(entry.session.ExpiresAt) {
			active = append(active, copySession(entry.session))
		}
		entry.mu.Unlock()
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActive.After(active[j].LastActive)
	})
	return active
}

// CleanupExpired evicts idle sessions and returns how many were removed.
// Sessions currently held by Acquire are skipped.
func (sm *SessionManager) CleanupExpired() int {
	now := sm.now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for phone, entry := range sm.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		expired := now.After(entry.session.ExpiresAt)
		entry.mu.Unlock()
		if expired {
			delete(sm.sessions, phone)
			removed++
		}
	}

	sm.metrics.SetActiveSessions(len(sm.sessions))
	sm.metrics.RecordSessionsExpired(removed)
	return removed
}

// Close stops the cleanup routine.
func (sm *SessionManager) Close() {
	sm.closeOnce.Do(func() {
		close(sm.stop)
		<-sm.done
	})
}

func (sm *SessionManager) cleanupExpiredSessions(interval time.Duration) {
	defer close(sm.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			if n := sm.CleanupExpired(); n > 0 {
				sm.logger.Info("cleaned up expired sessions", zap.Int("count", n))
			}
		}
	}
}

func copySession(s *models.Session) models.Session {
	c := *s
	c.History = append([]models.ChatTurn(nil), s.History...)
	return c
}
