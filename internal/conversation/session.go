package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/sculpture"
)

const (
	// DefaultSessionID is the implicit session shared by every client in
	// single-user mode.
	DefaultSessionID = "default"

	// SessionInactivityTimeout is how long a session can be inactive before cleanup.
	SessionInactivityTimeout = 24 * time.Hour

	// SessionCleanupInterval is how often to run cleanup.
	SessionCleanupInterval = 1 * time.Hour

	// MaxSessions is the maximum number of sessions before LRU eviction.
	MaxSessions = 1000
)

// Session holds the sculpture state and conversation log of one user.
// All methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	state sculpture.State
	log   *Log
}

// NewSession returns a session with default state and a seeded log.
func NewSession() *Session {
	return &Session{
		state: sculpture.New(),
		log:   NewLog(),
	}
}

// State returns a copy of the current sculpture state.
func (s *Session) State() sculpture.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// UpdateState runs fn against the live state under the session lock.
// If fn returns an error the state is restored to its previous value.
func (s *Session) UpdateState(fn func(*sculpture.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Clone()
	if err := fn(&s.state); err != nil {
		s.state = prev
		return err
	}
	return nil
}

// Append adds a turn to the conversation log.
func (s *Session) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Append(e)
}

// History returns a copy of the conversation log.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entries()
}

// Len returns the number of log entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

// Reset restores default state and a fresh welcome-only log.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sculpture.New()
	s.log = NewLog()
}

// sessionInfo tracks a session and its last activity time.
type sessionInfo struct {
	session      *Session
	lastActivity time.Time
}

// SessionManager provides thread-safe management of sessions keyed by ID.
//
// Sessions are automatically cleaned up after 24 hours of inactivity.
// A background goroutine runs every hour to remove stale sessions.
// If the session count exceeds MaxSessions, the least recently used session
// is evicted.
type SessionManager struct {
	mu            sync.RWMutex
	sessions      map[string]*sessionInfo
	logger        *logging.Logger
	cancelCleanup context.CancelFunc
	cleanupDone   chan struct{}
}

// NewSessionManager creates a new session manager with an empty session map.
// It starts a background goroutine that periodically cleans up inactive sessions.
// A nil logger discards cleanup messages.
func NewSessionManager(logger *logging.Logger) *SessionManager {
	if logger == nil {
		logger = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sm := &SessionManager{
		sessions:      make(map[string]*sessionInfo),
		logger:        logger,
		cancelCleanup: cancel,
		cleanupDone:   make(chan struct{}),
	}

	go sm.cleanupLoop(ctx)

	return sm
}

// GetOrCreate returns the Session for the given ID, creating it if needed.
// Updates the last activity time for the session.
func (sm *SessionManager) GetOrCreate(sessionID string) *Session {
	now := time.Now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if info, ok := sm.sessions[sessionID]; ok {
		info.lastActivity = now
		return info.session
	}

	if len(sm.sessions) >= MaxSessions {
		sm.evictLRU()
	}

	session := NewSession()
	sm.sessions[sessionID] = &sessionInfo{
		session:      session,
		lastActivity: now,
	}
	return session
}

// Get returns the Session for the given ID, or nil if it doesn't exist.
func (sm *SessionManager) Get(sessionID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if info, ok := sm.sessions[sessionID]; ok {
		return info.session
	}
	return nil
}

// Delete removes the session with the given ID.
// If the session doesn't exist, this is a no-op.
func (sm *SessionManager) Delete(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Shutdown stops the cleanup goroutine and waits for it to finish.
func (sm *SessionManager) Shutdown() {
	if sm.cancelCleanup != nil {
		sm.cancelCleanup()
		<-sm.cleanupDone
		sm.cancelCleanup = nil
	}
}

func (sm *SessionManager) cleanupLoop(ctx context.Context) {
	defer close(sm.cleanupDone)

	ticker := time.NewTicker(SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.cleanupInactiveSessions(time.Now())
		}
	}
}

// cleanupInactiveSessions removes sessions idle longer than
// SessionInactivityTimeout as of now. DefaultSessionID is never removed.
func (sm *SessionManager) cleanupInactiveSessions(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for sessionID, info := range sm.sessions {
		if sessionID == DefaultSessionID {
			continue
		}
		if now.Sub(info.lastActivity) > SessionInactivityTimeout {
			delete(sm.sessions, sessionID)
			removed++
		}
	}

	if removed > 0 {
		sm.logger.Info("Cleaned up %d inactive sessions (total: %d)", removed, len(sm.sessions))
	}
}

// evictLRU removes the least recently used session other than
// DefaultSessionID. Must be called with sm.mu held for writing.
func (sm *SessionManager) evictLRU() {
	var oldestID string
	var oldestTime time.Time

	for sessionID, info := range sm.sessions {
		if sessionID == DefaultSessionID {
			continue
		}
		if oldestID == "" || info.lastActivity.Before(oldestTime) {
			oldestID = sessionID
			oldestTime = info.lastActivity
		}
	}

	if oldestID != "" {
		delete(sm.sessions, oldestID)
		sm.logger.Debug("Evicted LRU session %s (was inactive for %v)", oldestID, time.Since(oldestTime))
	}
}
