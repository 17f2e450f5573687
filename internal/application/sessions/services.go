package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/health-companion/internal/application"
	"github.com/bryanwahyu/health-companion/internal/application/chat"
	"github.com/bryanwahyu/health-companion/internal/application/dashboard"
)

var ErrSessionNotFound = errors.New("session not found")

// Gateway covers everything a session's services call on the model gateway.
type Gateway interface {
	dashboard.Gateway
	chat.Gateway
}

// Session is one user's isolated workspace: a dashboard and a conversation.
type Session struct {
	ID        string
	CreatedAt time.Time

	Dashboard *dashboard.Service
	Chat      *chat.Service

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

// Context is cancelled when the session ends. Work started for the session
// should run under it.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Service is the in-memory session registry. Nothing outlives the process.
type Service struct {
	gateway Gateway
	clock   application.Clock
	log     *slog.Logger
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stop chan struct{}
	once sync.Once
}

// NewService builds the registry. When idleTTL and sweepInterval are positive a
// background sweeper ends sessions idle for longer than idleTTL; call Close to stop it.
func NewService(gateway Gateway, clock application.Clock, log *slog.Logger, idleTTL, sweepInterval time.Duration) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		gateway:  gateway,
		clock:    clock,
		log:      log,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if idleTTL > 0 && sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Create starts a new session.
func (s *Service) Create() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := s.clock.Now()
	id := uuid.NewString()
	logger := s.log.With("session", id)

	conv := chat.NewService(s.gateway, s.clock, logger)
	sess := &Session{
		ID:        id,
		CreatedAt: now,
		Dashboard: dashboard.NewService(s.gateway, conv, logger),
		Chat:      conv,
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	logger.Info("session created")
	return sess
}

// Get returns a live session and marks it as recently used.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.clock.Now())
	return sess, nil
}

// End cancels the session's in-flight work, waits for it and forgets the session.
func (s *Service) End(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.shutdown(sess)
	s.log.Info("session ended", "session", id)
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep ends every session idle for longer than the TTL and returns how many it ended.
func (s *Service) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.idleTTL)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.shutdown(sess)
		s.log.Info("session expired", "session", sess.ID)
	}
	return len(expired)
}

// Close stops the sweeper and ends every session.
func (s *Service) Close() {
	s.once.Do(func() { close(s.stop) })

	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		s.shutdown(sess)
	}
}

func (s *Service) shutdown(sess *Session) {
	sess.cancel()
	sess.Dashboard.Close()
}

func (s *Service) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("idle sessions swept", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}
