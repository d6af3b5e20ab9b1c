package session

import (
	"context"
	"sync"
	"time"

	"dataops/internal/logging"
	"dataops/ui/widgets"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Session is one browser's dashboard. Access the dashboard through With so
// handlers and the upload goroutine never race.
type Session struct {
	ID string

	mu        sync.Mutex
	dashboard *widgets.Dashboard
	lastSeen  time.Time

	// upload admits one analysis at a time; a second is rejected, not queued
	upload *semaphore.Weighted
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		dashboard: widgets.NewDashboard(),
		lastSeen:  now,
		upload:    semaphore.NewWeighted(1),
	}
}

// With runs fn while holding the session lock
func (s *Session) With(fn func(d *widgets.Dashboard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.dashboard)
}

// TryStartUpload claims the upload slot. It returns false when an upload is
// already running.
func (s *Session) TryStartUpload() bool {
	return s.upload.TryAcquire(1)
}

// FinishUpload releases the slot claimed by TryStartUpload
func (s *Session) FinishUpload() {
	s.upload.Release(1)
}

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

// Config controls session lifetime
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Store keeps sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     Config
	staging *Staging
	log     *logrus.Entry
	now     func() time.Time
}

// NewStore creates an empty store backed by the given staging area
func NewStore(cfg Config, staging *Staging, logger logrus.FieldLogger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		staging:  staging,
		log:      logging.Component(logger, "sessions"),
		now:      time.Now,
	}
}

// Staging returns the staging area for uploaded files
func (s *Store) Staging() *Staging {
	return s.staging
}

// Get returns a live session and marks it as used. The touch happens under
// the store lock so a concurrent Sweep sees it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}

// Create starts a new session with a random id
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), s.now())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.WithField("session", sess.ID).Debug("session created")
	return sess
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown or expired. created reports whether a new id was issued.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and removes their staged
// files. Sessions with an upload in flight are kept.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.RLock()
	var expired []*Session
	for _, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, sess := range expired {
		if !s.expire(sess, cutoff) {
			continue
		}
		if s.staging != nil {
			if err := s.staging.RemoveSession(sess.ID); err != nil {
				s.log.WithError(err).WithField("session", sess.ID).Warn("failed to remove staged files")
			}
		}
		removed++
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("expired sessions swept")
	}
	return removed
}

// PurgeOrphans removes everything staged by a previous process. Call it
// before the store serves its first session.
func (s *Store) PurgeOrphans() {
	if s.staging == nil {
		return
	}
	n, err := s.staging.Purge()
	if err != nil {
		s.log.WithError(err).Warn("staging cleanup failed")
	}
	if n > 0 {
		s.log.WithField("removed", n).Info("orphaned staging directories removed")
	}
}

// expire deletes sess if it is still idle past cutoff and has no upload in
// flight. The idle check is repeated under the store lock because a request
// may have touched the session since it was collected.
func (s *Store) expire(sess *Session, cutoff time.Time) bool {
	if !sess.TryStartUpload() {
		return false
	}
	defer sess.FinishUpload()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !sess.idleSince().Before(cutoff) {
		return false
	}
	delete(s.sessions, sess.ID)
	return true
}

// Run sweeps on every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
