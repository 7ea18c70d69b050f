package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"field-service/internal/geo"
)

const watcherBuffer = 16

// Session bundles a controller with the in-memory surface and location
// stream a remote client drives it through.
type Session struct {
	ID         uuid.UUID
	FieldID    *uint
	Controller *Controller
	Layer      *Layer
	Stream     *Stream
	CreatedAt  time.Time

	mu       sync.Mutex
	touched  time.Time
	watchers map[chan Snapshot]struct{}
}

// Touch marks the session as used so the sweeper keeps it.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Watch returns a channel of snapshots emitted after every change and a
// function that releases it. Slow readers miss intermediate snapshots.
func (s *Session) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, watcherBuffer)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) broadcast(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// OpenOptions describes a new session.
type OpenOptions struct {
	FieldID   *uint
	Boundary  geo.Ring
	Submitter Submitter
}

// Registry keeps the live capture sessions and abandons idle ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
	cron     *cron.Cron
	log      zerolog.Logger
}

func NewRegistry(ttl time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

func (r *Registry) Open(opts OpenOptions) *Session {
	now := r.now()
	session := &Session{
		ID:        uuid.New(),
		FieldID:   opts.FieldID,
		Layer:     NewLayer(),
		Stream:    NewStream(),
		CreatedAt: now,
		touched:   now,
		watchers:  make(map[chan Snapshot]struct{}),
	}
	session.Controller = NewController(
		session.Layer,
		session.Stream,
		opts.Submitter,
		WithBoundary(opts.Boundary),
		WithObserver(session.broadcast),
	)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	r.log.Debug().Str("session_id", session.ID.String()).Msg("capture session opened")
	return session
}

// Get returns a session and marks it as used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Touch(r.now())
	return session, nil
}

// Remove abandons the session and forgets it.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	session.Controller.Abandon()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep abandons and removes sessions idle for longer than the TTL.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.Controller.Abandon()
	}
	return len(expired)
}

// Start schedules Sweep with a cron spec such as "@every 1m".
func (r *Registry) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := r.Sweep(); n > 0 {
			r.log.Info().Int("count", n).Msg("expired capture sessions")
		}
	}); err != nil {
		return err
	}
	c.Start()

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	return nil
}

// Close stops the sweeper and abandons every session so no location
// subscription outlives the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
	}
	for _, session := range sessions {
		session.Controller.Abandon()
	}
}
