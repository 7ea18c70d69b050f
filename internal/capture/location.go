package capture

import (
	"context"
	"sync"
	"time"

	"field-service/internal/geo"
)

// PositionEvent is one delivery from a location subscription: either a fix
// or a failure, never both.
type PositionEvent struct {
	Point geo.Point
	Err   error

	// closed by the consumer once the event has been handled
	applied chan struct{}
}

func (ev PositionEvent) ack() {
	if ev.applied != nil {
		close(ev.applied)
	}
}

// Subscription is a live position stream. Stop is idempotent, never blocks,
// and closes Done.
type Subscription interface {
	Events() <-chan PositionEvent
	Done() <-chan struct{}
	Stop()
}

// LocationProvider is the device location capability.
type LocationProvider interface {
	Available() bool
	CurrentPosition(ctx context.Context) (geo.Point, error)
	// Watch starts a subscription. ctx only bounds the setup; the
	// subscription lives until Stop.
	Watch(ctx context.Context) (Subscription, error)
}

const (
	streamBuffer = 64
	// upper bound on how long Push waits for the watcher to handle a fix
	ackTimeout = 5 * time.Second
)

// Stream is a LocationProvider fed from outside, e.g. by positions a mobile
// client posts over HTTP or a websocket. Only one subscription is live at a
// time; watching again stops the previous one.
type Stream struct {
	mu          sync.Mutex
	unavailable bool
	last        *geo.Point
	sub         *streamSubscription
}

func NewStream() *Stream {
	return &Stream{}
}

// SetAvailable toggles the capability, e.g. when the client reports that
// the device has no GPS.
func (s *Stream) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = !available
}

func (s *Stream) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unavailable
}

func (s *Stream) CurrentPosition(ctx context.Context) (geo.Point, error) {
	if err := ctx.Err(); err != nil {
		return geo.Point{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return geo.Point{}, NewLocationError(ErrLocationUnavailable)
	}
	if s.last == nil {
		return geo.Point{}, NewLocationError(ErrPositionUnavailable)
	}
	return *s.last, nil
}

func (s *Stream) Watch(ctx context.Context) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, NewLocationError(ErrLocationUnavailable)
	}
	if s.sub != nil {
		s.sub.Stop()
	}
	s.sub = &streamSubscription{
		events: make(chan PositionEvent, streamBuffer),
		done:   make(chan struct{}),
	}
	return s.sub, nil
}

// Push delivers a fix. It reports false when nobody is watching or the
// subscription's buffer is full. A delivered fix has been handled by the
// watcher by the time Push returns, so a caller that pushes and then stops
// tracking never loses its last positions.
func (s *Stream) Push(p geo.Point) bool {
	s.mu.Lock()
	s.last = &p
	s.mu.Unlock()
	return s.send(PositionEvent{Point: p})
}

// Fail delivers a provider error to the current subscription.
func (s *Stream) Fail(err error) bool {
	return s.send(PositionEvent{Err: asLocationError(err)})
}

// Watching reports whether a subscription is live.
func (s *Stream) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil && !s.sub.stopped()
}

func (s *Stream) send(ev PositionEvent) bool {
	ev.applied = make(chan struct{})

	s.mu.Lock()
	sub, ok := s.deliver(ev)
	s.mu.Unlock()
	if !ok {
		return false
	}

	timer := time.NewTimer(ackTimeout)
	defer timer.Stop()
	select {
	case <-ev.applied:
	case <-sub.done:
	case <-timer.C:
	}
	return true
}

func (s *Stream) deliver(ev PositionEvent) (*streamSubscription, bool) {
	if s.sub == nil || s.sub.stopped() {
		return nil, false
	}
	select {
	case s.sub.events <- ev:
		return s.sub, true
	default:
		return nil, false
	}
}

type streamSubscription struct {
	events chan PositionEvent
	done   chan struct{}
	once   sync.Once
}

func (s *streamSubscription) Events() <-chan PositionEvent {
	return s.events
}

func (s *streamSubscription) Done() <-chan struct{} {
	return s.done
}

func (s *streamSubscription) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *streamSubscription) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
