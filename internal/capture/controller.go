package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"field-service/internal/geo"
	"field-service/internal/model"
)

// Draft is the validated boundary and metadata handed to a Submitter.
type Draft struct {
	Name        string
	CurrentCrop string
	Boundary    geo.Ring
	Area        float64
}

// Submitter persists a finished draft, creating or updating a field.
type Submitter interface {
	Submit(ctx context.Context, draft Draft) (*model.Field, error)
}

type SubmitterFunc func(ctx context.Context, draft Draft) (*model.Field, error)

func (f SubmitterFunc) Submit(ctx context.Context, draft Draft) (*model.Field, error) {
	return f(ctx, draft)
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	State     State        `json:"state"`
	Boundary  geo.Ring     `json:"boundary"`
	Track     geo.Ring     `json:"track,omitempty"`
	Area      float64      `json:"area"`
	TrackArea float64      `json:"trackArea,omitempty"`
	LastError string       `json:"lastError,omitempty"`
	Field     *model.Field `json:"field,omitempty"`
}

type Option func(*Controller)

// WithBoundary seeds the session from a persisted boundary.
func WithBoundary(ring geo.Ring) Option {
	return func(c *Controller) {
		if len(ring) == 0 {
			return
		}
		c.ring = ring.Clone()
		c.state = StateDrafted
	}
}

// WithObserver registers fn to receive a snapshot after every change. fn
// runs with the controller locked and must not call back into it.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// Controller is the single owner of the boundary being edited. Manual shape
// events and GPS tracking are mutually exclusive: while tracking, the track
// owns the boundary and shape events are refused.
type Controller struct {
	mu        sync.Mutex
	surface   Surface
	location  LocationProvider
	submitter Submitter
	observer  func(Snapshot)

	state State
	ring  geo.Ring
	track geo.Ring

	// restored when tracking ends without committing a track
	prior State
	sub   Subscription
	// bumped on every unsubscribe so late events are dropped
	generation uint64

	lastErr    *LocationError
	submitting bool
	field      *model.Field
}

func NewController(surface Surface, location LocationProvider, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		surface:   surface,
		location:  location,
		submitter: submitter,
		state:     StateEmpty,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.ring) > 0 {
		c.surface.ReplaceShape(c.ring)
	}
	return c
}

// ShapeCreated installs a freshly drawn shape, discarding any previous one.
func (c *Controller) ShapeCreated(points geo.Ring) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptShapeEvent(); err != nil {
		return err
	}
	if !geo.Finite(points) {
		return &ValidationError{Field: "polygon", Reason: ErrInvalidCoordinates}
	}

	c.surface.ClearShapes()
	c.ring = points.Clone()
	c.surface.ReplaceShape(c.ring)
	c.state = StateDrafted
	c.changed()
	return nil
}

// ShapeEdited reshapes the drafted boundary. Without a draft it does nothing.
func (c *Controller) ShapeEdited(points geo.Ring) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptShapeEvent(); err != nil {
		return err
	}
	if c.state != StateDrafted {
		return nil
	}
	if !geo.Finite(points) {
		return &ValidationError{Field: "polygon", Reason: ErrInvalidCoordinates}
	}

	c.ring = points.Clone()
	c.surface.ReplaceShape(c.ring)
	c.changed()
	return nil
}

func (c *Controller) ShapeDeleted() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.acceptShapeEvent(); err != nil {
		return err
	}

	c.ring = nil
	c.surface.ClearShapes()
	c.state = StateEmpty
	c.changed()
	return nil
}

func (c *Controller) acceptShapeEvent() error {
	switch {
	case c.state.Terminal():
		return ErrSessionClosed
	case c.state == StateTracking:
		return ErrTrackingActive
	}
	return nil
}

// Locate centres the surface on the device's current position.
func (c *Controller) Locate(ctx context.Context) (geo.Point, error) {
	c.mu.Lock()
	closed := c.state.Terminal()
	location := c.location
	c.mu.Unlock()

	if closed {
		return geo.Point{}, ErrSessionClosed
	}
	if location == nil || !location.Available() {
		return geo.Point{}, NewLocationError(ErrLocationUnavailable)
	}

	p, err := location.CurrentPosition(ctx)
	if err != nil {
		return geo.Point{}, asLocationError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Terminal() {
		c.surface.CenterOn(p)
	}
	return p, nil
}

// StartTracking subscribes to the location provider and starts a new track.
func (c *Controller) StartTracking(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state.Terminal():
		return ErrSessionClosed
	case c.state == StateTracking:
		return fmt.Errorf("%w: already tracking", ErrInvalidTransition)
	}

	if c.location == nil || !c.location.Available() {
		c.lastErr = NewLocationError(ErrLocationUnavailable)
		c.changed()
		return c.lastErr
	}

	sub, err := c.location.Watch(ctx)
	if err != nil {
		c.lastErr = asLocationError(err)
		c.changed()
		return c.lastErr
	}

	c.generation++
	c.sub = sub
	c.prior = c.state
	c.track = nil
	c.lastErr = nil
	c.state = StateTracking
	c.changed()

	go c.consume(c.generation, sub)
	return nil
}

func (c *Controller) consume(generation uint64, sub Subscription) {
	for {
		select {
		case <-sub.Done():
			return
		case ev := <-sub.Events():
			current := c.apply(generation, ev)
			ev.ack()
			if !current {
				return
			}
		}
	}
}

// apply handles one delivery and reports whether the subscription is still
// current.
func (c *Controller) apply(generation uint64, ev PositionEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.state != StateTracking {
		return false
	}
	return c.applyLocked(ev)
}

func (c *Controller) applyLocked(ev PositionEvent) bool {
	if ev.Err != nil {
		c.unsubscribe()
		c.track = nil
		c.state = c.prior
		c.lastErr = asLocationError(ev.Err)
		c.changed()
		return false
	}

	if !ev.Point.Finite() {
		return true
	}
	c.track = append(c.track, ev.Point)
	c.surface.CenterOn(ev.Point)
	c.changed()
	return true
}

// drainLocked applies whatever the subscription has buffered but the
// consumer has not picked up yet.
func (c *Controller) drainLocked() {
	for c.sub != nil {
		select {
		case ev := <-c.sub.Events():
			c.applyLocked(ev)
			ev.ack()
		default:
			return
		}
	}
}

// StopTracking ends the track. A track longer than two points replaces the
// boundary; a shorter one is dropped and the previous state comes back. It
// reports whether the track was committed.
func (c *Controller) StopTracking() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state.Terminal():
		return false, ErrSessionClosed
	case c.state != StateTracking:
		return false, fmt.Errorf("%w: not tracking", ErrInvalidTransition)
	}

	c.drainLocked()
	if c.state != StateTracking {
		// a buffered provider error already ended the track
		return false, nil
	}
	c.unsubscribe()

	committed := len(c.track) > 2
	if committed {
		c.surface.ClearShapes()
		c.ring = c.track
		c.surface.ReplaceShape(c.ring)
		c.state = StateDrafted
	} else {
		c.state = c.prior
	}
	c.track = nil
	c.changed()
	return committed, nil
}

// unsubscribe must run before any final state change so that an event
// already in flight is recognised as stale.
func (c *Controller) unsubscribe() {
	c.generation++
	if c.sub != nil {
		c.sub.Stop()
		c.sub = nil
	}
}

// Submit validates the draft and hands it to the submitter. Validation
// failures never reach the submitter; submitter failures leave the session
// untouched so the user can retry.
func (c *Controller) Submit(ctx context.Context, name, currentCrop string) (*model.Field, error) {
	c.mu.Lock()

	draft, err := c.validateLocked(strings.TrimSpace(name), strings.TrimSpace(currentCrop))
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	submitter := c.submitter
	c.mu.Unlock()

	field, err := submitter.Submit(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return nil, err
	}
	if c.state == StateTracking {
		c.unsubscribe()
		c.track = nil
	}
	c.state = StateSubmitted
	c.field = field
	c.changed()
	return field, nil
}

func (c *Controller) validateLocked(name, currentCrop string) (Draft, error) {
	switch {
	case c.state.Terminal():
		return Draft{}, ErrSessionClosed
	case c.submitting:
		return Draft{}, ErrSubmitInProgress
	case c.state == StateTracking:
		return Draft{}, ErrTrackingActive
	case c.submitter == nil:
		return Draft{}, fmt.Errorf("%w: nothing to submit to", ErrInvalidTransition)
	}
	if name == "" {
		return Draft{}, &ValidationError{Field: "name", Reason: ErrMissingField}
	}
	if currentCrop == "" {
		return Draft{}, &ValidationError{Field: "currentCrop", Reason: ErrMissingField}
	}
	if c.state != StateDrafted || !geo.IsComplete(c.ring) {
		return Draft{}, &ValidationError{Field: "polygon", Reason: ErrIncompleteBoundary}
	}
	return Draft{
		Name:        name,
		CurrentCrop: currentCrop,
		Boundary:    c.ring.Clone(),
		Area:        geo.AreaHectares(c.ring),
	}, nil
}

// Abandon discards the session and releases any location subscription. It
// is safe to call more than once.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return
	}
	if c.state == StateTracking {
		c.unsubscribe()
	}
	c.track = nil
	c.state = StateAbandoned
	c.changed()
}

// DismissError clears the last location error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		c.lastErr = nil
		c.changed()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     c.state,
		Boundary:  c.ring.Clone(),
		Track:     c.track.Clone(),
		Area:      geo.AreaHectares(c.ring),
		TrackArea: geo.AreaHectares(c.track),
		Field:     c.field,
	}
	if snap.Boundary == nil {
		snap.Boundary = geo.Ring{}
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Message
	}
	return snap
}

func (c *Controller) changed() {
	if c.observer != nil {
		c.observer(c.snapshotLocked())
	}
}
