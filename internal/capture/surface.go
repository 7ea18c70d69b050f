package capture

import (
	"sync"

	"field-service/internal/geo"
)

// Surface is the drawing layer a controller renders the boundary onto. It
// holds at most one shape.
type Surface interface {
	ReplaceShape(ring geo.Ring)
	ClearShapes()
	CenterOn(p geo.Point)
}

// Layer is an in-memory Surface. Remote clients poll it to mirror the map.
type Layer struct {
	mu       sync.RWMutex
	shape    geo.Ring
	center   *geo.Point
	revision uint64
}

func NewLayer() *Layer {
	return &Layer{}
}

func (l *Layer) ReplaceShape(ring geo.Ring) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shape = ring.Clone()
	l.revision++
}

func (l *Layer) ClearShapes() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shape = nil
	l.revision++
}

func (l *Layer) CenterOn(p geo.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.center = &p
}

// LayerView is what a client needs to redraw the layer.
type LayerView struct {
	Shape    geo.Ring   `json:"shape"`
	Center   *geo.Point `json:"center,omitempty"`
	Revision uint64     `json:"revision"`
}

func (l *Layer) View() LayerView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	view := LayerView{Shape: l.shape.Clone(), Revision: l.revision}
	if l.center != nil {
		c := *l.center
		view.Center = &c
	}
	return view
}
