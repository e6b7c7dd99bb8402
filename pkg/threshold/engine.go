// Package threshold keeps a live confidence window for each point
// annotation layer. Points outside the window are suppressed (their live
// confidence becomes 0) and the layer is recoloured.
package threshold

import (
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"naparij/pkg/napari"
)

// MetadataKey is the layer metadata entry holding the annotation id
const MetadataKey = "annotation-id"

// ConfidenceProperty is the per-point property the window filters
const ConfidenceProperty = "confidence"

// State is the threshold state of one points layer. Confidence is a copy
// taken when the state was created and is never written.
type State struct {
	ID         uuid.UUID
	Confidence []float64
	Column     string

	Low, High        float64
	HistMin, HistMax float64

	layer  *napari.Points
	engine *Engine
}

// Engine maps annotation ids to their state and tracks the active one
type Engine struct {
	states map[uuid.UUID]*State
	active *State
	sink   HistogramSink
	log    *slog.Logger
}

// NewEngine returns an engine that draws histograms to sink. A nil sink
// discards them.
func NewEngine(sink HistogramSink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = HistogramFunc(func(Histogram) {})
	}
	return &Engine{states: make(map[uuid.UUID]*State), sink: sink, log: logger}
}

// Attach follows selection and removal on a layer list
func (e *Engine) Attach(layers *napari.LayerList) {
	layers.OnSelect(func(l napari.Layer) { e.Select(l) })
	layers.OnRemoved(func(l napari.Layer) { e.Remove(l) })
}

// Register creates the state for a freshly imported layer, recording the
// table column its confidence came from
func (e *Engine) Register(points *napari.Points, column string) *State {
	s := e.lookup(points)
	if s == nil {
		s = e.create(points)
	}
	s.Column = column
	e.active = s
	s.apply()
	return s
}

// Select makes the state of layer active, creating it on first selection.
// Layers that are not points clear the active state and return nil.
func (e *Engine) Select(layer napari.Layer) *State {
	points, ok := layer.(*napari.Points)
	if !ok {
		e.active = nil
		return nil
	}
	s := e.lookup(points)
	if s == nil {
		s = e.create(points)
	}
	e.active = s
	e.sink.DrawHistogram(s.Histogram())
	return s
}

// Remove drops the state of a removed layer
func (e *Engine) Remove(layer napari.Layer) {
	points, ok := layer.(*napari.Points)
	if !ok {
		return
	}
	s := e.lookup(points)
	if s == nil {
		return
	}
	delete(e.states, s.ID)
	if e.active == s {
		e.active = nil
	}
	e.log.Debug("Dropped annotation state", "layer", points.Name(), "id", s.ID)
}

// Active returns the state of the selected points layer, or nil
func (e *Engine) Active() *State { return e.active }

// Lookup returns the state of layer, or nil if it has none
func (e *Engine) Lookup(layer napari.Layer) *State {
	points, ok := layer.(*napari.Points)
	if !ok {
		return nil
	}
	return e.lookup(points)
}

// Len returns the number of tracked layers
func (e *Engine) Len() int { return len(e.states) }

func (e *Engine) lookup(points *napari.Points) *State {
	id, err := uuid.Parse(points.Metadata()[MetadataKey])
	if err != nil {
		return nil
	}
	s, ok := e.states[id]
	if !ok || s.layer != points {
		return nil
	}
	return s
}

func (e *Engine) create(points *napari.Points) *State {
	id, err := uuid.Parse(points.Metadata()[MetadataKey])
	if err != nil || e.states[id] != nil {
		id = uuid.New()
	}
	points.Metadata()[MetadataKey] = id.String()

	live := points.Property(ConfidenceProperty)
	if len(live) != len(points.Coords) {
		live = make([]float64, len(points.Coords))
		for i := range live {
			live[i] = 1
		}
		points.Properties[ConfidenceProperty] = live
	}

	s := &State{
		ID:         id,
		Confidence: append([]float64(nil), live...),
		layer:      points,
		engine:     e,
	}
	s.resetRange()
	s.Low, s.High = s.HistMin, s.HistMax
	e.states[id] = s
	e.log.Debug("Created annotation state", "layer", points.Name(), "id", id, "points", len(s.Confidence))
	return s
}

// Layer returns the points layer the state belongs to
func (s *State) Layer() *napari.Points { return s.layer }

// SetBounds sets the filter window. Bounds given in the wrong order are
// swapped.
func (s *State) SetBounds(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	s.Low, s.High = lo, hi
	s.apply()
}

// SetLowFromSlider moves the low bound. If it passes the high bound the high
// bound moves with it.
func (s *State) SetLowFromSlider(pos int) {
	s.Low = ValueFromSlider(pos, s.HistMin, s.HistMax)
	if s.Low > s.High {
		s.High = s.Low
	}
	s.apply()
}

// SetHighFromSlider moves the high bound. If it passes the low bound the low
// bound moves with it.
func (s *State) SetHighFromSlider(pos int) {
	s.High = ValueFromSlider(pos, s.HistMin, s.HistMax)
	if s.High < s.Low {
		s.Low = s.High
	}
	s.apply()
}

// LowSlider returns the slider position of the low bound
func (s *State) LowSlider() int { return ValueInSlider(s.Low, s.HistMin, s.HistMax) }

// HighSlider returns the slider position of the high bound
func (s *State) HighSlider() int { return ValueInSlider(s.High, s.HistMin, s.HistMax) }

// SetHistogramRange changes the displayed range without touching the window
func (s *State) SetHistogramRange(min, max float64) {
	if min > max {
		min, max = max, min
	}
	s.HistMin, s.HistMax = min, max
	s.engine.sink.DrawHistogram(s.Histogram())
}

// ResetRange sets the displayed range to the snapshot's min and max and pulls
// the window inside it
func (s *State) ResetRange() {
	s.resetRange()
	s.Low = clamp(s.Low, s.HistMin, s.HistMax)
	s.High = clamp(s.High, s.HistMin, s.HistMax)
	s.apply()
}

func (s *State) resetRange() {
	if len(s.Confidence) == 0 {
		s.HistMin, s.HistMax = 0, 0
		return
	}
	s.HistMin, s.HistMax = floats.Min(s.Confidence), floats.Max(s.Confidence)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Suppressed returns how many points fall outside the window
func (s *State) Suppressed() int {
	n := 0
	for _, c := range s.Confidence {
		if c < s.Low || c > s.High {
			n++
		}
	}
	return n
}

// Histogram returns the snapshot histogram over the display range with the
// window markers
func (s *State) Histogram() Histogram {
	h := BuildHistogram(s.Confidence, s.HistMin, s.HistMax)
	h.Low, h.High = s.Low, s.High
	return h
}

// apply rewrites the live confidence from the snapshot, recolours the layer
// and redraws the histogram
func (s *State) apply() {
	live := s.layer.Properties[ConfidenceProperty]
	if len(live) != len(s.Confidence) {
		live = make([]float64, len(s.Confidence))
		s.layer.Properties[ConfidenceProperty] = live
	}
	for i, c := range s.Confidence {
		if c < s.Low || c > s.High {
			live[i] = 0
		} else {
			live[i] = c
		}
	}
	s.layer.RefreshColors()
	s.engine.sink.DrawHistogram(s.Histogram())
}
