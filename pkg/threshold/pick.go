package threshold

import (
	"math"

	"naparij/pkg/napari"
)

// Pick describes the point of a layer nearest to a query position
type Pick struct {
	Index      int
	Distance   float64
	Confidence float64
	Live       float64
	Suppressed bool
}

// Pick finds the point nearest to q, given in (z, y, x) data coordinates, and
// reports its snapshot confidence and whether the window suppresses it. It
// returns false for an empty layer.
func (s *State) Pick(q napari.Point) (Pick, bool) {
	i, d2 := s.layer.Nearest(q)
	if i < 0 {
		return Pick{}, false
	}
	p := Pick{Index: i, Distance: math.Sqrt(d2)}
	if i < len(s.Confidence) {
		p.Confidence = s.Confidence[i]
		p.Suppressed = p.Confidence < s.Low || p.Confidence > s.High
	}
	if live := s.layer.Property(ConfidenceProperty); i < len(live) {
		p.Live = live[i]
	}
	return p, true
}
