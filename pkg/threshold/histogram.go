package threshold

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxBins caps the Freedman-Diaconis bin count for long-tailed data
const maxBins = 512

// Histogram is the confidence distribution drawn behind the threshold
// sliders. Low and High mark the current filter window.
type Histogram struct {
	Edges  []float64
	Counts []float64
	Low    float64
	High   float64
}

// HistogramSink receives a histogram each time the window changes
type HistogramSink interface {
	DrawHistogram(h Histogram)
}

// HistogramFunc adapts a function to HistogramSink
type HistogramFunc func(h Histogram)

func (f HistogramFunc) DrawHistogram(h Histogram) { f(h) }

// BuildHistogram bins the values that fall inside [min, max]. The bin width
// follows the Freedman-Diaconis rule, 2*IQR/cbrt(n), with a single bin when
// the interquartile range is zero.
func BuildHistogram(values []float64, min, max float64) Histogram {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= min && v <= max && !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	sort.Float64s(x)

	bins := 1
	if len(x) > 1 && max > min {
		iqr := stat.Quantile(0.75, stat.Empirical, x, nil) - stat.Quantile(0.25, stat.Empirical, x, nil)
		if iqr > 0 {
			width := 2 * iqr / math.Cbrt(float64(len(x)))
			bins = int(math.Ceil((max - min) / width))
		}
	}
	if bins < 1 {
		bins = 1
	}
	if bins > maxBins {
		bins = maxBins
	}

	hi := max
	if !(hi > min) {
		hi = min + 1
	}
	edges := make([]float64, bins+1)
	floats.Span(edges, min, hi)

	// Histogram wants every x strictly below the last divider
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := make([]float64, bins)
	if len(x) > 0 {
		stat.Histogram(counts, dividers, x, nil)
	}
	return Histogram{Edges: edges, Counts: counts}
}
