package threshold

import "math"

// SliderResolution is the number of discrete slider positions
const SliderResolution = 65536

const sliderMax = SliderResolution - 1

// ValueFromSlider maps a slider position in [0, SliderResolution) linearly
// onto [lo, hi]
func ValueFromSlider(pos int, lo, hi float64) float64 {
	if pos <= 0 {
		return lo
	}
	if pos >= sliderMax {
		return hi
	}
	return lo + float64(pos)*(hi-lo)/sliderMax
}

// ValueInSlider is the inverse of ValueFromSlider, rounded to the nearest
// position and clamped to the slider range
func ValueInSlider(v, lo, hi float64) int {
	if !(hi > lo) {
		return 0
	}
	pos := math.Round((v - lo) / (hi - lo) * sliderMax)
	if pos < 0 {
		return 0
	}
	if pos > sliderMax {
		return sliderMax
	}
	return int(pos)
}
