// Package ij describes the handles the bridge needs from the Java image
// platform: images and their stacks, calibration, results tables and the
// hyperstack converter. The live platform sits behind these interfaces;
// memory.go and table.go provide in-process implementations.
package ij

import (
	"image"

	"naparij/internal/models"
)

// Calibration is the physical size of a pixel along each axis
type Calibration interface {
	Z() float64
	Y() float64
	X() float64
	Unit() string
}

// Stack is the plane store behind an image
type Stack interface {
	// Voxels reads the box starting at (x, y, z) with size w*h*d as a flat
	// sequence, x fastest, then y, then plane.
	Voxels(x, y, z, w, h, d int) []float64

	// ImageArray returns every plane. Entries may be nil for sparse stacks.
	ImageArray() [][]float64

	// Size is the number of planes
	Size() int
}

// Image is a handle on one open image window
type Image interface {
	// ID identifies the window; two handles with the same ID are the same image
	ID() int
	ShortTitle() string
	Dimensions() models.Dims
	Calibration() Calibration
	BitDepth() int
	IsHyperStack() bool
	Stack() Stack

	Show()
	Hide()
	Close()
}

// Table is a results table
type Table interface {
	// ColumnHeadings returns the headings joined by tabs. The first entry may
	// be a blank row-label heading.
	ColumnHeadings() string

	// Column returns the values of the i-th named column
	Column(i int) []float64

	// Size is the number of rows
	Size() int

	// SetValue writes one cell, adding the column or row when needed
	SetValue(column string, row int, value float64)

	// Show displays the table under name, which makes it reachable by name
	Show(name string)
}

// TableStore finds, creates and closes result tables by window title
type TableStore interface {
	// Get returns nil when no table with that title is open
	Get(name string) Table
	Create() Table
	// Close closes the table window without asking to save it
	Close(name string)
}

// HyperStackConverter switches images between plain stack and hyperstack form
type HyperStackConverter interface {
	ToStack(img Image)
	ToHyperStack(img Image, channels, slices, frames int, mode string) Image
}

// Runtime is the running platform instance
type Runtime interface {
	// ActiveImage returns nil when no image is open
	ActiveImage() Image
	Tables() TableStore
	Converter() HyperStackConverter
	// NewImage opens a new RGB image window from pixels
	NewImage(title string, img image.Image) Image
}
