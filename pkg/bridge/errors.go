package bridge

import "github.com/pkg/errors"

var (
	// ErrInvalidSource means there is no active source image
	ErrInvalidSource = errors.New("no active image")

	// ErrMissingTable means the named results table is not open
	ErrMissingTable = errors.New("results table not found")

	// ErrNoConfidenceColumn is logged, never returned, when a points table
	// has none of the confidence headings
	ErrNoConfidenceColumn = errors.New("no confidence column")

	// ErrMalformedTable means a table lacks the columns an import needs
	ErrMalformedTable = errors.New("malformed results table")

	// ErrTooManyChannels means the image has more channels than the palette
	ErrTooManyChannels = errors.New("more channels than palette colours")

	// ErrUnsupportedChannels means a labels fetch found more than one channel
	ErrUnsupportedChannels = errors.New("labels image must have a single channel")

	// ErrNoScreenshot means the viewer has no rendered frame
	ErrNoScreenshot = errors.New("viewer has no rendered frame")
)
