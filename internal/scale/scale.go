// Package scale maps integer zoom levels to Mapnik scale denominators and
// renders the MaxScaleDenominator/MinScaleDenominator tags a style rule
// needs to be active on exactly one zoom level.
package scale

import (
	"errors"
	"fmt"
	"strconv"
)

// BaseScale is the scale denominator at zoom 0. Every zoom step halves it.
const BaseScale int64 = 655360000

// MaxZoom is the highest zoom whose bounds still satisfy max > min >= 0.
const MaxZoom = 29

var (
	// ErrInvalidRange is returned when the lower end of a zoom range is
	// above the upper end.
	ErrInvalidRange = errors.New("invalid zoom range")

	// ErrZoomOutOfRange is returned for zooms outside [0, MaxZoom].
	ErrZoomOutOfRange = errors.New("zoom out of range")
)

// ZoomLevel is a single zoom step of an expanded range.
type ZoomLevel struct {
	// Z is the zoom level.
	Z int

	// IsLast marks the top of the range. The last level has no lower
	// scale bound, so it stays active at every scale below its maximum.
	IsLast bool
}

// Bounds returns the maximum and minimum scale denominators of the level.
func (l ZoomLevel) Bounds() (maxScale, minScale int64) {
	return MaxScale(l.Z), MaxScale(l.Z + 1)
}

// Fragment renders the scale denominator tags for the level.
func (l ZoomLevel) Fragment() string {
	maxScale, minScale := l.Bounds()
	if l.IsLast {
		return maxTag(maxScale)
	}

	return maxTag(maxScale) + minTag(minScale)
}

// String implements fmt.Stringer.
func (l ZoomLevel) String() string {
	return l.Fragment()
}

// MaxScale returns the maximum scale denominator for zoom z.
func MaxScale(z int) int64 {
	return BaseScale >> uint(z) //nolint:gosec // callers validate z
}

// ExpandRange returns one ZoomLevel per zoom in [minZoom, maxZoom] in
// ascending order. Only the level equal to maxZoom is marked last.
func ExpandRange(minZoom, maxZoom int) ([]ZoomLevel, error) {
	if minZoom > maxZoom {
		return nil, fmt.Errorf("%w: min zoom %d is greater than max zoom %d", ErrInvalidRange, minZoom, maxZoom)
	}

	if err := CheckZoom(minZoom); err != nil {
		return nil, err
	}

	if err := CheckZoom(maxZoom); err != nil {
		return nil, err
	}

	levels := make([]ZoomLevel, 0, maxZoom-minZoom+1)
	for z := minZoom; z <= maxZoom; z++ {
		levels = append(levels, ZoomLevel{Z: z, IsLast: z == maxZoom})
	}

	return levels, nil
}

// MinZoomFragment renders only the maximum scale tag for minZoom, for rules
// that apply from minZoom upward without a ceiling.
func MinZoomFragment(minZoom int) (string, error) {
	if err := CheckZoom(minZoom); err != nil {
		return "", err
	}

	return maxTag(MaxScale(minZoom)), nil
}

// CheckZoom reports whether z is a zoom the scale model can represent.
func CheckZoom(z int) error {
	if z < 0 || z > MaxZoom {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrZoomOutOfRange, z, MaxZoom)
	}

	return nil
}

func maxTag(v int64) string {
	return "<MaxScaleDenominator>" + strconv.FormatInt(v, 10) + "</MaxScaleDenominator>"
}

func minTag(v int64) string {
	return "<MinScaleDenominator>" + strconv.FormatInt(v, 10) + "</MinScaleDenominator>"
}
