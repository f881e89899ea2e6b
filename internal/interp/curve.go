// Package interp builds piecewise curves that ease a style property (line
// width, opacity, text size) between control points across zoom levels.
package interp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInsufficientPoints is returned when a curve has fewer than two
	// control points.
	ErrInsufficientPoints = errors.New("insufficient control points")

	// ErrDegenerateInterval is returned when two adjacent control points
	// share the same zoom.
	ErrDegenerateInterval = errors.New("degenerate interval")

	// ErrUnsortedPoints is returned when control point zooms decrease.
	ErrUnsortedPoints = errors.New("control points not in ascending zoom order")

	// ErrInvalidCurve is returned for a negative or NaN exponent and for
	// non-finite control point coordinates.
	ErrInvalidCurve = errors.New("invalid curve")
)

// ControlPoint anchors a curve at a zoom.
type ControlPoint struct {
	Zoom  float64
	Value float64
}

// Curve is an exponential ease between ordered control points. With an
// exponent of 1 it is linear; above 1 it holds near the lower point longer,
// below 1 it approaches the upper point sooner.
//
// A Curve is immutable and safe for concurrent use.
type Curve struct {
	exponent float64
	points   []ControlPoint
}

// MakeCurve validates points and returns a curve over them.
func MakeCurve(exponent float64, points ...ControlPoint) (*Curve, error) {
	if math.IsNaN(exponent) || exponent < 0 {
		return nil, fmt.Errorf("%w: exponent %v must be >= 0", ErrInvalidCurve, exponent)
	}

	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d, need at least 2", ErrInsufficientPoints, len(points))
	}

	for i, p := range points {
		if !finite(p.Zoom) || !finite(p.Value) {
			return nil, fmt.Errorf("%w: control point %d (%v, %v) is not finite", ErrInvalidCurve, i, p.Zoom, p.Value)
		}

		if i == 0 {
			continue
		}

		prev := points[i-1]

		switch {
		case p.Zoom == prev.Zoom:
			return nil, fmt.Errorf("%w: control points %d and %d share zoom %v", ErrDegenerateInterval, i-1, i, p.Zoom)
		case p.Zoom < prev.Zoom:
			return nil, fmt.Errorf("%w: zoom %v follows %v", ErrUnsortedPoints, p.Zoom, prev.Zoom)
		}
	}

	cp := make([]ControlPoint, len(points))
	copy(cp, points)

	return &Curve{exponent: exponent, points: cp}, nil
}

// Eval returns the curve value at zoom z, clamped to the first and last
// control point values outside their zoom span. A Curve that was not built
// by MakeCurve has no points and evaluates to NaN everywhere.
func (c *Curve) Eval(z float64) float64 {
	if len(c.points) == 0 {
		return math.NaN()
	}

	first, last := c.points[0], c.points[len(c.points)-1]

	if z <= first.Zoom {
		return first.Value
	}

	if z >= last.Zoom {
		return last.Value
	}

	i := 0
	for i+2 < len(c.points) && z >= c.points[i+1].Zoom {
		i++
	}

	lo, hi := c.points[i], c.points[i+1]

	t := (z - lo.Zoom) / (hi.Zoom - lo.Zoom)
	if t == 0 {
		return lo.Value
	}

	return lo.Value + math.Pow(t, c.exponent)*(hi.Value-lo.Value)
}

// Func returns Eval as a plain function value.
func (c *Curve) Func() func(float64) float64 {
	return c.Eval
}

// Exponent returns the easing exponent.
func (c *Curve) Exponent() float64 { return c.exponent }

// Points returns a copy of the control points.
func (c *Curve) Points() []ControlPoint {
	cp := make([]ControlPoint, len(c.points))
	copy(cp, c.points)

	return cp
}

// PairsToPoints converts a flat zoom, value, zoom, value... list into
// control points.
func PairsToPoints(flat []float64) ([]ControlPoint, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: %d numbers do not form zoom/value pairs", ErrInsufficientPoints, len(flat))
	}

	points := make([]ControlPoint, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		points = append(points, ControlPoint{Zoom: flat[i], Value: flat[i+1]})
	}

	return points, nil
}

// ParseControlPoint parses the "zoom:value" form used on the command line.
func ParseControlPoint(s string) (ControlPoint, error) {
	zs, vs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ControlPoint{}, fmt.Errorf("invalid control point %q: expected zoom:value", s)
	}

	zoom, err := strconv.ParseFloat(strings.TrimSpace(zs), 64)
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid control point zoom %q: %w", zs, err)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(vs), 64)
	if err != nil {
		return ControlPoint{}, fmt.Errorf("invalid control point value %q: %w", vs, err)
	}

	return ControlPoint{Zoom: zoom, Value: value}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
