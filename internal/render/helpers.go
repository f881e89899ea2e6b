package render

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/hupe1980/mapnikgen/internal/interp"
	"github.com/hupe1980/mapnikgen/internal/scale"
)

// Zoom map keys exposed to templates.
const (
	keyZoom   = "z"
	keyIsLast = "is_last"
	keyElem   = "elem"
)

// helpers binds the template-callable functions of one render pass. The
// first error a helper returns is kept so callers can inspect it after
// pongo2 has flattened it into a message.
type helpers struct {
	mu    sync.Mutex
	first error
}

// context returns the helpers under their original template names and
// descriptive aliases.
func (h *helpers) context() pongo2.Context {
	return pongo2.Context{
		"zooms":             h.zooms,
		"expand_range":      h.zooms,
		"min_zoom_elem":     h.minZoomElem,
		"min_zoom_fragment": h.minZoomElem,
		"interpolate_exp":   h.interpolateExp,
		"make_curve":        h.interpolateExp,
		"enumerate":         h.enumerate,
	}
}

// HelperNames lists the names templates can call.
func HelperNames() []string {
	names := make([]string, 0, 7)
	for name := range (&helpers{}).context() {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (h *helpers) fail(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.first == nil {
		h.first = err
	}

	return err
}

func (h *helpers) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.first
}

func (h *helpers) zooms(minZoom, maxZoom *pongo2.Value) ([]map[string]any, error) {
	lo, err := zoomArg(minZoom)
	if err != nil {
		return nil, h.fail(err)
	}

	hi, err := zoomArg(maxZoom)
	if err != nil {
		return nil, h.fail(err)
	}

	levels, err := scale.ExpandRange(lo, hi)
	if err != nil {
		return nil, h.fail(err)
	}

	out := make([]map[string]any, len(levels))
	for i, l := range levels {
		out[i] = zoomMap(l)
	}

	return out, nil
}

func zoomMap(l scale.ZoomLevel) map[string]any {
	return map[string]any{
		keyZoom:   l.Z,
		keyIsLast: l.IsLast,
		keyElem:   l.Fragment(),
	}
}

func (h *helpers) minZoomElem(minZoom *pongo2.Value) (string, error) {
	z, err := zoomArg(minZoom)
	if err != nil {
		return "", h.fail(err)
	}

	frag, err := scale.MinZoomFragment(z)
	if err != nil {
		return "", h.fail(err)
	}

	return frag, nil
}

// zoomArg converts a template argument to a zoom level. Only whole numbers
// are accepted; 3.0 is zoom 3 but 2.5 is an error.
func zoomArg(v *pongo2.Value) (int, error) {
	switch {
	case v.IsInteger():
		return v.Integer(), nil
	case v.IsFloat():
		if f := v.Float(); f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), nil
		}
	}

	return 0, fmt.Errorf("%w: %q is not a whole zoom level", scale.ErrZoomOutOfRange, v.String())
}

// interpolateExp accepts control points as flat numbers or as nested
// [zoom, value] lists, e.g. interpolate_exp(2, 10, 0, 14, 10) or
// interpolate_exp(2, vars.widths).
func (h *helpers) interpolateExp(exponent *pongo2.Value, stops ...*pongo2.Value) (func(*pongo2.Value) (float64, error), error) {
	if !exponent.IsNumber() {
		return nil, h.fail(fmt.Errorf("%w: exponent %q is not a number", interp.ErrInvalidCurve, exponent.String()))
	}

	var flat []float64
	for _, s := range stops {
		nums, err := flatten(s.Interface())
		if err != nil {
			return nil, h.fail(err)
		}

		flat = append(flat, nums...)
	}

	points, err := interp.PairsToPoints(flat)
	if err != nil {
		return nil, h.fail(err)
	}

	curve, err := interp.MakeCurve(exponent.Float(), points...)
	if err != nil {
		return nil, h.fail(err)
	}

	return func(zoom *pongo2.Value) (float64, error) {
		z, err := zoomOf(zoom)
		if err != nil {
			return 0, h.fail(err)
		}

		return curve.Eval(z), nil
	}, nil
}

// zoomOf extracts a zoom from a zoom map, a scale.ZoomLevel or a number.
func zoomOf(v *pongo2.Value) (float64, error) {
	if v.IsNumber() {
		return v.Float(), nil
	}

	switch x := v.Interface().(type) {
	case map[string]any:
		if z, ok := x[keyZoom]; ok {
			return toFloat(z)
		}
	case scale.ZoomLevel:
		return float64(x.Z), nil
	case *scale.ZoomLevel:
		return float64(x.Z), nil
	}

	return 0, fmt.Errorf("cannot use %q as a zoom level", v.String())
}

func flatten(v any) ([]float64, error) {
	switch x := v.(type) {
	case []any:
		var out []float64

		for _, item := range x {
			nums, err := flatten(item)
			if err != nil {
				return nil, err
			}

			out = append(out, nums...)
		}

		return out, nil
	case []float64:
		return append([]float64(nil), x...), nil
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}

		return out, nil
	case *pongo2.Value:
		return flatten(x.Interface())
	default:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}

		return []float64{f}, nil
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("control point coordinate %v (%T) is not a number", v, v)
	}
}

// enumerate pairs every item with its index. Templates read the pair as
// p.index and p.item.
func (h *helpers) enumerate(seq *pongo2.Value) ([]map[string]any, error) {
	if !seq.CanSlice() {
		return nil, h.fail(fmt.Errorf("enumerate: %q is not a sequence", seq.String()))
	}

	out := make([]map[string]any, 0, seq.Len())
	seq.Iterate(func(idx, _ int, key, _ *pongo2.Value) bool {
		out = append(out, map[string]any{"index": idx, "item": key.Interface()})
		return true
	}, func() {})

	return out, nil
}
