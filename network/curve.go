package network

import "sort"

// Curve is a monotonic piecewise-linear function x -> y, used for pump
// head-flow curves, tank cross-section (volume-vs-level) curves, GPV
// head-loss curves, and CCV representation-table curves. Points must be
// given in increasing x order; Curve does not sort them for you because the
// caller (a loader) is expected to have validated monotonicity already.
type Curve struct {
	ID     string
	X      []float64
	Y      []float64
}

// FindSegment returns the slope r and intercept h0 of the linear segment
// y = r*x + h0 containing x, along with the segment's index. Values outside
// the curve's domain are clamped to the nearest end segment, matching the
// teacher's/EPANET's convention of linear extrapolation past the ends
// rather than an error.
func (c *Curve) FindSegment(x float64) (r, h0 float64, seg int) {
	n := len(c.X)
	if n == 0 {
		return 0, 0, -1
	}
	if n == 1 {
		return 0, c.Y[0], 0
	}
	// sort.Search finds the first index i such that c.X[i] >= x.
	i := sort.Search(n, func(i int) bool { return c.X[i] >= x })
	switch {
	case i <= 0:
		seg = 0
	case i >= n:
		seg = n - 2
	default:
		seg = i - 1
	}
	x0, x1 := c.X[seg], c.X[seg+1]
	y0, y1 := c.Y[seg], c.Y[seg+1]
	if x1 == x0 {
		return 0, y0, seg
	}
	r = (y1 - y0) / (x1 - x0)
	h0 = y0 - r*x0
	return r, h0, seg
}

// Value evaluates the curve at x by linear interpolation/extrapolation.
func (c *Curve) Value(x float64) float64 {
	r, h0, _ := c.FindSegment(x)
	return r*x + h0
}
