package nodes

import "fmt"

// Curve is a piecewise linear function through (X[i], Y[i]). Inputs outside
// the breakpoints are clamped to the end values.
type Curve struct {
	X []float64
	Y []float64
}

// NewCurve validates the tables. X must be strictly ascending and the same
// length as Y.
func NewCurve(x, y []float64) (Curve, error) {
	if len(x) == 0 || len(x) != len(y) {
		return Curve{}, fmt.Errorf("curve: %d breakpoints, %d values", len(x), len(y))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return Curve{}, fmt.Errorf("curve: breakpoints not ascending at index %d", i)
		}
	}
	return Curve{X: x, Y: y}, nil
}

// MustCurve is NewCurve for package-level tables.
func MustCurve(x, y []float64) Curve {
	c, err := NewCurve(x, y)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Curve) At(v float64) float64 {
	n := len(c.X)
	if v <= c.X[0] {
		return c.Y[0]
	}
	if v >= c.X[n-1] {
		return c.Y[n-1]
	}
	i := 1
	for v > c.X[i] {
		i++
	}
	x0, x1 := c.X[i-1], c.X[i]
	y0, y1 := c.Y[i-1], c.Y[i]
	return y0 + (y1-y0)*(v-x0)/(x1-x0)
}
