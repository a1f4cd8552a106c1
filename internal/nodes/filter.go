package nodes

import (
	"time"

	"golang.org/x/exp/constraints"
)

// RateLimiter follows its input, moving by at most Rate units per second.
type RateLimiter[T constraints.Float] struct {
	rate   T
	output T
}

func NewRateLimiter[T constraints.Float](ratePerSecond T) RateLimiter[T] {
	return RateLimiter[T]{rate: ratePerSecond}
}

func (r *RateLimiter[T]) Update(in T, dt time.Duration) T {
	step := r.rate * T(dt.Seconds())
	r.output += Clamp(in-r.output, -step, step)
	return r.output
}

func (r *RateLimiter[T]) Output() T { return r.output }

// LowPassFilter is a first order lag with time constant tau. The output
// starts at zero.
type LowPassFilter[T constraints.Float] struct {
	tau    time.Duration
	output T
}

func NewLowPassFilter[T constraints.Float](tau time.Duration) LowPassFilter[T] {
	return LowPassFilter[T]{tau: tau}
}

func (f *LowPassFilter[T]) Update(in T, dt time.Duration) T {
	if dt <= 0 {
		return f.output
	}
	s := dt.Seconds()
	f.output += (in - f.output) * T(s/(s+f.tau.Seconds()))
	return f.output
}

func (f *LowPassFilter[T]) Output() T { return f.output }

// DerivativeNode differentiates its input per second. The first update has
// nothing to compare against and yields zero.
type DerivativeNode[T constraints.Float] struct {
	prev   T
	seen   bool
	output T
}

func (d *DerivativeNode[T]) Update(in T, dt time.Duration) T {
	switch {
	case !d.seen:
		d.output = 0
	case dt > 0:
		d.output = (in - d.prev) / T(dt.Seconds())
	}
	d.prev, d.seen = in, true
	return d.output
}

func (d *DerivativeNode[T]) Output() T { return d.output }

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
