//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/egpwc/internal/egpws"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chip string, offsets []int, activeLow bool) (*RealReader, error) {
	return nil, errUnsupported
}

func (r *RealReader) Read() (egpws.DiscreteInputs, error) {
	return egpws.DiscreteInputs{}, errUnsupported
}

func (r *RealReader) Close() error { return nil }

// RealLamps is not available on non-Linux platforms.
type RealLamps struct{}

// NewRealLamps returns an error on non-Linux platforms.
func NewRealLamps(chip string, offsets []int, activeLow bool) (*RealLamps, error) {
	return nil, errUnsupported
}

func (l *RealLamps) Set(alert, warning, audio bool) error { return errUnsupported }

func (l *RealLamps) Close() error { return nil }
