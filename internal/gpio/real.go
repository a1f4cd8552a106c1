//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/egpwc/internal/egpws"
)

func lineOptions(activeLow bool) []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer("egpwc")}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

// RealReader reads the discretes using the Linux GPIO character device.
type RealReader struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	values []int
}

// NewRealReader requests the input lines at the given offsets on chip.
func NewRealReader(chip string, offsets []int, activeLow bool) (*RealReader, error) {
	if len(offsets) != NumInputs {
		return nil, fmt.Errorf("gpio: %d input offsets, want %d", len(offsets), NumInputs)
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-down matches the Pi boot defaults so an unwired input reads
	// inactive.
	opts := append(lineOptions(activeLow), gpiocdev.AsInput, gpiocdev.WithPullDown)
	lines, err := c.RequestLines(offsets, opts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request input lines %v: %w", offsets, err)
	}

	return &RealReader{chip: c, lines: lines, values: make([]int, len(offsets))}, nil
}

// Read returns the logical state of the discretes.
func (r *RealReader) Read() (egpws.DiscreteInputs, error) {
	if err := r.lines.Values(r.values); err != nil {
		return egpws.DiscreteInputs{}, fmt.Errorf("read input lines: %w", err)
	}
	return Discretes(r.values)
}

// Close releases the lines and the chip.
func (r *RealReader) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLamps drives the lamp and audio lines.
type RealLamps struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealLamps requests the alert lamp, warning lamp and audio offsets as
// outputs, initially off.
func NewRealLamps(chip string, offsets []int, activeLow bool) (*RealLamps, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	opts := append(lineOptions(activeLow), gpiocdev.AsOutput(0, 0, 0))
	lines, err := c.RequestLines(offsets, opts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request output lines %v: %w", offsets, err)
	}
	return &RealLamps{chip: c, lines: lines}, nil
}

func (l *RealLamps) Set(alert, warning, audio bool) error {
	if err := l.lines.SetValues(lampValues(alert, warning, audio)); err != nil {
		return fmt.Errorf("set output lines: %w", err)
	}
	return nil
}

// Close turns the outputs off and reconfigures them as inputs with
// pull-down, the Pi boot default, before releasing them.
func (l *RealLamps) Close() error {
	var errs []error
	if l.lines != nil {
		if err := l.lines.SetValues([]int{0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("clear output lines: %w", err))
		}
		if err := l.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output lines: %w", err))
		}
		if err := l.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output lines: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
