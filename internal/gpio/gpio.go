// Package gpio provides cockpit discrete inputs and lamp outputs with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device. The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/egpwc/internal/egpws"
)

// Reader reads the cockpit discretes.
type Reader interface {
	// Read returns the logical state of the discretes. Active-low wiring is
	// already accounted for.
	Read() (egpws.DiscreteInputs, error)

	// Close releases GPIO resources.
	Close() error
}

// Lamps drives the cockpit lamps and the audio relay.
type Lamps interface {
	Set(alert, warning, audio bool) error
	Close() error
}

// NumInputs is the number of discrete input lines.
const NumInputs = 7

// Discretes maps logical line values, in the order of config.GPIO.Inputs,
// to the engine discretes.
func Discretes(values []int) (egpws.DiscreteInputs, error) {
	if len(values) != NumInputs {
		return egpws.DiscreteInputs{}, fmt.Errorf("gpio: %d input values, want %d", len(values), NumInputs)
	}
	return egpws.DiscreteInputs{
		GPWSInhibit:           values[0] != 0,
		AudioInhibit:          values[1] != 0,
		LandingFlaps:          values[2] != 0,
		LandingGearDownlocked: values[3] != 0,
		GlideslopeInhibit:     values[4] != 0,
		GSCancel:              values[5] != 0,
		SimRepositionActive:   values[6] != 0,
	}, nil
}

// lampValues returns the output line values for the alert lamp, warning lamp
// and audio relay.
func lampValues(alert, warning, audio bool) []int {
	return []int{bit(alert), bit(warning), bit(audio)}
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
