package egpws

import (
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

const (
	groundToAirRAFt       = 25
	groundToAirCASKt      = 90
	groundToAirPitchDeg   = 5
	airToGroundCASKt      = 60
	approachToTakeoffRAFt = 245
	altitudeGainLimitFt   = 700
	altitudeGainThreshold = 84_700
)

// phaseInputs are the values from other components the tracker reads. The
// mode 4 values come from the previous tick.
type phaseInputs struct {
	ra, alt         float64
	cas, pitch      float64
	mode4Lamp       bool
	mode4CFilter    float64
	mode4AUpper     float64
	repositionHeld  bool
	declutterActive bool
}

// phaseTracker keeps the on ground state and the flight phase.
type phaseTracker struct {
	onGround bool
	phase    FlightPhase

	groundToAir       nodes.Confirmation
	approachToTakeoff nodes.Confirmation
	takeoffGoAround   nodes.Pulse

	altitudeGain   float64
	fieldElevation float64
}

func newPhaseTracker(onGround bool, phase FlightPhase) phaseTracker {
	return phaseTracker{
		onGround:          onGround,
		phase:             phase,
		groundToAir:       nodes.NewRisingConfirmation(10 * time.Second),
		approachToTakeoff: nodes.NewRisingConfirmation(200 * time.Millisecond),
		takeoffGoAround:   nodes.NewRisingPulse(),
	}
}

func (p *phaseTracker) update(in phaseInputs, dt time.Duration) {
	speedCondition := in.ra >= groundToAirRAFt && in.cas >= groundToAirCASKt
	confirmed := p.groundToAir.Update(speedCondition, dt)
	pitchCondition := in.pitch >= groundToAirPitchDeg
	airToGround := in.ra < groundToAirRAFt && in.cas < airToGroundCASKt

	if in.repositionHeld {
		p.onGround = !speedCondition
		p.phase = Takeoff
		if in.ra >= approachToTakeoffRAFt {
			p.phase = Approach
		}
		return
	}

	if p.onGround && speedCondition && (pitchCondition || confirmed) {
		p.onGround = false
	} else if !p.onGround && airToGround {
		p.onGround = true
	}

	toTakeoff := p.approachToTakeoff.Update(in.ra < approachToTakeoffRAFt && !in.mode4Lamp, dt)

	if p.phase == Takeoff && !p.onGround {
		p.altitudeGain += nodes.Clamp(in.alt-p.fieldElevation, 0, altitudeGainLimitFt) * dt.Seconds()
	} else {
		p.altitudeGain = 0
	}

	toApproach := (in.declutterActive && p.altitudeGain > altitudeGainThreshold) ||
		in.mode4CFilter > in.mode4AUpper

	p.phase = nextPhase(p.phase, toApproach, toTakeoff)

	if p.takeoffGoAround.Update(!p.onGround || toTakeoff) {
		p.fieldElevation = in.alt - in.ra
	}
}

// nextPhase is the phase transition function.
func nextPhase(phase FlightPhase, toApproach, toTakeoff bool) FlightPhase {
	switch {
	case phase == Takeoff && toApproach:
		return Approach
	case phase == Approach && toTakeoff:
		return Takeoff
	}
	return phase
}
