package egpws

import (
	"testing"
	"time"

	"github.com/sweeney/egpwc/internal/arinc429"
)

const tickStep = 100 * time.Millisecond

// airborne returns valid inputs for level flight with the ILS not tuned.
func airborne(ra, cas float64) Inputs {
	alt := ra + 1000
	return Inputs{
		RA1: RadioAltimeter{Altitude: arinc429.Normal(ra)},
		RA2: RadioAltimeter{Altitude: arinc429.Normal(ra)},
		ADR: AirData{
			ComputedAirspeed: arinc429.Normal(cas),
			VerticalSpeed:    arinc429.Normal(0.0),
			StandardAltitude: arinc429.Normal(alt),
		},
		IR: InertialReference{
			Pitch:         arinc429.Normal(0.0),
			VerticalSpeed: arinc429.Normal(0.0),
			Altitude:      arinc429.Normal(alt),
			MagneticTrack: arinc429.Normal(90.0),
		},
		ILS: ILS{
			GlideslopeDeviation: arinc429.NewWord(0.0, arinc429.NoComputedData),
			LocalizerDeviation:  arinc429.NewWord(0.0, arinc429.NoComputedData),
			RunwayHeading:       arinc429.NewWord(0.0, arinc429.NoComputedData),
		},
	}
}

func (in *Inputs) setRA(ra float64) {
	in.RA1.Altitude.Value = ra
	in.RA2.Altitude.Value = ra
}

func (in *Inputs) setVS(vs float64) {
	in.ADR.VerticalSpeed.Value = vs
	in.IR.VerticalSpeed.Value = vs
}

func (in *Inputs) setAltitude(alt float64) {
	in.ADR.StandardAltitude.Value = alt
	in.IR.Altitude.Value = alt
}

func (in *Inputs) tuneILS(gs, loc, runway float64) {
	in.ILS.GlideslopeDeviation = arinc429.Normal(gs)
	in.ILS.LocalizerDeviation = arinc429.Normal(loc)
	in.ILS.RunwayHeading = arinc429.Normal(runway)
}

// flight drives a runtime at a fixed tick and keeps the published outputs.
type flight struct {
	t        *testing.T
	r        *Runtime
	in       Inputs
	discrete DiscreteOutputs
	bus      BusOutputs
	elapsed  time.Duration
	heard    []AuralWarning
}

func newFlight(t *testing.T, cfg Config, onGround bool, phase FlightPhase, in Inputs) *flight {
	t.Helper()
	return &flight{t: t, r: NewRunning(cfg, onGround, phase), in: in}
}

func (f *flight) step() {
	f.r.Update(tickStep, &f.in)
	f.r.SetOutputs(&f.discrete, &f.bus)
	f.elapsed += tickStep
	a := f.r.AuralOutput()
	if n := len(f.heard); a != AuralNone && (n == 0 || f.heard[n-1] != a) {
		f.heard = append(f.heard, a)
	}
}

// run steps for d, calling each (if non-nil) after every tick.
func (f *flight) run(d time.Duration, each func()) {
	for end := f.elapsed + d; f.elapsed < end; {
		f.step()
		if each != nil {
			each()
		}
	}
}

// until steps until the aural output is a and returns the time it took.
func (f *flight) until(a AuralWarning, limit time.Duration) time.Duration {
	f.t.Helper()
	start := f.elapsed
	for f.elapsed-start < limit {
		f.step()
		if f.r.AuralOutput() == a {
			return f.elapsed - start
		}
	}
	f.t.Fatalf("no %v within %v", a, limit)
	return 0
}

// glideslopeApproach is a stable approach 1.7 dots below the glideslope.
func glideslopeApproach(ra float64) Inputs {
	in := airborne(ra, 140)
	in.setVS(-700)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	in.tuneILS(-0.15, 0, 90)
	return in
}
