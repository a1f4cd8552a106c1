package scenario

import (
	"fmt"
	"time"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/egpws"
)

// Tick is the state of the computer after one update.
type Tick struct {
	Index    int
	Elapsed  time.Duration
	Step     int
	Inputs   egpws.Inputs
	Discrete egpws.DiscreteOutputs
	Bus      egpws.BusOutputs
	Aural    egpws.AuralWarning
	Snapshot egpws.Snapshot
	Running  bool
}

// Observer receives every tick. Returning an error stops the run.
type Observer interface {
	Observe(t Tick) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Tick) error

func (f ObserverFunc) Observe(t Tick) error { return f(t) }

// Failure is an expectation not met at the end of a step.
type Failure struct {
	Step    int
	Name    string
	Elapsed time.Duration
	Field   string
	Want    string
	Got     string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (%s) at %v: %s want %s got %s", f.Step, f.Name, f.Elapsed, f.Field, f.Want, f.Got)
}

// Result summarises a run.
type Result struct {
	Ticks    int
	Elapsed  time.Duration
	Failures []Failure
}

// OK reports whether every expectation was met.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// flight is the current parameter set of the scripted aircraft.
type flight struct {
	ra, ra2, vs, alt, cas, pitch float64
	gsDots, locDots              float64
	track, runwayHeading         float64
	ra2Set                       bool
	ilsTuned                     bool
	discretes                    egpws.DiscreteInputs
	ssm                          map[string]arinc429.SSM
}

func (f *flight) apply(st *Step) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&f.ra, st.RA)
	set(&f.vs, st.VS)
	set(&f.alt, st.Altitude)
	set(&f.cas, st.CAS)
	set(&f.pitch, st.Pitch)
	set(&f.track, st.Track)
	set(&f.runwayHeading, st.RunwayHeading)
	if st.RA2 != nil {
		f.ra2, f.ra2Set = *st.RA2, true
	}
	if st.GSDots != nil || st.LocDots != nil {
		f.ilsTuned = true
	}
	set(&f.gsDots, st.GSDots)
	set(&f.locDots, st.LocDots)
	if st.Flaps != nil {
		f.discretes.LandingFlaps = *st.Flaps
	}
	if st.Gear != nil {
		f.discretes.LandingGearDownlocked = *st.Gear
	}
	for name, v := range st.Discretes {
		*discreteNames[name](&f.discretes) = v
	}
	for src, ssm := range st.SSM {
		f.ssm[src] = ssm
	}
}

func (f *flight) integrate(dt time.Duration) {
	d := f.vs * dt.Minutes()
	f.ra = max(f.ra+d, 0)
	if f.ra2Set {
		f.ra2 = max(f.ra2+d, 0)
	}
	f.alt += d
}

func (f *flight) inputs() egpws.Inputs {
	word := func(src string, v float64) arinc429.Word[float64] {
		ssm, ok := f.ssm[src]
		if !ok {
			ssm = arinc429.NormalOperation
		}
		return arinc429.NewWord(v, ssm)
	}
	ra2 := f.ra
	if f.ra2Set {
		ra2 = f.ra2
	}
	in := egpws.Inputs{
		Discretes: f.discretes,
		RA1:       egpws.RadioAltimeter{Altitude: word(SourceRA1, f.ra)},
		RA2:       egpws.RadioAltimeter{Altitude: word(SourceRA2, ra2)},
		ADR: egpws.AirData{
			ComputedAirspeed: word(SourceADR, f.cas),
			VerticalSpeed:    word(SourceADR, f.vs),
			StandardAltitude: word(SourceADR, f.alt),
		},
		IR: egpws.InertialReference{
			Pitch:         word(SourceIR, f.pitch),
			VerticalSpeed: word(SourceIR, f.vs),
			Altitude:      word(SourceIR, f.alt),
			MagneticTrack: word(SourceIR, f.track),
		},
	}
	if f.ilsTuned {
		in.ILS = egpws.ILS{
			GlideslopeDeviation: word(SourceILS, -f.gsDots*egpws.GlideslopeDotDDM),
			LocalizerDeviation:  word(SourceILS, f.locDots*egpws.LocalizerDotDDM),
			RunwayHeading:       word(SourceILS, f.runwayHeading),
		}
	} else {
		ncd := arinc429.NewWord(0.0, arinc429.NoComputedData)
		in.ILS = egpws.ILS{GlideslopeDeviation: ncd, LocalizerDeviation: ncd, RunwayHeading: ncd}
	}
	return in
}

// Run replays s through a freshly powered computer, passing every tick to
// obs (which may be nil).
func Run(s *Scenario, obs Observer) (Result, error) {
	c := egpws.NewComputer(s.Config(), egpws.DefaultPowerHoldover, false, s.OnGround)
	c.RestoreNVM(s.OnGround, s.Phase)
	c.SetPowered(true)
	return RunComputer(s, c, obs)
}

// RunComputer replays s through c.
func RunComputer(s *Scenario, c *egpws.Computer, obs Observer) (Result, error) {
	var res Result
	f := flight{ssm: make(map[string]arinc429.SSM)}

	for i := range s.Steps {
		st := &s.Steps[i]
		f.apply(st)
		if st.Powered != nil {
			c.SetPowered(*st.Powered)
		}
		if st.Failed != nil {
			c.SetFailed(*st.Failed)
		}

		for end := res.Elapsed + st.Duration; res.Elapsed < end; {
			if st.Integrate {
				f.integrate(s.Tick)
			}
			in := f.inputs()
			c.Update(s.Tick, &in)
			res.Elapsed += s.Tick
			res.Ticks++

			if obs != nil {
				t := tickOf(c, in)
				t.Index, t.Elapsed, t.Step = res.Ticks-1, res.Elapsed, i
				if err := obs.Observe(t); err != nil {
					return res, fmt.Errorf("observe tick %d: %w", t.Index, err)
				}
			}
		}

		if st.Expect != nil {
			res.Failures = append(res.Failures, check(i, st, res.Elapsed, c)...)
		}
	}
	return res, nil
}

func tickOf(c *egpws.Computer, in egpws.Inputs) Tick {
	d, b := c.Outputs()
	t := Tick{Inputs: in, Discrete: d, Bus: b, Aural: c.AuralOutput()}
	if r := c.Runtime(); r != nil {
		t.Running = true
		t.Snapshot = r.Snapshot()
	}
	return t
}

func check(i int, st *Step, elapsed time.Duration, c *egpws.Computer) []Failure {
	var out []Failure
	fail := func(field string, want, got any) {
		out = append(out, Failure{
			Step: i, Name: st.Name, Elapsed: elapsed, Field: field,
			Want: fmt.Sprint(want), Got: fmt.Sprint(got),
		})
	}
	e := st.Expect
	d, _ := c.Outputs()

	if e.Aural != nil && *e.Aural != c.AuralOutput() {
		fail("aural", *e.Aural, c.AuralOutput())
	}
	if e.WarningLamp != nil && *e.WarningLamp != d.WarningLamp {
		fail("warning_lamp", *e.WarningLamp, d.WarningLamp)
	}
	if e.AlertLamp != nil && *e.AlertLamp != d.AlertLamp {
		fail("alert_lamp", *e.AlertLamp, d.AlertLamp)
	}
	if e.GPWSInop != nil && *e.GPWSInop != d.GPWSInop {
		fail("gpws_inop", *e.GPWSInop, d.GPWSInop)
	}

	r := c.Runtime()
	if e.OnGround != nil {
		if r == nil {
			fail("on_ground", *e.OnGround, "no runtime")
		} else if *e.OnGround != r.OnGround() {
			fail("on_ground", *e.OnGround, r.OnGround())
		}
	}
	if e.Phase != nil {
		if r == nil {
			fail("phase", *e.Phase, "no runtime")
		} else if *e.Phase != r.FlightPhase() {
			fail("phase", *e.Phase, r.FlightPhase())
		}
	}
	return out
}
