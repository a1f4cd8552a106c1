package egpws

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/nodes"
)

const repositionHold = 3 * time.Second

// Runtime is the software running on a powered computer.
type Runtime struct {
	cfg              Config
	remainingStartup time.Duration

	reposition nodes.Confirmation
	faults     faultMonitor
	tracker    phaseTracker

	m1    *mode1
	m2    *mode2
	m3    *mode3
	m4    *mode4
	m5    *mode5
	modes [5]mode

	lamps   lamp
	voices  voice
	inop    bool
	arbiter arbiter

	logger *log.Logger
}

// New returns a runtime that completes its self test after cfg.SelfTest.
// onGround and phase are the values restored from non-volatile memory.
func New(cfg Config, onGround bool, phase FlightPhase) *Runtime {
	r := &Runtime{
		cfg:              cfg,
		remainingStartup: cfg.SelfTest,
		reposition:       nodes.NewFallingConfirmation(repositionHold),
		faults:           newFaultMonitor(),
		tracker:          newPhaseTracker(onGround, phase),
		m1:               newMode1(),
		m2:               newMode2(),
		m3:               &mode3{},
		m4:               newMode4(),
		m5:               newMode5(),
		arbiter:          newArbiter(cfg.Pins),
	}
	r.modes = [5]mode{r.m1, r.m2, r.m3, r.m4, r.m5}
	return r
}

// NewRunning returns a runtime that skips the self test.
func NewRunning(cfg Config, onGround bool, phase FlightPhase) *Runtime {
	cfg.SelfTest = 0
	return New(cfg, onGround, phase)
}

// SetLogger enables debug logging of state transitions.
func (r *Runtime) SetLogger(l *log.Logger) {
	r.logger = l
}

// Update advances the runtime by dt. Non-positive intervals are ignored.
func (r *Runtime) Update(dt time.Duration, in *Inputs) {
	if dt <= 0 {
		return
	}
	starting := r.remainingStartup > 0
	r.remainingStartup = nodes.SaturatingSub(r.remainingStartup, dt)
	if r.remainingStartup > 0 {
		return
	}
	if starting && r.logger != nil {
		r.logger.Debug("self test complete", "on_ground", r.tracker.onGround, "phase", r.tracker.phase)
	}

	var before Snapshot
	if r.logger != nil {
		before = r.Snapshot()
	}

	held := r.reposition.Update(in.Discretes.SimRepositionActive, dt)
	r.faults.update(in, r.cfg.Assumptions, dt)
	r.tracker.update(phaseInputs{
		ra:              r.faults.ra,
		alt:             r.faults.alt,
		cas:             in.ADR.ComputedAirspeed.Value,
		pitch:           in.IR.Pitch.ValueOrDefault(),
		mode4Lamp:       r.m4.lamp,
		mode4CFilter:    r.m4.cFilter,
		mode4AUpper:     r.m4.aUpperBound,
		repositionHeld:  held,
		declutterActive: !r.cfg.Pins.AudioDeclutterDisable,
	}, dt)

	t := tick{
		dt:          dt,
		in:          in,
		pins:        r.cfg.Pins,
		assumptions: r.cfg.Assumptions,
		ra:          r.faults.ra,
		vs:          r.faults.vs,
		alt:         r.faults.alt,
		onGround:    r.tracker.onGround,
		phase:       r.tracker.phase,
		aural:       r.arbiter.aural,
		emissions:   r.arbiter.emissions,
	}
	r.lamps, r.voices = 0, 0
	for _, m := range r.modes {
		m.update(&t)
		l, v := m.annunciations()
		r.lamps |= l
		r.voices |= v
	}

	r.inop = r.faults.generalFault || (r.faults.mode5Fault && r.tracker.onGround)
	d := in.Discretes
	r.arbiter.update(r.lamps, r.voices, d.GPWSInhibit || r.inop, d.GPWSInhibit || d.AudioInhibit || r.inop, dt)

	r.logTransitions(before)
}

func (r *Runtime) logTransitions(before Snapshot) {
	if r.logger == nil {
		return
	}
	if before.OnGround != r.tracker.onGround {
		r.logger.Debug("on ground changed", "on_ground", r.tracker.onGround, "ra", r.faults.ra)
	}
	if before.Phase != r.tracker.phase {
		r.logger.Debug("flight phase changed", "from", before.Phase, "to", r.tracker.phase)
	}
	if before.GeneralFault != r.faults.generalFault || before.Mode5Fault != r.faults.mode5Fault {
		r.logger.Debug("fault state changed", "general", r.faults.generalFault, "mode5", r.faults.mode5Fault)
	}
	if before.Aural != r.arbiter.aural {
		r.logger.Debug("aural changed", "from", before.Aural, "to", r.arbiter.aural)
	}
}

// Initialized reports whether the self test has completed.
func (r *Runtime) Initialized() bool { return r.remainingStartup == 0 }

func (r *Runtime) AuralOutput() AuralWarning { return r.arbiter.aural }
func (r *Runtime) OnGround() bool            { return r.tracker.onGround }
func (r *Runtime) FlightPhase() FlightPhase  { return r.tracker.phase }

// SetOutputs publishes the runtime state. Outputs are left untouched until
// the self test has completed.
func (r *Runtime) SetOutputs(d *DiscreteOutputs, b *BusOutputs) {
	if !r.Initialized() {
		return
	}
	a := r.arbiter
	audioOn := a.aural != AuralNone

	*d = DiscreteOutputs{
		AlertLamp:   a.alertLamp,
		WarningLamp: a.warningLamp,
		AudioOn:     audioOn,
		GPWSInop:    r.inop,
		TerrainInop: r.faults.terrSysFault,
	}

	l := r.cfg.AlertWords
	w1 := arinc429.NewDiscreteWord(l.Word1Label, arinc429.NormalOperation)
	w1.SetBit(l.SinkRate, a.aural == AuralSinkRate)
	w1.SetBit(l.PullUp, a.aural == AuralPullUp)
	w1.SetBit(l.Terrain, a.aural == AuralTerrain)
	w1.SetBit(l.DontSink, a.aural == AuralDontSink)
	w1.SetBit(l.TooLowGear, a.aural == AuralTooLowGear)
	w1.SetBit(l.TooLowFlaps, a.aural == AuralTooLowFlaps)
	w1.SetBit(l.TooLowTerrain, a.aural == AuralTooLowTerrain)
	w1.SetBit(l.Glideslope, isGlideslope(a.aural))

	w2 := arinc429.NewDiscreteWord(l.Word2Label, arinc429.NormalOperation)
	w2.SetBit(l.AlertLamp, a.alertLamp)
	w2.SetBit(l.WarningLamp, a.warningLamp)
	w2.SetBit(l.GeneralFault, r.faults.generalFault)
	w2.SetBit(l.AudioOn, audioOn)

	b.AlertDiscrete1, b.AlertDiscrete2 = w1, w2
}

// Snapshot is a read-only copy of the runtime state for status pages,
// traces and tests.
type Snapshot struct {
	Initialized bool        `json:"initialized"`
	OnGround    bool        `json:"on_ground"`
	Phase       FlightPhase `json:"phase"`

	RadioAltitudeFt float64 `json:"ra_ft"`
	VerticalSpeed   float64 `json:"vs_ft_min"`
	AltitudeFt      float64 `json:"alt_ft"`
	FieldElevation  float64 `json:"field_elevation_ft"`

	GeneralFault  bool `json:"general_fault"`
	Mode5Fault    bool `json:"mode5_fault"`
	RAFault       bool `json:"ra_fault"`
	VSFault       bool `json:"vs_fault"`
	AltitudeFault bool `json:"altitude_fault"`
	GPWSInop      bool `json:"gpws_inop"`

	Mode1SinkRateLamp  bool    `json:"mode1_sink_rate_lamp"`
	Mode1SinkRateVoice bool    `json:"mode1_sink_rate_voice"`
	Mode1PullUp        bool    `json:"mode1_pull_up"`
	Mode2ClosureRate   float64 `json:"mode2_closure_rate"`
	Mode2Preface       bool    `json:"mode2_preface"`
	Mode2PullUp        bool    `json:"mode2_pull_up"`
	Mode2Terrain       bool    `json:"mode2_terrain"`
	Mode3Lamp          bool    `json:"mode3_lamp"`
	Mode3Voice         bool    `json:"mode3_voice"`
	Mode4Lamp          bool    `json:"mode4_lamp"`
	Mode4B             bool    `json:"mode4b"`
	Mode4CFilter       float64 `json:"mode4c_filter"`
	Mode4TooLowGear    bool    `json:"mode4_too_low_gear"`
	Mode4TooLowFlaps   bool    `json:"mode4_too_low_flaps"`
	Mode4TooLowTerrain bool    `json:"mode4_too_low_terrain"`
	Mode5Lamp          bool    `json:"mode5_lamp"`
	Mode5Soft          bool    `json:"mode5_soft"`
	Mode5Hard          bool    `json:"mode5_hard"`

	WarningLamp bool           `json:"warning_lamp"`
	AlertLamp   bool           `json:"alert_lamp"`
	Aural       AuralWarning   `json:"aural"`
	Emissions   int            `json:"emissions"`
	Candidates  []AuralWarning `json:"candidates"`
}

func (r *Runtime) Snapshot() Snapshot {
	s := Snapshot{
		Initialized:     r.Initialized(),
		OnGround:        r.tracker.onGround,
		Phase:           r.tracker.phase,
		RadioAltitudeFt: r.faults.ra,
		VerticalSpeed:   r.faults.vs,
		AltitudeFt:      r.faults.alt,
		FieldElevation:  r.tracker.fieldElevation,

		GeneralFault:  r.faults.generalFault,
		Mode5Fault:    r.faults.mode5Fault,
		RAFault:       r.faults.raFault,
		VSFault:       r.faults.vsFault,
		AltitudeFault: r.faults.altitudeFault,
		GPWSInop:      r.inop,

		Mode1SinkRateLamp:  r.m1.sinkRateLamp,
		Mode1SinkRateVoice: r.m1.sinkRateVoice,
		Mode1PullUp:        r.m1.pullUp,
		Mode2ClosureRate:   r.m2.closureRate,
		Mode2Preface:       r.m2.preface,
		Mode2PullUp:        r.m2.pullUp,
		Mode2Terrain:       r.m2.terrainOnly,
		Mode3Lamp:          r.m3.lamp,
		Mode3Voice:         r.m3.voice,
		Mode4Lamp:          r.m4.lamp,
		Mode4B:             r.m4.mode4B,
		Mode4CFilter:       r.m4.cFilter,
		Mode4TooLowGear:    r.m4.tooLowGear,
		Mode4TooLowFlaps:   r.m4.tooLowFlaps,
		Mode4TooLowTerrain: r.m4.tooLowTerrain,
		Mode5Lamp:          r.m5.lamp,
		Mode5Soft:          r.m5.softVoice,
		Mode5Hard:          r.m5.hardVoice,

		WarningLamp: r.arbiter.warningLamp,
		AlertLamp:   r.arbiter.alertLamp,
		Aural:       r.arbiter.aural,
		Emissions:   r.arbiter.emissions,
	}
	for _, p := range auralPriority {
		if r.voices&p.voice != 0 {
			s.Candidates = append(s.Candidates, p.aural)
		}
	}
	return s
}
