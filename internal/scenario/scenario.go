// Package scenario replays scripted flights through the computer. A scenario
// is a YAML file of steps, each holding the inputs for a while and optionally
// checking the outputs at its end.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/egpws"
)

// ErrNoSteps is returned for a scenario without steps.
var ErrNoSteps = errors.New("scenario: no steps")

// DefaultTick is used when a scenario does not set one.
const DefaultTick = 100 * time.Millisecond

// Scenario is a scripted flight.
type Scenario struct {
	Name        string               `yaml:"name"`
	Tick        time.Duration        `yaml:"tick"`
	SelfTest    time.Duration        `yaml:"self_test"`
	Pins        egpws.PinProgramming `yaml:"pins"`
	Assumptions egpws.Assumptions    `yaml:"assumptions"`
	OnGround    bool                 `yaml:"on_ground"`
	Phase       egpws.FlightPhase    `yaml:"phase"`
	Steps       []Step               `yaml:"steps"`
}

// Source names used as keys of Step.SSM.
const (
	SourceRA1 = "ra1"
	SourceRA2 = "ra2"
	SourceADR = "adr"
	SourceIR  = "ir"
	SourceILS = "ils"
)

// Step holds its parameters for Duration. Unset parameters keep the value of
// the previous step.
type Step struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`

	RA            *float64 `yaml:"ra_ft"`
	RA2           *float64 `yaml:"ra2_ft"`
	VS            *float64 `yaml:"vs_ft_min"`
	Altitude      *float64 `yaml:"alt_ft"`
	CAS           *float64 `yaml:"cas_kt"`
	Pitch         *float64 `yaml:"pitch_deg"`
	GSDots        *float64 `yaml:"gs_dots"`
	LocDots       *float64 `yaml:"loc_dots"`
	Track         *float64 `yaml:"track_deg"`
	RunwayHeading *float64 `yaml:"runway_heading_deg"`
	Flaps         *bool    `yaml:"flaps"`
	Gear          *bool    `yaml:"gear"`

	// Integrate moves radio altitude and altitude by the vertical speed on
	// every tick of the step.
	Integrate bool `yaml:"integrate"`

	Discretes map[string]bool         `yaml:"discretes"`
	SSM       map[string]arinc429.SSM `yaml:"ssm"`

	Powered *bool `yaml:"powered"`
	Failed  *bool `yaml:"failed"`

	Expect *Expect `yaml:"expect"`
}

// Expect lists the outputs checked at the end of a step. Unset fields are
// not checked.
type Expect struct {
	Aural       *egpws.AuralWarning `yaml:"aural"`
	WarningLamp *bool               `yaml:"warning_lamp"`
	AlertLamp   *bool               `yaml:"alert_lamp"`
	GPWSInop    *bool               `yaml:"gpws_inop"`
	OnGround    *bool               `yaml:"on_ground"`
	Phase       *egpws.FlightPhase  `yaml:"phase"`
}

var discreteNames = map[string]func(*egpws.DiscreteInputs) *bool{
	"gpws_inhibit":            func(d *egpws.DiscreteInputs) *bool { return &d.GPWSInhibit },
	"audio_inhibit":           func(d *egpws.DiscreteInputs) *bool { return &d.AudioInhibit },
	"landing_flaps":           func(d *egpws.DiscreteInputs) *bool { return &d.LandingFlaps },
	"landing_gear_downlocked": func(d *egpws.DiscreteInputs) *bool { return &d.LandingGearDownlocked },
	"glideslope_inhibit":      func(d *egpws.DiscreteInputs) *bool { return &d.GlideslopeInhibit },
	"gs_cancel":               func(d *egpws.DiscreteInputs) *bool { return &d.GSCancel },
	"sim_reposition_active":   func(d *egpws.DiscreteInputs) *bool { return &d.SimRepositionActive },
}

// Load parses and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	// keys missing from the assumptions block keep their defaults
	s := Scenario{Assumptions: egpws.DefaultAssumptions()}
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile loads the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate fills defaults and checks the steps.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return ErrNoSteps
	}
	if s.Tick == 0 {
		s.Tick = DefaultTick
	}
	if s.Tick < 0 {
		return fmt.Errorf("scenario: negative tick %v", s.Tick)
	}
	for i, st := range s.Steps {
		if st.Duration <= 0 {
			return fmt.Errorf("step %d (%s): duration must be positive", i, st.Name)
		}
		for name := range st.Discretes {
			if _, ok := discreteNames[name]; !ok {
				return fmt.Errorf("step %d (%s): unknown discrete %q", i, st.Name, name)
			}
		}
		for src := range st.SSM {
			switch src {
			case SourceRA1, SourceRA2, SourceADR, SourceIR, SourceILS:
			default:
				return fmt.Errorf("step %d (%s): unknown source %q", i, st.Name, src)
			}
		}
	}
	return nil
}

// Config returns the engine configuration of the scenario.
func (s *Scenario) Config() egpws.Config {
	cfg := egpws.DefaultConfig()
	cfg.Pins = s.Pins
	cfg.SelfTest = s.SelfTest
	cfg.Assumptions = s.Assumptions
	return cfg
}
