// Package egpws implements the decision and alerting engine of an enhanced
// ground proximity warning computer.
//
// A Runtime is advanced once per tick with Update and publishes its state
// with SetOutputs. It is not safe for concurrent use and reads no clock: the
// caller supplies the elapsed time of every tick.
package egpws

import (
	"fmt"
	"time"

	"github.com/sweeney/egpwc/internal/arinc429"
)

// FlightPhase is the takeoff/approach state kept by the phase tracker.
type FlightPhase uint8

const (
	Takeoff FlightPhase = iota
	Approach
)

func (p FlightPhase) String() string {
	switch p {
	case Takeoff:
		return "TAKEOFF"
	case Approach:
		return "APPROACH"
	default:
		return fmt.Sprintf("FlightPhase(%d)", uint8(p))
	}
}

func (p FlightPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *FlightPhase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "TAKEOFF", "takeoff", "Takeoff":
		*p = Takeoff
	case "APPROACH", "approach", "Approach":
		*p = Approach
	default:
		return fmt.Errorf("unknown flight phase %q", string(b))
	}
	return nil
}

// AuralWarning identifies the voice message due in a tick.
type AuralWarning uint8

const (
	AuralNone AuralWarning = iota
	AuralPullUp
	AuralTerrain
	AuralTooLowTerrain
	AuralTooLowGear
	AuralTooLowFlaps
	AuralSinkRate
	AuralDontSink
	AuralGlideslopeSoft
	AuralGlideslopeHard
	AuralTerrainAhead
	AuralObstacleAhead
)

var auralNames = [...]string{
	AuralNone:           "NONE",
	AuralPullUp:         "PULL_UP",
	AuralTerrain:        "TERRAIN",
	AuralTooLowTerrain:  "TOO_LOW_TERRAIN",
	AuralTooLowGear:     "TOO_LOW_GEAR",
	AuralTooLowFlaps:    "TOO_LOW_FLAPS",
	AuralSinkRate:       "SINK_RATE",
	AuralDontSink:       "DONT_SINK",
	AuralGlideslopeSoft: "GLIDESLOPE_SOFT",
	AuralGlideslopeHard: "GLIDESLOPE_HARD",
	AuralTerrainAhead:   "TERRAIN_AHEAD",
	AuralObstacleAhead:  "OBSTACLE_AHEAD",
}

// Cycle durations include the silence after the message.
var auralCycles = [...]time.Duration{
	AuralNone:           0,
	AuralPullUp:         1100 * time.Millisecond,
	AuralTerrain:        1200 * time.Millisecond,
	AuralTooLowTerrain:  1100 * time.Millisecond,
	AuralTooLowGear:     1100 * time.Millisecond,
	AuralTooLowFlaps:    1100 * time.Millisecond,
	AuralSinkRate:       1100 * time.Millisecond,
	AuralDontSink:       1100 * time.Millisecond,
	AuralGlideslopeSoft: 1600 * time.Millisecond,
	AuralGlideslopeHard: 1600 * time.Millisecond,
	AuralTerrainAhead:   1700 * time.Millisecond,
	AuralObstacleAhead:  2000 * time.Millisecond,
}

func (a AuralWarning) String() string {
	if int(a) < len(auralNames) {
		return auralNames[a]
	}
	return fmt.Sprintf("AuralWarning(%d)", uint8(a))
}

// Cycle returns the length of one full emission of the message.
func (a AuralWarning) Cycle() time.Duration {
	if int(a) < len(auralCycles) {
		return auralCycles[a]
	}
	return 0
}

func (a AuralWarning) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AuralWarning) UnmarshalText(b []byte) error {
	w, err := ParseAuralWarning(string(b))
	if err != nil {
		return err
	}
	*a = w
	return nil
}

// ParseAuralWarning is the inverse of AuralWarning.String.
func ParseAuralWarning(s string) (AuralWarning, error) {
	for i, n := range auralNames {
		if n == s {
			return AuralWarning(i), nil
		}
	}
	return AuralNone, fmt.Errorf("unknown aural warning %q", s)
}

// PinProgramming is strapped on the connector and read once at power up.
type PinProgramming struct {
	AudioDeclutterDisable bool `toml:"audio_declutter_disable" yaml:"audio_declutter_disable"`
	AlternateLampFormat   bool `toml:"alternate_lamp_format" yaml:"alternate_lamp_format"`
}

// Assumptions collects behavior that is not pinned down by available
// documentation. The defaults reproduce the reference behavior.
type Assumptions struct {
	// Mode4BAlternate arms mode 4B on landing flaps as well as gear.
	Mode4BAlternate bool `toml:"mode_4b_alternate" yaml:"mode_4b_alternate"`
	// TerrainAwarenessHighIntegrity tightens the mode 4 limits as if the
	// terrain clearance floor were available with high integrity.
	TerrainAwarenessHighIntegrity bool `toml:"terrain_awareness_high_integrity" yaml:"terrain_awareness_high_integrity"`
	// InertialFirst prefers inertial vertical speed and altitude over air data.
	InertialFirst bool `toml:"inertial_first" yaml:"inertial_first"`
	// GlideslopeGearOverride enables mode 5 without the gear downlocked.
	GlideslopeGearOverride bool `toml:"glideslope_gear_override" yaml:"glideslope_gear_override"`
}

// DefaultAssumptions returns the reference settings.
func DefaultAssumptions() Assumptions {
	return Assumptions{Mode4BAlternate: true, InertialFirst: true}
}

// AlertWordLayout places the alert bits in the two output status words. Bit
// numbers are 1-based wire positions.
type AlertWordLayout struct {
	Word1Label    uint8 `toml:"word1_label"`
	Word2Label    uint8 `toml:"word2_label"`
	SinkRate      int   `toml:"sink_rate"`
	PullUp        int   `toml:"pull_up"`
	Terrain       int   `toml:"terrain"`
	DontSink      int   `toml:"dont_sink"`
	TooLowGear    int   `toml:"too_low_gear"`
	TooLowFlaps   int   `toml:"too_low_flaps"`
	TooLowTerrain int   `toml:"too_low_terrain"`
	Glideslope    int   `toml:"glideslope"`
	AlertLamp     int   `toml:"alert_lamp"`
	WarningLamp   int   `toml:"warning_lamp"`
	GeneralFault  int   `toml:"general_fault"`
	AudioOn       int   `toml:"audio_on"`
}

// DefaultAlertWordLayout returns the reference bit assignment.
func DefaultAlertWordLayout() AlertWordLayout {
	return AlertWordLayout{
		Word1Label:    0o270,
		Word2Label:    0o271,
		SinkRate:      11,
		PullUp:        12,
		Terrain:       13,
		DontSink:      14,
		TooLowGear:    15,
		TooLowFlaps:   16,
		TooLowTerrain: 17,
		Glideslope:    18,
		AlertLamp:     12,
		WarningLamp:   13,
		GeneralFault:  14,
		AudioOn:       15,
	}
}

// Bits returns every configured bit position, word 1 first.
func (l AlertWordLayout) Bits() (word1, word2 []int) {
	word1 = []int{l.SinkRate, l.PullUp, l.Terrain, l.DontSink, l.TooLowGear, l.TooLowFlaps, l.TooLowTerrain, l.Glideslope}
	word2 = []int{l.AlertLamp, l.WarningLamp, l.GeneralFault, l.AudioOn}
	return word1, word2
}

// Config is fixed for the life of a Runtime.
type Config struct {
	Pins        PinProgramming
	SelfTest    time.Duration
	Assumptions Assumptions
	AlertWords  AlertWordLayout
}

// DefaultConfig returns a configuration with no self test.
func DefaultConfig() Config {
	return Config{
		Assumptions: DefaultAssumptions(),
		AlertWords:  DefaultAlertWordLayout(),
	}
}

// DiscreteInputs are the cockpit and simulator discretes.
type DiscreteInputs struct {
	GPWSInhibit           bool `json:"gpws_inhibit" yaml:"gpws_inhibit"`
	AudioInhibit          bool `json:"audio_inhibit" yaml:"audio_inhibit"`
	LandingFlaps          bool `json:"landing_flaps" yaml:"landing_flaps"`
	LandingGearDownlocked bool `json:"landing_gear_downlocked" yaml:"landing_gear_downlocked"`
	GlideslopeInhibit     bool `json:"glideslope_inhibit" yaml:"glideslope_inhibit"`
	GSCancel              bool `json:"gs_cancel" yaml:"gs_cancel"`
	SimRepositionActive   bool `json:"sim_reposition_active" yaml:"sim_reposition_active"`
}

// RadioAltimeter carries radio altitude in feet.
type RadioAltimeter struct {
	Altitude arinc429.Word[float64]
}

// AirData carries computed airspeed (kt), barometric vertical speed (ft/min)
// and standard altitude (ft).
type AirData struct {
	ComputedAirspeed arinc429.Word[float64]
	VerticalSpeed    arinc429.Word[float64]
	StandardAltitude arinc429.Word[float64]
}

// InertialReference carries pitch (deg), inertial vertical speed (ft/min),
// inertial altitude (ft) and magnetic track (deg).
type InertialReference struct {
	Pitch         arinc429.Word[float64]
	VerticalSpeed arinc429.Word[float64]
	Altitude      arinc429.Word[float64]
	MagneticTrack arinc429.Word[float64]
}

// ILS carries glideslope and localizer deviation as a fraction of full scale
// DDM and the runway heading in degrees. Positive glideslope deviation means
// the aircraft is above the beam.
type ILS struct {
	GlideslopeDeviation arinc429.Word[float64]
	LocalizerDeviation  arinc429.Word[float64]
	RunwayHeading       arinc429.Word[float64]
}

// Inputs is everything the engine reads in one tick.
type Inputs struct {
	Discretes DiscreteInputs
	RA1       RadioAltimeter
	RA2       RadioAltimeter
	ADR       AirData
	IR        InertialReference
	ILS       ILS
}

// DiscreteOutputs are the discretes driven by the computer.
type DiscreteOutputs struct {
	AlertLamp                bool `json:"alert_lamp"`
	WarningLamp              bool `json:"warning_lamp"`
	AudioOn                  bool `json:"audio_on"`
	GPWSInop                 bool `json:"gpws_inop"`
	TerrainInop              bool `json:"terrain_inop"`
	TerrainNotAvailable      bool `json:"terrain_not_available"`
	RAASInop                 bool `json:"raas_inop"`
	CaptTerrainDisplayActive bool `json:"capt_terrain_display_active"`
	FOTerrainDisplayActive   bool `json:"fo_terrain_display_active"`
}

// UnpoweredDiscreteOutputs is the state of the discretes with no software
// running: the inop discretes are grounded.
func UnpoweredDiscreteOutputs() DiscreteOutputs {
	return DiscreteOutputs{GPWSInop: true, TerrainInop: true, TerrainNotAvailable: true}
}

// BusOutputs are the two alert status words.
type BusOutputs struct {
	AlertDiscrete1 arinc429.DiscreteWord
	AlertDiscrete2 arinc429.DiscreteWord
}
