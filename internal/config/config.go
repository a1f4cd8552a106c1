// Package config loads the daemon configuration from TOML. The defaults are
// embedded in the binary; a user file only needs the keys it changes.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/egpwc/internal/egpws"
)

//go:embed egpwc.toml
var defaultTOML string

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Computer struct {
	Tick          Duration `toml:"tick"`
	SelfTest      Duration `toml:"self_test"`
	PowerHoldover Duration `toml:"power_holdover"`
	// Heartbeat is the interval of HEARTBEAT system events, zero disables.
	Heartbeat Duration `toml:"heartbeat"`
}

type MQTT struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	// Buffer is the number of messages kept while disconnected.
	Buffer int `toml:"buffer"`
}

// GPIO holds line offsets on the chip. The seven inputs follow the engine
// discretes, the three outputs drive the lamps and the audio relay.
type GPIO struct {
	Enabled   bool   `toml:"enabled"`
	Chip      string `toml:"chip"`
	ActiveLow bool   `toml:"active_low"`

	GPWSInhibit           int `toml:"gpws_inhibit"`
	AudioInhibit          int `toml:"audio_inhibit"`
	LandingFlaps          int `toml:"landing_flaps"`
	LandingGearDownlocked int `toml:"landing_gear_downlocked"`
	GlideslopeInhibit     int `toml:"glideslope_inhibit"`
	GSCancel              int `toml:"gs_cancel"`
	SimRepositionActive   int `toml:"sim_reposition_active"`

	AlertLamp   int `toml:"alert_lamp"`
	WarningLamp int `toml:"warning_lamp"`
	AudioOn     int `toml:"audio_on"`
}

// Inputs returns the input offsets in engine discrete order.
func (g GPIO) Inputs() []int {
	return []int{g.GPWSInhibit, g.AudioInhibit, g.LandingFlaps, g.LandingGearDownlocked,
		g.GlideslopeInhibit, g.GSCancel, g.SimRepositionActive}
}

// Outputs returns the alert lamp, warning lamp and audio offsets.
func (g GPIO) Outputs() []int {
	return []int{g.AlertLamp, g.WarningLamp, g.AudioOn}
}

type Serial struct {
	Enabled bool   `toml:"enabled"`
	Port    string `toml:"port"`
	Baud    int    `toml:"baud"`
	// Stale is how long a label keeps its value without being refreshed.
	Stale Duration `toml:"stale"`
}

type HTTP struct {
	Addr string `toml:"addr"`
}

type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config is the complete daemon configuration.
type Config struct {
	Computer    Computer              `toml:"computer"`
	Pins        egpws.PinProgramming  `toml:"pins"`
	Assumptions egpws.Assumptions     `toml:"assumptions"`
	AlertWords  egpws.AlertWordLayout `toml:"alert_words"`
	MQTT        MQTT                  `toml:"mqtt"`
	GPIO        GPIO                  `toml:"gpio"`
	Serial      Serial                `toml:"serial"`
	HTTP        HTTP                  `toml:"http"`
	Log         Log                   `toml:"log"`
}

// Default returns the embedded defaults.
func Default() Config {
	var c Config
	if _, err := toml.Decode(defaultTOML, &c); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return c
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(string(b), &c); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode overlays TOML text on c, rejects unknown keys and validates.
func Decode(text string, c *Config) error {
	md, err := toml.Decode(text, c)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return fmt.Errorf("unknown key %q", und[0].String())
	}
	return c.Validate()
}

// Engine returns the engine configuration.
func (c Config) Engine() egpws.Config {
	return egpws.Config{
		Pins:        c.Pins,
		SelfTest:    c.Computer.SelfTest.Duration,
		Assumptions: c.Assumptions,
		AlertWords:  c.AlertWords,
	}
}

// Validate checks the values the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Computer.Tick.Duration <= 0 {
		errs = append(errs, errors.New("computer.tick must be positive"))
	}
	if c.Computer.SelfTest.Duration < 0 {
		errs = append(errs, errors.New("computer.self_test must not be negative"))
	}
	if c.Computer.PowerHoldover.Duration < 0 {
		errs = append(errs, errors.New("computer.power_holdover must not be negative"))
	}

	w1, w2 := c.AlertWords.Bits()
	for _, b := range append(w1, w2...) {
		if b < 11 || b > 29 {
			errs = append(errs, fmt.Errorf("alert_words: bit %d outside data field 11-29", b))
		}
	}
	if dup, ok := duplicate(w1); ok {
		errs = append(errs, fmt.Errorf("alert_words: bit %d used twice in word 1", dup))
	}
	if dup, ok := duplicate(w2); ok {
		errs = append(errs, fmt.Errorf("alert_words: bit %d used twice in word 2", dup))
	}

	if c.GPIO.Enabled {
		if dup, ok := duplicate(append(c.GPIO.Inputs(), c.GPIO.Outputs()...)); ok {
			errs = append(errs, fmt.Errorf("gpio: offset %d used twice", dup))
		}
	}
	if c.Serial.Enabled {
		if c.Serial.Port == "" {
			errs = append(errs, errors.New("serial.port is required"))
		}
		if c.Serial.Baud <= 0 {
			errs = append(errs, errors.New("serial.baud must be positive"))
		}
	}
	if c.MQTT.Buffer < 0 {
		errs = append(errs, errors.New("mqtt.buffer must not be negative"))
	}
	return errors.Join(errs...)
}

func duplicate(xs []int) (int, bool) {
	seen := make(map[int]bool, len(xs))
	for _, x := range xs {
		if seen[x] {
			return x, true
		}
		seen[x] = true
	}
	return 0, false
}
