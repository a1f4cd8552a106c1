// Package status provides a thread-safe status tracker for the egpwc daemon.
// It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"maps"
	"sync"
	"time"

	"github.com/sweeney/egpwc/internal/egpws"
	"github.com/sweeney/egpwc/internal/events"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	SelfTestMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	SerialPort  string // empty when the serial bus is disabled
	GPIOChip    string // empty when GPIO is disabled
	Pins        egpws.PinProgramming
}

// BusStats counts serial bus frames.
type BusStats struct {
	Accepted      int
	ParityErrors  int
	UnknownLabels int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Outputs       events.Sample
	Engine        egpws.Snapshot
	Running       bool
	Baselined     bool
	Counts        events.Counts
	Bus           BusStats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outputs of the last tick, the engine state (nil when no
// runtime is running), the baseline status and the event counts.
func (t *Tracker) Update(out events.Sample, engine *egpws.Snapshot, baselined bool, counts events.Counts) {
	t.mu.Lock()
	t.snap.Outputs = out
	t.snap.Running = engine != nil
	if engine != nil {
		t.snap.Engine = *engine
	} else {
		t.snap.Engine = egpws.Snapshot{}
	}
	t.snap.Baselined = baselined
	t.snap.Counts = maps.Clone(counts)
	t.mu.Unlock()
}

// SetBus sets the serial bus counters.
func (t *Tracker) SetBus(b BusStats) {
	t.mu.Lock()
	t.snap.Bus = b
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counts = maps.Clone(t.snap.Counts)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
