// Package events turns the computer outputs into publishable transitions.
// It has no I/O: time is passed in with every sample.
package events

import (
	"time"

	"github.com/sweeney/egpwc/internal/egpws"
)

// EventType names a transition of the computer outputs.
type EventType string

const (
	EventAural          EventType = "AURAL"
	EventWarningLampOn  EventType = "WARNING_LAMP_ON"
	EventWarningLampOff EventType = "WARNING_LAMP_OFF"
	EventAlertLampOn    EventType = "ALERT_LAMP_ON"
	EventAlertLampOff   EventType = "ALERT_LAMP_OFF"
	EventInopOn         EventType = "GPWS_INOP_ON"
	EventInopOff        EventType = "GPWS_INOP_OFF"
	EventPhaseTakeoff   EventType = "PHASE_TAKEOFF"
	EventPhaseApproach  EventType = "PHASE_APPROACH"
	EventAirborne       EventType = "AIRBORNE"
	EventOnGround       EventType = "ON_GROUND"
)

// Sample is the output state of the computer in one tick.
type Sample struct {
	Time        time.Time
	Initialized bool
	Aural       egpws.AuralWarning
	WarningLamp bool
	AlertLamp   bool
	GPWSInop    bool
	OnGround    bool
	Phase       egpws.FlightPhase
}

// SampleOf reads the computer outputs. Without a running runtime, on-ground
// and phase are left as in prev.
func SampleOf(now time.Time, c *egpws.Computer, prev Sample) Sample {
	d, _ := c.Outputs()
	s := Sample{
		Time:        now,
		Aural:       c.AuralOutput(),
		WarningLamp: d.WarningLamp,
		AlertLamp:   d.AlertLamp,
		GPWSInop:    d.GPWSInop,
		OnGround:    prev.OnGround,
		Phase:       prev.Phase,
	}
	if r := c.Runtime(); r != nil {
		s.Initialized = r.Initialized()
		s.OnGround = r.OnGround()
		s.Phase = r.FlightPhase()
	}
	return s
}

// Event is one transition to be published. State is the full sample the
// transition was detected in.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Aural     egpws.AuralWarning
	State     Sample
}

// Counts tracks the number of each event type since startup.
type Counts map[EventType]int

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
