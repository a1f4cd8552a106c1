package events

import (
	"maps"
	"time"

	"github.com/sweeney/egpwc/internal/egpws"
)

// Detector compares successive samples and reports the transitions.
type Detector struct {
	last          Sample
	baselined     bool
	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewDetector creates a detector. The startTime is used for calculating
// uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
		counts:        Counts{},
	}
}

// Process takes a new sample and returns the events it produces. The first
// sample from an initialized computer is the baseline and produces none.
func (d *Detector) Process(s Sample) []Event {
	if !d.baselined {
		if !s.Initialized {
			return nil
		}
		d.baselined = true
		d.last = s
		return nil
	}

	prev := d.last
	d.last = s

	var events []Event
	emit := func(t EventType) {
		events = append(events, Event{Timestamp: s.Time, Type: t, Aural: s.Aural, State: s})
		d.counts[t]++
	}

	if s.GPWSInop != prev.GPWSInop {
		emit(choose(s.GPWSInop, EventInopOn, EventInopOff))
	}
	if s.OnGround != prev.OnGround {
		emit(choose(s.OnGround, EventOnGround, EventAirborne))
	}
	if s.Phase != prev.Phase {
		emit(choose(s.Phase == egpws.Approach, EventPhaseApproach, EventPhaseTakeoff))
	}
	if s.WarningLamp != prev.WarningLamp {
		emit(choose(s.WarningLamp, EventWarningLampOn, EventWarningLampOff))
	}
	if s.AlertLamp != prev.AlertLamp {
		emit(choose(s.AlertLamp, EventAlertLampOn, EventAlertLampOff))
	}
	if s.Aural != prev.Aural && s.Aural != egpws.AuralNone {
		emit(EventAural)
	}
	return events
}

func choose(cond bool, a, b EventType) EventType {
	if cond {
		return a
	}
	return b
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CountsSnapshot returns a copy of the event counts.
func (d *Detector) CountsSnapshot() Counts {
	return maps.Clone(d.counts)
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 || !d.baselined {
		return nil
	}
	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}
	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.CountsSnapshot(),
	}
}
