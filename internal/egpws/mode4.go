package egpws

import (
	"math"
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

const mode4CTimeConstant = 12 * time.Second

// mode4 sub-alert bits, used to detect a change of message.
const (
	mode4TooLowTerrain uint8 = 1 << iota
	mode4TooLowFlaps
	mode4TooLowGear
)

// mode4 is the unsafe terrain clearance alert. 4A and 4B run airborne in
// approach, 4C airborne in takeoff.
type mode4 struct {
	arm4B        nodes.Latch
	mode4B       bool
	abRatio      float64
	prevSubAlert uint8

	cFilter     float64
	cRatio      float64
	aUpperBound float64

	lamp          bool
	tooLowGear    bool
	tooLowFlaps   bool
	tooLowTerrain bool
}

func newMode4() *mode4 {
	return &mode4{arm4B: nodes.NewLatch(true), aUpperBound: 500}
}

func (m *mode4) update(t *tick) {
	flaps := t.in.Discretes.LandingFlaps
	gear := t.in.Discretes.LandingGearDownlocked
	cas := t.in.ADR.ComputedAirspeed.Value
	alternate := t.assumptions.Mode4BAlternate
	highIntegrity := t.assumptions.TerrainAwarenessHighIntegrity

	m.aUpperBound = mode4AAlertCurve.At(cas)

	aLimit, bLimit := 1000.0, 1000.0
	if flaps || highIntegrity {
		aLimit = 500
	}
	if (alternate && flaps) || highIntegrity {
		bLimit = 245
	}
	aBoundary := math.Min(m.aUpperBound, aLimit)
	bBoundary := math.Min(mode4BAlertCurve.At(cas), bLimit)

	m.mode4B = m.arm4B.Update(t.airborneIn(Approach) && (gear || (flaps && alternate)), t.onGround || t.phase == Takeoff)

	enabled := t.airborneIn(Approach) && !(flaps && gear)
	boundary := aBoundary
	if m.mode4B {
		boundary = bBoundary
	}
	abLamp := enabled && t.ra > 30 && t.ra < boundary
	biased := t.ra * (1 + m.abRatio)
	abVoice := enabled && biased > 30 && biased < boundary

	var gearSub, flapsSub, terrainSub bool
	if m.mode4B {
		gearSub = (cas < 159 || flaps) && !gear
		flapsSub = cas < 159 && !flaps
		terrainSub = cas >= 159 && !flaps
	} else {
		gearSub = cas < 190 || flaps
		terrainSub = cas >= 190 && !flaps
	}

	sub := flag8(gearSub, mode4TooLowGear) | flag8(flapsSub, mode4TooLowFlaps) | flag8(terrainSub, mode4TooLowTerrain)
	changed := sub != m.prevSubAlert
	m.prevSubAlert = sub

	// m.lamp still holds the previous tick here
	switch {
	case !t.declutter() || !m.lamp || changed:
		m.abRatio = 0
	case abVoice && isTooLow(t.aural) && t.emissions > 0:
		m.abRatio += 0.2
	}

	m.tooLowGear = abVoice && gearSub
	m.tooLowFlaps = abVoice && flapsSub
	abTerrain := abVoice && terrainSub

	if t.airborneIn(Takeoff) {
		k := 1 - math.Exp(-t.dt.Seconds()/mode4CTimeConstant.Seconds())
		m.cFilter += math.Max((0.75*t.ra-m.cFilter)*k, 0)
	} else {
		m.cFilter = 0
	}
	cBoundary := nodes.Clamp(m.cFilter, 30, m.aUpperBound)
	cEnabled := t.airborneIn(Takeoff) && !(flaps && gear) && t.ra < 1000
	cLamp := cEnabled && cBoundary >= t.ra && t.ra > 100

	switch {
	case !t.declutter() || !m.lamp:
		m.cRatio = 0
	case m.tooLowTerrain && t.aural == AuralTooLowTerrain && t.emissions > 0:
		m.cRatio += 0.2
	}
	cBiased := t.ra * (1 + m.cRatio)
	cTerrain := cEnabled && cBoundary >= cBiased && cBiased > 100

	m.lamp = cLamp || abLamp
	m.tooLowTerrain = cTerrain || abTerrain
}

func (m *mode4) annunciations() (lamp, voice) {
	return flag(m.lamp, lampMode4),
		flag(m.tooLowTerrain, voiceMode4TooLowTerrain) |
			flag(m.tooLowGear, voiceMode4TooLowGear) |
			flag(m.tooLowFlaps, voiceMode4TooLowFlaps)
}

func isTooLow(a AuralWarning) bool {
	return a == AuralTooLowGear || a == AuralTooLowFlaps || a == AuralTooLowTerrain
}

func flag8(cond bool, f uint8) uint8 {
	if cond {
		return f
	}
	return 0
}
