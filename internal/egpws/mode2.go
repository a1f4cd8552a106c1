package egpws

import (
	"math"
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

// mode2 is the excessive terrain closure rate alert.
type mode2 struct {
	takeoff       nodes.Monostable
	raLimiter     nodes.RateLimiter[float64]
	derivative    nodes.DerivativeNode[float64]
	rateLimiter   nodes.RateLimiter[float64]
	closureLag    nodes.LowPassFilter[float64]
	closureRate   float64
	prefaceSpoken bool

	preface     bool
	pullUp      bool
	terrainOnly bool
}

func newMode2() *mode2 {
	return &mode2{
		takeoff:     nodes.NewMonostable(false, 60*time.Second),
		raLimiter:   nodes.NewRateLimiter(170.0),
		rateLimiter: nodes.NewRateLimiter(2900.0),
		closureLag:  nodes.NewLowPassFilter[float64](time.Second),
	}
}

func (m *mode2) update(t *tick) {
	justTookOff := m.takeoff.Update(t.onGround, t.dt)

	ra := m.raLimiter.Update(t.ra, t.dt)
	raw := m.derivative.Update(ra, t.dt) * -60
	m.closureRate = m.closureLag.Update(m.rateLimiter.Update(raw, t.dt), t.dt)

	flaps := t.in.Discretes.LandingFlaps
	gear := t.in.Discretes.LandingGearDownlocked
	gs, loc := t.in.ILS.GlideslopeDeviation, t.in.ILS.LocalizerDeviation
	onBeam := gs.IsNormalOperation() && loc.IsNormalOperation() &&
		math.Abs(gs.Value) < 0.175 && math.Abs(loc.Value) < 0.155
	mode2B := justTookOff || flaps || onBeam

	upper := 789.0
	if !mode2B {
		cas := t.in.ADR.ComputedAirspeed.ValueOrDefault()
		upper = nodes.Clamp(1650+8.9*(cas-220), 1650, 2450)
	}
	lower := 30.0
	if mode2B && flaps {
		lower = mode2BCutoffCurve.At(t.vs)
	}

	met := mode2AlertCurve.At(m.closureRate) >= t.ra &&
		m.closureRate > 2038 && t.ra > lower && t.ra < upper

	terrainOnly := flaps && gear
	switch {
	case met && !m.prefaceSpoken && !terrainOnly:
		m.prefaceSpoken = t.emissions >= 2 && t.aural == AuralTerrain
	case !met || terrainOnly:
		m.prefaceSpoken = false
	}

	m.preface = !terrainOnly && met && !m.prefaceSpoken
	m.pullUp = !terrainOnly && met && m.prefaceSpoken
	m.terrainOnly = terrainOnly && met
}

func (m *mode2) annunciations() (lamp, voice) {
	return flag(m.preface, lampMode2Preface) | flag(m.pullUp, lampMode2PullUp) | flag(m.terrainOnly, lampMode2Terrain),
		flag(m.preface, voiceMode2Preface) | flag(m.pullUp, voiceMode2PullUp) | flag(m.terrainOnly, voiceMode2Terrain)
}
