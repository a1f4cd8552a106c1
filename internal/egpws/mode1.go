package egpws

import (
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

// mode1 is the excessive sink rate alert and warning.
type mode1 struct {
	sinkRateConfirm  nodes.Confirmation
	sinkRateHold     nodes.Confirmation
	pullUpConfirm    nodes.Confirmation
	pullUpHold       nodes.Confirmation
	timeToImpactMin  float64
	emittedForImpact bool

	sinkRateLamp  bool
	sinkRateVoice bool
	pullUp        bool
}

func newMode1() *mode1 {
	return &mode1{
		sinkRateConfirm: nodes.NewRisingConfirmation(800 * time.Millisecond),
		sinkRateHold:    nodes.NewFallingConfirmation(200 * time.Millisecond),
		pullUpConfirm:   nodes.NewRisingConfirmation(1600 * time.Millisecond),
		pullUpHold:      nodes.NewFallingConfirmation(200 * time.Millisecond),
	}
}

func (m *mode1) update(t *tick) {
	biasedVS := t.vs
	if t.declutter() {
		// reduce nuisance alerts while capturing the glideslope from above
		gs := t.in.ILS.GlideslopeDeviation.Value
		biasedVS += 300 * nodes.Clamp(t.ra/100, 0, 1) * nodes.Clamp(gs/0.175, 0, 1)
	}

	inBand := t.ra > 10 && t.ra < 2450
	alert := mode1AlertCurve.At(biasedVS) >= t.ra && inBand && biasedVS < -964
	warning := mode1WarningCurve.At(t.vs) >= t.ra && inBand && t.vs < -1482

	m.sinkRateLamp = m.sinkRateHold.Update(m.sinkRateConfirm.Update(alert, t.dt), t.dt)
	m.pullUp = m.pullUpHold.Update(m.pullUpConfirm.Update(warning, t.dt), t.dt)

	// time to impact in minutes
	tti := t.ra / -t.vs
	worsened := tti < m.timeToImpactMin*0.8

	switch {
	case m.sinkRateLamp && (m.timeToImpactMin == 0 || worsened):
		m.timeToImpactMin = tti
	case !m.sinkRateLamp:
		m.timeToImpactMin = 0
	}

	emittedTwice := t.emissions >= 2 && t.aural == AuralSinkRate
	switch {
	case !m.emittedForImpact && emittedTwice && !worsened:
		m.emittedForImpact = true
	case (m.emittedForImpact && worsened) || !m.sinkRateLamp:
		m.emittedForImpact = false
	}

	m.sinkRateVoice = m.sinkRateLamp && !m.pullUp && (!t.declutter() || !m.emittedForImpact)
}

func (m *mode1) annunciations() (lamp, voice) {
	return flag(m.sinkRateLamp, lampMode1SinkRate) | flag(m.pullUp, lampMode1PullUp),
		flag(m.pullUp, voiceMode1PullUp) | flag(m.sinkRateVoice, voiceMode1SinkRate)
}
