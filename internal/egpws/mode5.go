package egpws

import (
	"math"
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

// DDM of one dot of deviation.
const (
	LocalizerDotDDM  = 0.0775
	GlideslopeDotDDM = 0.0875
)

const mode5HardRepeat = 3 * time.Second

// mode5 is the below glideslope alert.
type mode5 struct {
	cancel         nodes.Latch
	untilNextAural time.Duration
	declutterRatio float64

	lamp      bool
	softVoice bool
	hardVoice bool
}

func newMode5() *mode5 {
	return &mode5{cancel: nodes.NewLatch(true)}
}

func (m *mode5) update(t *tick) {
	d := t.in.Discretes
	ils := t.in.ILS
	track := t.in.IR.MagneticTrack

	cancelled := m.cancel.Update(d.GSCancel && t.ra < 2000, t.ra >= 2000 || t.ra < 30)

	locDots := ils.LocalizerDeviation.Value / LocalizerDotDDM
	flyUpDots := -ils.GlideslopeDeviation.Value / GlideslopeDotDDM
	heading := headingDifference(track.Value, ils.RunwayHeading.Value)

	active := ils.GlideslopeDeviation.IsNormalOperation() &&
		!d.GlideslopeInhibit &&
		(d.LandingFlaps || t.phase == Approach) &&
		(d.LandingGearDownlocked || t.assumptions.GlideslopeGearOverride) &&
		!cancelled &&
		(math.Abs(heading) < 50 || !track.IsNormalOperation()) &&
		(math.Abs(locDots) < 2 || t.ra < 500)

	hard := active && mode5HardCurve.At(flyUpDots) < t.ra &&
		flyUpDots > 2 && t.ra > 50 && t.ra < 300

	softUpper := mode5SoftUpperCurve.At(t.vs)
	softBoundary := func(dots float64) bool {
		return active && mode5SoftCurve.At(dots) < t.ra &&
			dots > 1.3 && t.ra > 50 && t.ra < softUpper
	}
	softLight := softBoundary(flyUpDots)
	softAural := softBoundary(flyUpDots / (1 + m.declutterRatio))

	m.lamp = active && (softLight || hard)

	if t.pins.AudioDeclutterDisable {
		ready := m.untilNextAural == 0
		m.softVoice = softAural && !hard && ready
		m.hardVoice = hard && ready

		var pause time.Duration
		if flyUpDots != 0 {
			pause = time.Duration(t.ra / math.Abs(flyUpDots) * 0.0067 * float64(time.Second))
		}
		m.stepPause(hard || softAural, isGlideslope(t.aural) && t.emissions > 0, pause, t.dt)
		return
	}

	m.softVoice = softAural && !hard
	m.hardVoice = hard && m.untilNextAural == 0

	switch {
	case !softLight:
		m.declutterRatio = 0
	case m.softVoice && t.aural == AuralGlideslopeSoft && t.emissions > 0:
		m.declutterRatio += 0.2
	}

	m.stepPause(hard, t.aural == AuralGlideslopeHard && t.emissions > 0, mode5HardRepeat, t.dt)
}

// stepPause runs the repeat pause timer: cleared outside the boundary,
// loaded once a message has gone out, otherwise counted down.
func (m *mode5) stepPause(inBoundary, emitted bool, pause, dt time.Duration) {
	switch {
	case !inBoundary:
		m.untilNextAural = 0
	case m.untilNextAural == 0 && emitted:
		m.untilNextAural = pause
	default:
		m.untilNextAural = nodes.SaturatingSub(m.untilNextAural, dt)
	}
}

func (m *mode5) annunciations() (lamp, voice) {
	return flag(m.lamp, lampMode5),
		flag(m.softVoice, voiceMode5Soft) | flag(m.hardVoice, voiceMode5Hard)
}

// headingDifference returns track minus runway heading in [-180, 180).
func headingDifference(track, runway float64) float64 {
	return math.Mod(track-runway+540, 360) - 180
}

func isGlideslope(a AuralWarning) bool {
	return a == AuralGlideslopeSoft || a == AuralGlideslopeHard
}
