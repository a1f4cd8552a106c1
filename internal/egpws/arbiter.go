package egpws

import "time"

// auralPriority is the order in which voices win the single aural channel.
// The order is safety relevant.
var auralPriority = [...]struct {
	voice voice
	aural AuralWarning
}{
	{voiceMode1PullUp, AuralPullUp},
	{voiceMode2Preface, AuralTerrain},
	{voiceMode2PullUp, AuralPullUp},
	{voiceMode2Terrain, AuralTerrain},
	{voiceMode4TooLowTerrain, AuralTooLowTerrain},
	{voiceMode4TooLowGear, AuralTooLowGear},
	{voiceMode4TooLowFlaps, AuralTooLowFlaps},
	{voiceMode1SinkRate, AuralSinkRate},
	{voiceMode3DontSink, AuralDontSink},
	{voiceMode5Soft, AuralGlideslopeSoft},
	{voiceMode5Hard, AuralGlideslopeHard},
}

// lampFormat maps mode lamps onto the two cockpit lamps.
type lampFormat struct {
	warning lamp
	alert   lamp
}

const allLamps = lampMode1SinkRate | lampMode1PullUp | lampMode2Preface | lampMode2PullUp |
	lampMode2Terrain | lampMode3 | lampMode4 | lampMode5

var (
	// alert lamp for glideslope only
	defaultLampFormat = lampFormat{warning: allLamps &^ lampMode5, alert: lampMode5}
	// warning lamp for pull up only
	alternateLampFormat = lampFormat{
		warning: lampMode1PullUp | lampMode2PullUp,
		alert:   allLamps &^ (lampMode1PullUp | lampMode2PullUp),
	}
)

// arbiter reduces the mode flags to two lamps and one aural warning, and
// counts how many times the current warning has been emitted.
type arbiter struct {
	format lampFormat

	warningLamp bool
	alertLamp   bool
	aural       AuralWarning
	emissions   int
	elapsed     time.Duration
}

func newArbiter(p PinProgramming) arbiter {
	f := defaultLampFormat
	if p.AlternateLampFormat {
		f = alternateLampFormat
	}
	return arbiter{format: f}
}

// selectAural returns the highest priority warning with its voice flag set.
func selectAural(voices voice) AuralWarning {
	for _, p := range auralPriority {
		if voices&p.voice != 0 {
			return p.aural
		}
	}
	return AuralNone
}

// update arbitrates one tick. inhibitLamps suppresses lamps, inhibitAural
// suppresses every aural warning.
func (a *arbiter) update(lamps lamp, voices voice, inhibitLamps, inhibitAural bool, dt time.Duration) {
	a.warningLamp = lamps&a.format.warning != 0 && !inhibitLamps
	a.alertLamp = lamps&a.format.alert != 0 && !inhibitLamps

	prev := a.aural
	a.aural = AuralNone
	if !inhibitAural {
		a.aural = selectAural(voices)
	}

	if a.aural != prev || a.aural == AuralNone {
		a.emissions, a.elapsed = 0, 0
		return
	}
	a.elapsed += dt
	a.emissions = int(a.elapsed / a.aural.Cycle())
}
