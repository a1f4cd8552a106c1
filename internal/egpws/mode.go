package egpws

import (
	"time"

	"github.com/sweeney/egpwc/internal/nodes"
)

// tick is the shared view every mode reads during one update.
type tick struct {
	dt          time.Duration
	in          *Inputs
	pins        PinProgramming
	assumptions Assumptions

	ra, vs, alt float64
	onGround    bool
	phase       FlightPhase

	// aural output and repeat count of the previous tick
	aural     AuralWarning
	emissions int
}

func (t *tick) declutter() bool { return !t.pins.AudioDeclutterDisable }

func (t *tick) airborneIn(p FlightPhase) bool { return !t.onGround && t.phase == p }

// voice flags, one per aural source. The arbiter walks auralPriority.
type voice uint16

const (
	voiceMode1PullUp voice = 1 << iota
	voiceMode2Preface
	voiceMode2PullUp
	voiceMode2Terrain
	voiceMode4TooLowTerrain
	voiceMode4TooLowGear
	voiceMode4TooLowFlaps
	voiceMode1SinkRate
	voiceMode3DontSink
	voiceMode5Soft
	voiceMode5Hard
)

// lamp flags, one per annunciating condition.
type lamp uint8

const (
	lampMode1SinkRate lamp = 1 << iota
	lampMode1PullUp
	lampMode2Preface
	lampMode2PullUp
	lampMode2Terrain
	lampMode3
	lampMode4
	lampMode5
)

func flag[T voice | lamp](cond bool, f T) T {
	if cond {
		return f
	}
	return 0
}

// mode is one alerting function. update is called once per tick in mode
// order; annunciations reports the flags computed by the last update.
type mode interface {
	update(t *tick)
	annunciations() (lamp, voice)
}

var (
	mode1AlertCurve   = nodes.MustCurve([]float64{-5007, -964}, []float64{2450, 10})
	mode1WarningCurve = nodes.MustCurve([]float64{-7125, -1710, -1482}, []float64{2450, 284, 10})

	mode2AlertCurve   = nodes.MustCurve([]float64{2038, 3545, 9800}, []float64{30, 1220, 2450})
	mode2BCutoffCurve = nodes.MustCurve([]float64{-1000, -400}, []float64{600, 200})

	mode3AlertCurve = nodes.MustCurve([]float64{8, 143}, []float64{30, 1500})

	mode4AAlertCurve = nodes.MustCurve([]float64{190, 250}, []float64{500, 1000})
	mode4BAlertCurve = nodes.MustCurve([]float64{159, 250}, []float64{245, 1000})

	mode5SoftUpperCurve = nodes.MustCurve([]float64{-500, 0}, []float64{1000, 500})
	mode5SoftCurve      = nodes.MustCurve([]float64{1.3, 2.7}, []float64{150, 50})
	mode5HardCurve      = nodes.MustCurve([]float64{2, 3.4}, []float64{150, 50})
)
