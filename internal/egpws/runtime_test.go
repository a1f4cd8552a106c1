package egpws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/egpwc/internal/arinc429"
)

func TestSinkRateAlertOnApproach(t *testing.T) {
	in := airborne(500, 150)
	in.setVS(-2000)
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.run(700*time.Millisecond, nil)
	assert.False(t, f.r.Snapshot().Mode1SinkRateLamp, "lamp before 800 ms")
	assert.Equal(t, AuralNone, f.r.AuralOutput())

	f.step()
	s := f.r.Snapshot()
	assert.True(t, s.Mode1SinkRateLamp)
	assert.False(t, s.Mode1PullUp)
	assert.Equal(t, AuralSinkRate, f.r.AuralOutput())
	assert.True(t, f.discrete.WarningLamp)
	assert.False(t, f.discrete.AlertLamp)
	assert.True(t, f.discrete.AudioOn)
	assert.True(t, f.bus.AlertDiscrete1.Bit(11))
	assert.True(t, f.bus.AlertDiscrete2.Bit(13))
	assert.True(t, f.bus.AlertDiscrete2.Bit(15))
}

func TestPullUpPreemptsSinkRate(t *testing.T) {
	in := airborne(500, 150)
	in.setVS(-5000)
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.run(time.Second, nil)
	assert.Equal(t, AuralSinkRate, f.r.AuralOutput())

	f.run(700*time.Millisecond, nil)
	s := f.r.Snapshot()
	assert.True(t, s.Mode1PullUp)
	assert.True(t, s.Mode1SinkRateLamp)
	assert.False(t, s.Mode1SinkRateVoice)
	assert.Equal(t, AuralPullUp, f.r.AuralOutput())
	assert.True(t, f.bus.AlertDiscrete1.Bit(12))
	assert.False(t, f.bus.AlertDiscrete1.Bit(11))
}

func TestSinkRateDeclutterSilencesAfterTwoCalls(t *testing.T) {
	in := airborne(1000, 150)
	in.setVS(-3000)
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.run(4*time.Second, nil)
	assert.True(t, f.r.Snapshot().Mode1SinkRateLamp)
	assert.False(t, f.r.Snapshot().Mode1SinkRateVoice, "repeated at an unchanged time to impact")
	assert.True(t, f.discrete.WarningLamp)

	// a 20% worse time to impact re-arms the voice
	f.in.setVS(-4000)
	f.run(tickStep, nil)
	f.run(tickStep, nil)
	assert.True(t, f.r.Snapshot().Mode1SinkRateVoice)
}

func TestSinkRateRepeatsWithDeclutterDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pins.AudioDeclutterDisable = true
	in := airborne(1000, 150)
	in.setVS(-3000)
	f := newFlight(t, cfg, false, Approach, in)

	f.run(6*time.Second, nil)
	assert.Equal(t, AuralSinkRate, f.r.AuralOutput())
	assert.GreaterOrEqual(t, f.r.Snapshot().Emissions, 4)
}

func TestBothRadioAltimetersFailed(t *testing.T) {
	in := airborne(500, 150)
	in.setVS(-5000)
	in.RA1.Altitude.SSM = arinc429.FailureWarning
	in.RA2.Altitude.SSM = arinc429.FailureWarning
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.step()
	s := f.r.Snapshot()
	assert.Equal(t, 0.0, s.RadioAltitudeFt)
	assert.True(t, s.RAFault)
	assert.True(t, s.GeneralFault)
	assert.True(t, f.discrete.GPWSInop)
	assert.True(t, f.bus.AlertDiscrete2.Bit(14))

	f.run(3*time.Second, nil)
	assert.False(t, f.discrete.WarningLamp)
	assert.False(t, f.discrete.AlertLamp)
	assert.Equal(t, AuralNone, f.r.AuralOutput())
}

func TestAirDataFailureRaisesInopButInertialFailureDoesNot(t *testing.T) {
	in := airborne(1500, 200)
	in.IR.VerticalSpeed.SSM = arinc429.FailureWarning
	in.IR.Altitude.SSM = arinc429.FailureWarning
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.step()
	assert.False(t, f.discrete.GPWSInop)
	assert.False(t, f.r.Snapshot().VSFault)

	f.in.ADR.ComputedAirspeed.SSM = arinc429.FailureWarning
	f.step()
	assert.True(t, f.discrete.GPWSInop)
}

func TestGlideslopeFailureOnlyInopOnGround(t *testing.T) {
	in := airborne(1500, 200)
	in.ILS.GlideslopeDeviation.SSM = arinc429.FailureWarning
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.step()
	assert.True(t, f.r.Snapshot().Mode5Fault)
	assert.False(t, f.discrete.GPWSInop)

	g := airborne(0, 0)
	g.ILS.LocalizerDeviation.SSM = arinc429.FailureWarning
	f = newFlight(t, DefaultConfig(), true, Takeoff, g)
	f.step()
	assert.True(t, f.discrete.GPWSInop)
}

func TestGPWSInhibit(t *testing.T) {
	in := airborne(500, 150)
	in.setVS(-5000)
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(2*time.Second, nil)
	require.Equal(t, AuralPullUp, f.r.AuralOutput())

	f.in.Discretes.GPWSInhibit = true
	f.step()
	assert.Equal(t, AuralNone, f.r.AuralOutput())
	assert.False(t, f.discrete.WarningLamp)
	assert.False(t, f.discrete.GPWSInop, "inhibit not yet sustained")

	f.run(5*time.Second, nil)
	assert.True(t, f.discrete.GPWSInop)
}

func TestAudioInhibitKeepsLamps(t *testing.T) {
	in := airborne(500, 150)
	in.setVS(-5000)
	in.Discretes.AudioInhibit = true
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(2*time.Second, nil)
	assert.Equal(t, AuralNone, f.r.AuralOutput())
	assert.True(t, f.discrete.WarningLamp)
	assert.False(t, f.discrete.AudioOn)
}

func TestStartupLeavesOutputsUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelfTest = 2 * time.Second
	r := New(cfg, true, Takeoff)
	in := airborne(0, 0)

	d := UnpoweredDiscreteOutputs()
	var b BusOutputs
	for i := 0; i < 19; i++ {
		r.Update(tickStep, &in)
		r.SetOutputs(&d, &b)
	}
	assert.False(t, r.Initialized())
	assert.Equal(t, UnpoweredDiscreteOutputs(), d)
	assert.Equal(t, BusOutputs{}, b)

	r.Update(tickStep, &in)
	r.SetOutputs(&d, &b)
	assert.True(t, r.Initialized())
	assert.False(t, d.GPWSInop)
	assert.False(t, d.TerrainInop)
	assert.False(t, d.TerrainNotAvailable)
	assert.Equal(t, arinc429.NormalOperation, b.AlertDiscrete1.SSM)
	assert.Equal(t, uint8(0o270), b.AlertDiscrete1.Label)
}

func TestZeroDeltaUpdatesChangeNothing(t *testing.T) {
	in := airborne(2000, 150)
	in.setVS(-3000)
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(1500*time.Millisecond, nil)

	before := f.r.Snapshot()
	d, b := f.discrete, f.bus
	f.r.Update(0, &f.in)
	f.r.Update(0, &f.in)
	f.r.SetOutputs(&d, &b)

	assert.Equal(t, before, f.r.Snapshot())
	assert.Equal(t, f.discrete, d)
	assert.Equal(t, f.bus, b)
}

func TestGroundToAirIsIdempotent(t *testing.T) {
	in := airborne(30, 120)
	in.IR.Pitch.Value = 8
	f := newFlight(t, DefaultConfig(), true, Takeoff, in)

	f.step()
	require.False(t, f.r.OnGround())
	for i := 0; i < 50; i++ {
		f.step()
		assert.False(t, f.r.OnGround())
	}

	f.in.setRA(10)
	f.in.ADR.ComputedAirspeed.Value = 50
	f.step()
	assert.True(t, f.r.OnGround())
}

func TestGroundToAirNeedsPitchOrConfirmation(t *testing.T) {
	in := airborne(30, 120)
	f := newFlight(t, DefaultConfig(), true, Takeoff, in)

	f.run(9900*time.Millisecond, nil)
	assert.True(t, f.r.OnGround())
	f.step()
	assert.False(t, f.r.OnGround())
}

func TestTakeoffToApproachByAltitudeGain(t *testing.T) {
	in := airborne(100, 150)
	in.setAltitude(600)
	f := newFlight(t, DefaultConfig(), false, Takeoff, in)

	f.run(840*time.Second, nil)
	assert.Equal(t, Takeoff, f.r.FlightPhase(), "integrator just under threshold")
	assert.InDelta(t, 500, f.r.Snapshot().FieldElevation, 1e-9)

	f.run(20*time.Second, nil)
	assert.Equal(t, Approach, f.r.FlightPhase())
}

func TestAltitudeGainIgnoredWithDeclutterDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pins.AudioDeclutterDisable = true
	in := airborne(100, 150)
	in.setAltitude(600)
	f := newFlight(t, cfg, false, Takeoff, in)

	f.run(900*time.Second, nil)
	assert.Equal(t, Takeoff, f.r.FlightPhase())
}

func TestTakeoffToApproachByMode4CFilter(t *testing.T) {
	// a slow airspeed keeps the 4A boundary at its 500 ft floor, which the
	// filter crosses once 0.75 RA is well above it
	in := airborne(900, 150)
	f := newFlight(t, DefaultConfig(), false, Takeoff, in)
	f.run(40*time.Second, nil)
	assert.Equal(t, Approach, f.r.FlightPhase())
}

func TestApproachToTakeoffBelow245Ft(t *testing.T) {
	in := airborne(200, 150)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.step()
	assert.Equal(t, Approach, f.r.FlightPhase())
	f.step()
	assert.Equal(t, Takeoff, f.r.FlightPhase())
}

func TestRepositionOverride(t *testing.T) {
	climbing := airborne(1000, 200)
	climbing.Discretes.SimRepositionActive = true
	ground := airborne(10, 50)

	start := func(t *testing.T) *flight {
		f := newFlight(t, DefaultConfig(), true, Takeoff, climbing)
		f.step()
		require.False(t, f.r.OnGround(), "overridden on the first tick")
		require.Equal(t, Approach, f.r.FlightPhase())
		f.run(3*time.Second, nil)
		f.in = ground
		return f
	}

	t.Run("still overridden inside hold", func(t *testing.T) {
		f := start(t)
		f.run(2*time.Second, nil)
		assert.True(t, f.r.OnGround())
		assert.Equal(t, Takeoff, f.r.FlightPhase())

		// without pitch or a confirmed speed condition only the override can
		// put the aircraft in the air
		f.in = airborne(1000, 200)
		f.step()
		assert.False(t, f.r.OnGround())
	})

	t.Run("normal logic after hold", func(t *testing.T) {
		f := start(t)
		f.run(3*time.Second, nil)
		assert.True(t, f.r.OnGround())

		f.in = airborne(1000, 200)
		f.step()
		assert.True(t, f.r.OnGround())
	})
}

func TestClosureRateTerrainThenPullUp(t *testing.T) {
	in := airborne(1500, 250)
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(20*time.Second, nil)
	require.Empty(t, f.heard)

	ra := 1500.0
	f.run(11*time.Second, func() {
		ra -= 10
		f.in.setRA(ra)
	})

	s := f.r.Snapshot()
	assert.Greater(t, s.Mode2ClosureRate, 5000.0)
	assert.Contains(t, f.heard, AuralTerrain)
	assert.Equal(t, AuralPullUp, f.r.AuralOutput())
	assert.True(t, s.Mode2PullUp)
	assert.True(t, f.discrete.WarningLamp)

	i := indexOf(f.heard, AuralTerrain)
	j := indexOf(f.heard, AuralPullUp)
	assert.Less(t, i, j, "terrain preface before pull up: %v", f.heard)
}

func TestClosureRateTerrainOnlyWhenConfigured(t *testing.T) {
	in := airborne(1500, 160)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(20*time.Second, nil)

	ra := 1500.0
	f.run(11*time.Second, func() {
		ra -= 10
		f.in.setRA(ra)
	})

	assert.Equal(t, []AuralWarning{AuralTerrain}, f.heard)
	assert.True(t, f.r.Snapshot().Mode2Terrain)
	assert.True(t, f.bus.AlertDiscrete1.Bit(13))
}

func TestAltitudeLossAfterTakeoff(t *testing.T) {
	in := airborne(300, 150)
	f := newFlight(t, DefaultConfig(), false, Takeoff, in)

	ra, alt := 300.0, 1300.0
	f.in.setVS(-900)
	f.run(4*time.Second, func() {
		ra -= 1.5
		alt -= 1.5
		f.in.setRA(ra)
		f.in.setAltitude(alt)
	})

	s := f.r.Snapshot()
	assert.True(t, s.Mode3Lamp)
	assert.True(t, s.Mode3Voice)
	assert.Equal(t, AuralDontSink, f.r.AuralOutput())
	assert.True(t, f.discrete.WarningLamp)
	assert.True(t, f.bus.AlertDiscrete1.Bit(14))

	// climbing above the captured altitude releases it
	f.in.setVS(500)
	f.in.setAltitude(1400)
	f.step()
	assert.False(t, f.r.Snapshot().Mode3Lamp)
}

func TestTooLowGear(t *testing.T) {
	in := airborne(400, 170)
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(time.Second, nil)

	s := f.r.Snapshot()
	assert.True(t, s.Mode4Lamp)
	assert.False(t, s.Mode4B)
	assert.Equal(t, AuralTooLowGear, f.r.AuralOutput())
	assert.True(t, f.bus.AlertDiscrete1.Bit(15))
}

func TestTooLowFlapsWithGearDown(t *testing.T) {
	in := airborne(200, 150)
	in.Discretes.LandingGearDownlocked = true
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(time.Second, nil)

	s := f.r.Snapshot()
	assert.True(t, s.Mode4B)
	assert.True(t, s.Mode4Lamp)
	assert.Equal(t, Approach, f.r.FlightPhase())
	assert.Equal(t, AuralTooLowFlaps, f.r.AuralOutput())
	assert.True(t, f.bus.AlertDiscrete1.Bit(16))
}

func TestTooLowTerrainFast(t *testing.T) {
	in := airborne(600, 230)
	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(time.Second, nil)
	assert.Equal(t, AuralTooLowTerrain, f.r.AuralOutput())
	assert.True(t, f.bus.AlertDiscrete1.Bit(17))
}

func TestMode4BArmedByFlapsAlone(t *testing.T) {
	// documented assumption, not a verified requirement: alternate mode 4B
	// arms on landing flaps without the gear
	in := airborne(300, 150)
	in.Discretes.LandingFlaps = true

	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(time.Second, nil)
	assert.True(t, f.r.Snapshot().Mode4B)
	assert.False(t, f.r.Snapshot().Mode4Lamp, "above the 245 ft mode 4B floor")

	cfg := DefaultConfig()
	cfg.Assumptions.Mode4BAlternate = false
	f = newFlight(t, cfg, false, Approach, in)
	f.run(time.Second, nil)
	assert.False(t, f.r.Snapshot().Mode4B)
	assert.True(t, f.r.Snapshot().Mode4Lamp)
	assert.Equal(t, AuralTooLowGear, f.r.AuralOutput())
}

func TestTerrainAwarenessIntegrityLowersMode4A(t *testing.T) {
	// documented assumption, not a verified requirement: terrain awareness
	// integrity is not modelled and defaults to low
	in := airborne(700, 250)

	f := newFlight(t, DefaultConfig(), false, Approach, in)
	f.run(time.Second, nil)
	assert.True(t, f.r.Snapshot().Mode4Lamp)
	assert.Equal(t, AuralTooLowTerrain, f.r.AuralOutput())

	cfg := DefaultConfig()
	cfg.Assumptions.TerrainAwarenessHighIntegrity = true
	f = newFlight(t, cfg, false, Approach, in)
	f.run(time.Second, nil)
	assert.False(t, f.r.Snapshot().Mode4Lamp)
	assert.Equal(t, AuralNone, f.r.AuralOutput())
}

func TestGlideslopeHardRepeatsWithDeclutter(t *testing.T) {
	in := airborne(200, 140)
	in.setVS(-700)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	in.tuneILS(-0.2, 0, 90)
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.run(time.Second, nil)
	assert.Equal(t, AuralGlideslopeHard, f.r.AuralOutput())
	assert.True(t, f.discrete.AlertLamp)
	assert.False(t, f.discrete.WarningLamp)
	assert.True(t, f.bus.AlertDiscrete1.Bit(18))

	f.run(1500*time.Millisecond, nil)
	assert.Equal(t, AuralNone, f.r.AuralOutput(), "pausing")
	assert.True(t, f.discrete.AlertLamp)

	f.run(3*time.Second, nil)
	assert.Equal(t, AuralGlideslopeHard, f.r.AuralOutput())
}

func TestGlideslopeSoft(t *testing.T) {
	in := airborne(600, 140)
	in.setVS(-700)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	in.tuneILS(-0.15, 0, 90)
	f := newFlight(t, DefaultConfig(), false, Approach, in)

	f.step()
	assert.Equal(t, AuralGlideslopeSoft, f.r.AuralOutput())
	assert.True(t, f.discrete.AlertLamp)
}

func TestGlideslopeCancelAndHeading(t *testing.T) {
	in := airborne(600, 140)
	in.setVS(-700)
	in.Discretes.LandingFlaps = true
	in.Discretes.LandingGearDownlocked = true
	in.tuneILS(-0.15, 0, 90)

	t.Run("cancel", func(t *testing.T) {
		c := in
		c.Discretes.GSCancel = true
		f := newFlight(t, DefaultConfig(), false, Approach, c)
		f.step()
		assert.False(t, f.r.Snapshot().Mode5Lamp)
		f.in.Discretes.GSCancel = false
		f.step()
		assert.False(t, f.r.Snapshot().Mode5Lamp, "latched below 2000 ft")
	})

	t.Run("back course", func(t *testing.T) {
		c := in
		c.IR.MagneticTrack.Value = 270
		f := newFlight(t, DefaultConfig(), false, Approach, c)
		f.step()
		assert.False(t, f.r.Snapshot().Mode5Lamp)
	})

	t.Run("inhibit", func(t *testing.T) {
		c := in
		c.Discretes.GlideslopeInhibit = true
		f := newFlight(t, DefaultConfig(), false, Approach, c)
		f.step()
		assert.False(t, f.r.Snapshot().Mode5Lamp)
	})
}

func TestAlternateLampFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pins.AlternateLampFormat = true

	in := airborne(500, 150)
	in.setVS(-2000)
	f := newFlight(t, cfg, false, Approach, in)
	f.run(time.Second, nil)
	assert.True(t, f.discrete.AlertLamp, "sink rate is an alert in the alternate format")
	assert.False(t, f.discrete.WarningLamp)

	f.in.setVS(-5000)
	f.run(2*time.Second, nil)
	assert.True(t, f.discrete.WarningLamp)
}

func TestAlertWordLayoutOverride(t *testing.T) {
	// documented assumption, not a verified requirement: bit positions of
	// the alert words are configurable
	cfg := DefaultConfig()
	cfg.AlertWords.SinkRate = 20
	in := airborne(500, 150)
	in.setVS(-2000)
	f := newFlight(t, cfg, false, Approach, in)
	f.run(time.Second, nil)
	assert.True(t, f.bus.AlertDiscrete1.Bit(20))
	assert.False(t, f.bus.AlertDiscrete1.Bit(11))
}

func indexOf(s []AuralWarning, a AuralWarning) int {
	for i, v := range s {
		if v == a {
			return i
		}
	}
	return -1
}
