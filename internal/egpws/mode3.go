package egpws

// mode3 is the altitude loss after takeoff alert.
type mode3 struct {
	maxAltitude    float64
	tracking       bool
	declutterRatio float64

	lamp  bool
	voice bool
}

func (m *mode3) update(t *tick) {
	flaps := t.in.Discretes.LandingFlaps
	gear := t.in.Discretes.LandingGearDownlocked
	enabled := t.phase == Takeoff && t.ra > 30 && t.ra < 1500 && t.vs < 0

	switch {
	case enabled && !m.tracking && !flaps && !gear:
		m.maxAltitude, m.tracking = t.alt, true
	case (m.tracking && t.alt > m.maxAltitude) || t.ra > 1500 || flaps || gear:
		m.maxAltitude, m.tracking = 0, false
	}

	var loss float64
	if enabled && m.tracking {
		loss = m.maxAltitude - t.alt
	}
	boundary := mode3AlertCurve.At(loss)

	m.lamp = enabled && t.ra > 30 && t.ra < boundary && loss > 8
	biased := t.ra * (1 + m.declutterRatio)
	m.voice = enabled && biased > 30 && biased < boundary && loss > 8

	switch {
	case !t.declutter() || !m.lamp:
		m.declutterRatio = 0
	case m.voice && t.aural == AuralDontSink && t.emissions > 1:
		m.declutterRatio += 0.20
	}
}

func (m *mode3) annunciations() (lamp, voice) {
	return flag(m.lamp, lampMode3), flag(m.voice, voiceMode3DontSink)
}
