package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/config"
	"github.com/sweeney/egpwc/internal/egpws"
	"github.com/sweeney/egpwc/internal/events"
	"github.com/sweeney/egpwc/internal/gpio"
	"github.com/sweeney/egpwc/internal/mqtt"
	"github.com/sweeney/egpwc/internal/serialbus"
	"github.com/sweeney/egpwc/internal/status"
)

var startTime = time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC)

type word struct {
	ch    serialbus.Channel
	label uint8
	value float64
	ssm   arinc429.SSM
}

// stream encodes words as they arrive from the interface box.
func stream(t *testing.T, words []word) *bytes.Reader {
	t.Helper()
	var buf []byte
	for _, w := range words {
		b, ok := serialbus.Scaling(w.ch, w.label)
		require.True(t, ok, "%v %o", w.ch, w.label)
		buf = serialbus.AppendFrame(buf, serialbus.Frame{Channel: w.ch, Raw: b.Encode(w.label, w.value, w.ssm)})
	}
	return bytes.NewReader(buf)
}

// descending is a clean approach at 500 ft sinking at 2000 ft/min, gear and
// flaps up, ILS not tuned.
func descending() []word {
	n, ncd := arinc429.NormalOperation, arinc429.NoComputedData
	return []word{
		{serialbus.ChannelRA1, serialbus.LabelRadioAltitude, 500, n},
		{serialbus.ChannelRA2, serialbus.LabelRadioAltitude, 500, n},
		{serialbus.ChannelADR, serialbus.LabelComputedAirspeed, 150, n},
		{serialbus.ChannelADR, serialbus.LabelAltitudeRate, -2000, n},
		{serialbus.ChannelADR, serialbus.LabelPressureAltitude, 1500, n},
		{serialbus.ChannelIR, serialbus.LabelPitch, 0, n},
		{serialbus.ChannelIR, serialbus.LabelInertialVS, -2000, n},
		{serialbus.ChannelIR, serialbus.LabelInertialAltitude, 1500, n},
		{serialbus.ChannelIR, serialbus.LabelMagneticTrack, 90, n},
		{serialbus.ChannelILS, serialbus.LabelLocalizer, 0, ncd},
		{serialbus.ChannelILS, serialbus.LabelGlideslope, 0, ncd},
		{serialbus.ChannelILS, serialbus.LabelRunwayHeading, 0, ncd},
	}
}

// system wires the components the way the daemon does, with fakes at the edges.
type system struct {
	computer *egpws.Computer
	reader   *gpio.FakeReader
	lamps    *gpio.FakeLamps
	bus      *serialbus.Receiver
	detector *events.Detector
	pub      *mqtt.FakePublisher
	tracker  *status.Tracker
	busOut   bytes.Buffer

	now    time.Time
	sample events.Sample
}

func newSystem(t *testing.T, discretes []egpws.DiscreteInputs, words []word) *system {
	t.Helper()
	cfg := config.Default()
	c := egpws.NewComputer(cfg.Engine(), cfg.Computer.PowerHoldover.Duration, false, false)
	c.RestoreNVM(false, egpws.Approach)
	c.SetPowered(true)

	bus := serialbus.NewReceiver(time.Hour)
	require.NoError(t, bus.Run(context.Background(), stream(t, words), func() time.Time { return startTime }))

	return &system{
		computer: c,
		reader:   gpio.NewFakeReader(discretes),
		lamps:    &gpio.FakeLamps{},
		bus:      bus,
		detector: events.NewDetector(startTime),
		pub:      mqtt.NewFakePublisher(),
		tracker:  status.NewTracker(startTime, status.Config{TickMs: 100, Broker: "tcp://192.168.1.200:1883"}),
		now:      startTime,
	}
}

func (s *system) tick(t *testing.T) {
	t.Helper()
	const dt = 100 * time.Millisecond
	s.now = s.now.Add(dt)

	d, err := s.reader.Read()
	require.NoError(t, err)
	in := egpws.Inputs{Discretes: d}
	s.bus.Inputs(s.now, &in)

	s.computer.Update(dt, &in)
	out, words := s.computer.Outputs()
	require.NoError(t, s.lamps.Set(out.AlertLamp, out.WarningLamp, out.AudioOn))
	require.NoError(t, serialbus.WriteOutputs(&s.busOut, words))

	s.sample = events.SampleOf(s.now, s.computer, s.sample)
	for _, e := range s.detector.Process(s.sample) {
		require.NoError(t, s.pub.Publish(e))
	}
	snap := s.computer.Runtime().Snapshot()
	s.tracker.Update(s.sample, &snap, s.detector.IsBaselined(), s.detector.CountsSnapshot())
}

func (s *system) run(t *testing.T, n int) {
	for range n {
		s.tick(t)
	}
}

// TestIntegrationSinkRate tests the complete flow from bus words to MQTT.
func TestIntegrationSinkRate(t *testing.T) {
	s := newSystem(t, []egpws.DiscreteInputs{{}}, descending())
	s.run(t, 10)

	types := s.pub.EventTypes()
	assert.ElementsMatch(t, []events.EventType{events.EventWarningLampOn, events.EventAural}, types)

	i := slices.Index(types, events.EventAural)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, egpws.AuralSinkRate, s.pub.Events[i].Aural)

	var p mqtt.Payload
	require.NoError(t, json.Unmarshal(s.pub.Payloads[i], &p))
	assert.Equal(t, "AURAL", p.EGPWC.Event)
	assert.Equal(t, "SINK_RATE", p.EGPWC.Aural)
	assert.Equal(t, "APPROACH", p.EGPWC.State.Phase)
	assert.True(t, p.EGPWC.State.WarningLamp)
	assert.False(t, p.EGPWC.State.OnGround)

	assert.Equal(t, gpio.LampState{Warning: true, Audio: true}, s.lamps.Last())
}

// TestIntegrationAlertWords verifies the status words sent back on the bus.
func TestIntegrationAlertWords(t *testing.T) {
	s := newSystem(t, []egpws.DiscreteInputs{{}}, descending())
	s.run(t, 10)

	layout := egpws.DefaultAlertWordLayout()
	var w1, w2 arinc429.DiscreteWord
	for s.busOut.Len() > 0 {
		f1, err := serialbus.ReadFrame(&s.busOut)
		require.NoError(t, err)
		f2, err := serialbus.ReadFrame(&s.busOut)
		require.NoError(t, err)
		assert.Equal(t, serialbus.ChannelOutput, f1.Channel)
		w1, w2 = arinc429.DecodeDiscrete(f1.Raw), arinc429.DecodeDiscrete(f2.Raw)
	}
	assert.Equal(t, layout.Word1Label, w1.Label)
	assert.True(t, w1.Bit(layout.SinkRate))
	assert.False(t, w1.Bit(layout.PullUp))
	assert.Equal(t, layout.Word2Label, w2.Label)
	assert.True(t, w2.Bit(layout.WarningLamp))
	assert.True(t, w2.Bit(layout.AudioOn))
	assert.False(t, w2.Bit(layout.GeneralFault))
}

// TestIntegrationGPWSInhibitSilences verifies the inhibit discrete clears
// lamps and aural immediately.
func TestIntegrationGPWSInhibitSilences(t *testing.T) {
	discretes := make([]egpws.DiscreteInputs, 10, 13)
	discretes = append(discretes, egpws.DiscreteInputs{GPWSInhibit: true})
	s := newSystem(t, discretes, descending())
	s.run(t, 13)

	types := s.pub.EventTypes()
	require.NotEmpty(t, types)
	assert.Equal(t, events.EventWarningLampOff, types[len(types)-1])
	assert.Equal(t, egpws.AuralNone, s.computer.AuralOutput())
	assert.Equal(t, gpio.LampState{}, s.lamps.Last())
	assert.False(t, s.sample.GPWSInop, "not yet confirmed as a fault")
}

// TestIntegrationNoEventsAtStartup verifies nothing is published for the
// state found at the baseline.
func TestIntegrationNoEventsAtStartup(t *testing.T) {
	s := newSystem(t, []egpws.DiscreteInputs{{}}, nil)
	s.run(t, 5)
	assert.Empty(t, s.pub.Events)
	assert.True(t, s.detector.IsBaselined())
	assert.True(t, s.sample.GPWSInop, "no bus data")
}

// TestIntegrationStatusEvents verifies the system event payloads carry the
// tracker snapshot.
func TestIntegrationStatusEvents(t *testing.T) {
	s := newSystem(t, []egpws.DiscreteInputs{{}}, descending())
	s.tracker.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.100", Status: "connected"})
	s.run(t, 10)

	snap := s.tracker.Snapshot()
	require.NoError(t, s.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}))
	require.NoError(t, s.pub.PublishSystem(mqtt.SystemEvent{Timestamp: startTime, Event: "SHUTDOWN", Reason: "SIGTERM"}))

	var hb status.StatusJSON
	require.NoError(t, json.Unmarshal(s.pub.SystemPayloads[0], &hb))
	assert.Equal(t, "HEARTBEAT", hb.Status.Event)
	assert.Equal(t, "SINK_RATE", hb.Status.Aural)
	assert.Equal(t, 1, hb.Status.Counts["AURAL"])
	assert.Equal(t, 1, hb.Status.Counts["WARNING_LAMP_ON"])
	require.NotNil(t, hb.Status.Network)
	assert.Equal(t, "192.168.1.100", hb.Status.Network.IP)
	require.NotNil(t, hb.Status.Engine)
	assert.InDelta(t, 500, hb.Status.Engine.RadioAltitudeFt, 0.5)

	assert.JSONEq(t, `{"system":{"timestamp":"2026-02-03T19:05:51Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		string(s.pub.SystemPayloads[1]))
}
