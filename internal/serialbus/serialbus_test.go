package serialbus

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/egpws"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func frame(ch Channel, label uint8, v float64) Frame {
	b, ok := Scaling(ch, label)
	if !ok {
		panic("no scaling")
	}
	return Frame{Channel: ch, Raw: b.Encode(label, v, arinc429.NormalOperation)}
}

func TestFrameWireFormat(t *testing.T) {
	f := Frame{Channel: ChannelIR, Raw: 0x11223344}
	b := AppendFrame(nil, f)
	assert.Equal(t, []byte{3, 0x44, 0x33, 0x22, 0x11}, b)

	got, err := ParseFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = ParseFrame(b[:4])
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestReadFrameShort(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestUnheardChannelIsFailureWarning(t *testing.T) {
	r := NewReceiver(200 * time.Millisecond)
	var in egpws.Inputs
	r.Inputs(t0, &in)
	assert.True(t, in.RA1.Altitude.IsFailureWarning())
	assert.True(t, in.ILS.GlideslopeDeviation.IsFailureWarning())
}

func TestReceiverDecodesAndAges(t *testing.T) {
	r := NewReceiver(200 * time.Millisecond)
	require.NoError(t, r.Accept(frame(ChannelRA1, LabelRadioAltitude, 1250.5), t0))
	require.NoError(t, r.Accept(frame(ChannelADR, LabelAltitudeRate, -1984), t0))
	require.NoError(t, r.Accept(frame(ChannelIR, LabelMagneticTrack, -90), t0))

	var in egpws.Inputs
	r.Inputs(t0.Add(100*time.Millisecond), &in)
	assert.True(t, in.RA1.Altitude.IsNormalOperation())
	assert.InDelta(t, 1250.5, in.RA1.Altitude.Value, 0.125)
	assert.InDelta(t, -1984, in.ADR.VerticalSpeed.Value, 16)
	assert.InDelta(t, 270, in.IR.MagneticTrack.Value, 0.01)
	assert.True(t, in.ADR.ComputedAirspeed.IsNoComputedData(), "heard channel, label never sent")
	assert.True(t, in.RA2.Altitude.IsFailureWarning())

	r.Inputs(t0.Add(300*time.Millisecond), &in)
	assert.True(t, in.RA1.Altitude.IsNoComputedData(), "stale")
}

func TestReceiverKeepsSSM(t *testing.T) {
	r := NewReceiver(time.Second)
	b, _ := Scaling(ChannelRA1, LabelRadioAltitude)
	require.NoError(t, r.Accept(Frame{ChannelRA1, b.Encode(LabelRadioAltitude, 40, arinc429.FunctionalTest)}, t0))
	w := r.Word(ChannelRA1, LabelRadioAltitude, t0)
	assert.Equal(t, arinc429.FunctionalTest, w.SSM)
}

func TestReceiverRejects(t *testing.T) {
	r := NewReceiver(time.Second)
	f := frame(ChannelILS, LabelGlideslope, 0.1)
	f.Raw ^= 1 << 31
	assert.ErrorIs(t, r.Accept(f, t0), arinc429.ErrParity)

	// radio altitude label is not expected on the ILS channel
	assert.NoError(t, r.Accept(frame(ChannelRA1, LabelRadioAltitude, 100).withChannel(ChannelILS), t0))

	s := r.Stats()
	assert.Equal(t, Stats{ParityErrors: 1, UnknownLabels: 1}, s)
	assert.True(t, r.Word(ChannelILS, LabelGlideslope, t0).IsFailureWarning())
}

func (f Frame) withChannel(ch Channel) Frame {
	f.Channel = ch
	return f
}

func TestRunReadsStream(t *testing.T) {
	var buf []byte
	buf = AppendFrame(buf, frame(ChannelRA2, LabelRadioAltitude, 800))
	bad := frame(ChannelILS, LabelLocalizer, 0.05)
	bad.Raw ^= 1 << 31
	buf = AppendFrame(buf, bad)
	buf = AppendFrame(buf, frame(ChannelILS, LabelLocalizer, 0.05))

	r := NewReceiver(time.Second)
	err := r.Run(context.Background(), bytes.NewReader(buf), func() time.Time { return t0 })
	require.NoError(t, err)
	assert.Equal(t, 2, r.Stats().Accepted)
	assert.Equal(t, 1, r.Stats().ParityErrors)
	assert.InDelta(t, 800, r.Word(ChannelRA2, LabelRadioAltitude, t0).Value, 0.125)

	err = r.Run(context.Background(), bytes.NewReader(buf[:7]), func() time.Time { return t0 })
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReceiver(time.Second)
	buf := AppendFrame(nil, frame(ChannelRA1, LabelRadioAltitude, 10))
	assert.NoError(t, r.Run(ctx, bytes.NewReader(buf), time.Now))
	assert.Zero(t, r.Stats().Accepted)
}

func TestWriteOutputs(t *testing.T) {
	w1 := arinc429.NewDiscreteWord(0o270, arinc429.NormalOperation)
	w1.SetBit(11, true)
	w2 := arinc429.NewDiscreteWord(0o271, arinc429.NormalOperation)

	var out bytes.Buffer
	require.NoError(t, WriteOutputs(&out, egpws.BusOutputs{AlertDiscrete1: w1, AlertDiscrete2: w2}))
	require.Equal(t, 2*FrameSize, out.Len())

	f1, err := ReadFrame(&out)
	require.NoError(t, err)
	assert.Equal(t, ChannelOutput, f1.Channel)
	assert.Equal(t, uint8(0o270), arinc429.Label(f1.Raw))
	assert.True(t, arinc429.DecodeDiscrete(f1.Raw).Bit(11))

	f2, err := ReadFrame(&out)
	require.NoError(t, err)
	assert.Equal(t, uint8(0o271), arinc429.Label(f2.Raw))
}
