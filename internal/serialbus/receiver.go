package serialbus

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/egpws"
)

type key struct {
	ch    Channel
	label uint8
}

type entry struct {
	word arinc429.Word[float64]
	at   time.Time
}

// Stats counts frames by outcome.
type Stats struct {
	Accepted      int
	ParityErrors  int
	UnknownLabels int
}

// Receiver keeps the latest word of every label. It is safe for concurrent
// use: Run feeds it from the port while the tick loop reads Inputs.
type Receiver struct {
	stale time.Duration

	mu    sync.Mutex
	words map[key]entry
	heard [numChannels]bool
	stats Stats

	logger *log.Logger
}

// NewReceiver returns a receiver that treats a label as no computed data
// once it has not been refreshed for stale.
func NewReceiver(stale time.Duration) *Receiver {
	return &Receiver{stale: stale, words: make(map[key]entry)}
}

func (r *Receiver) SetLogger(l *log.Logger) { r.logger = l }

// Accept stores one frame received at now. Frames for unknown channels or
// labels are counted and dropped; a parity failure returns arinc429.ErrParity.
func (r *Receiver) Accept(f Frame, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := arinc429.Label(f.Raw)
	b, ok := Scaling(f.Channel, label)
	if !ok {
		r.stats.UnknownLabels++
		return nil
	}
	w, err := b.DecodeWord(f.Raw)
	if err != nil {
		r.stats.ParityErrors++
		return err
	}
	r.words[key{f.Channel, label}] = entry{word: w, at: now}
	r.heard[f.Channel] = true
	r.stats.Accepted++
	return nil
}

// Run reads frames from src until it ends, ctx is cancelled or a read fails.
// A clean end of stream returns nil.
func (r *Receiver) Run(ctx context.Context, src io.Reader, now func() time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		f, err := ReadFrame(src)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.Accept(f, now()); err != nil && r.logger != nil {
			r.logger.Warn("dropped word", "channel", f.Channel, "label", arinc429.Label(f.Raw), "err", err)
		}
	}
}

// Word returns the current value of label on ch. A channel never heard reads
// failure warning; a label missing or not refreshed within the stale window
// reads no computed data.
func (r *Receiver) Word(ch Channel, label uint8, now time.Time) arinc429.Word[float64] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.word(ch, label, now)
}

func (r *Receiver) word(ch Channel, label uint8, now time.Time) arinc429.Word[float64] {
	if ch >= numChannels || !r.heard[ch] {
		return arinc429.NewWord(0.0, arinc429.FailureWarning)
	}
	e, ok := r.words[key{ch, label}]
	if !ok || (r.stale > 0 && now.Sub(e.at) > r.stale) {
		return arinc429.NewWord(0.0, arinc429.NoComputedData)
	}
	return e.word
}

// Inputs fills the bus inputs of in. Discretes are left alone.
func (r *Receiver) Inputs(now time.Time, in *egpws.Inputs) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in.RA1.Altitude = r.word(ChannelRA1, LabelRadioAltitude, now)
	in.RA2.Altitude = r.word(ChannelRA2, LabelRadioAltitude, now)

	in.ADR.ComputedAirspeed = r.word(ChannelADR, LabelComputedAirspeed, now)
	in.ADR.VerticalSpeed = r.word(ChannelADR, LabelAltitudeRate, now)
	in.ADR.StandardAltitude = r.word(ChannelADR, LabelPressureAltitude, now)

	in.IR.Pitch = r.word(ChannelIR, LabelPitch, now)
	in.IR.VerticalSpeed = r.word(ChannelIR, LabelInertialVS, now)
	in.IR.Altitude = r.word(ChannelIR, LabelInertialAltitude, now)
	in.IR.MagneticTrack = heading(r.word(ChannelIR, LabelMagneticTrack, now))

	in.ILS.LocalizerDeviation = r.word(ChannelILS, LabelLocalizer, now)
	in.ILS.GlideslopeDeviation = r.word(ChannelILS, LabelGlideslope, now)
	in.ILS.RunwayHeading = heading(r.word(ChannelILS, LabelRunwayHeading, now))
}

// heading maps a +-180 degree angle onto 0-360.
func heading(w arinc429.Word[float64]) arinc429.Word[float64] {
	if w.Value < 0 {
		w.Value += 360
	}
	return w
}

// Stats returns the frame counters.
func (r *Receiver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// WriteOutputs sends the two alert status words on ChannelOutput.
func WriteOutputs(w io.Writer, b egpws.BusOutputs) error {
	buf := make([]byte, 0, 2*FrameSize)
	buf = AppendFrame(buf, Frame{Channel: ChannelOutput, Raw: b.AlertDiscrete1.Raw()})
	buf = AppendFrame(buf, Frame{Channel: ChannelOutput, Raw: b.AlertDiscrete2.Raw()})
	_, err := w.Write(buf)
	return err
}
