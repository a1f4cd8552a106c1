// Package trace records the computer outputs of every tick to a compressed
// file and compares two recordings. A trace is a zstd stream of msgpack
// values: one Header followed by one Record per tick.
package trace

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/sweeney/egpwc/internal/egpws"
	"github.com/sweeney/egpwc/internal/scenario"
)

// Version is written in every header.
const Version = 1

// ErrMismatch is returned by Compare when two traces differ.
var ErrMismatch = errors.New("trace: mismatch")

// Header describes the recording.
type Header struct {
	Version  int                  `json:"version"`
	Scenario string               `json:"scenario"`
	Tick     time.Duration        `json:"tick"`
	Created  time.Time            `json:"created"`
	Pins     egpws.PinProgramming `json:"pins"`
}

// Record is the state of the computer after one tick.
type Record struct {
	Index    int                   `json:"i"`
	Elapsed  time.Duration         `json:"t"`
	Step     int                   `json:"step"`
	Running  bool                  `json:"running"`
	Aural    egpws.AuralWarning    `json:"aural"`
	Discrete egpws.DiscreteOutputs `json:"discrete"`
	Word1    uint32                `json:"word1"`
	Word2    uint32                `json:"word2"`
	Snapshot egpws.Snapshot        `json:"snapshot"`
}

// RecordOf converts a scenario tick.
func RecordOf(t scenario.Tick) Record {
	return Record{
		Index:    t.Index,
		Elapsed:  t.Elapsed,
		Step:     t.Step,
		Running:  t.Running,
		Aural:    t.Aural,
		Discrete: t.Discrete,
		Word1:    t.Bus.AlertDiscrete1.Raw(),
		Word2:    t.Bus.AlertDiscrete2.Raw(),
		Snapshot: t.Snapshot,
	}
}

// Writer appends records to a trace.
type Writer struct {
	zw  *zstd.Encoder
	enc *msgpack.Encoder
	n   int
}

// NewWriter writes h to w and returns a writer for the records. Close must
// be called to flush the stream; it does not close w.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("trace: zstd writer: %w", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.SetCustomStructTag("json")
	h.Version = Version
	if err := enc.Encode(h); err != nil {
		zw.Close()
		return nil, fmt.Errorf("trace: write header: %w", err)
	}
	return &Writer{zw: zw, enc: enc}, nil
}

func (w *Writer) Write(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("trace: write record %d: %w", r.Index, err)
	}
	w.n++
	return nil
}

// Observe records a scenario tick.
func (w *Writer) Observe(t scenario.Tick) error {
	return w.Write(RecordOf(t))
}

// Len returns the number of records written.
func (w *Writer) Len() int { return w.n }

func (w *Writer) Close() error {
	return w.zw.Close()
}

// Reader reads a trace back.
type Reader struct {
	Header Header

	zr  *zstd.Decoder
	dec *msgpack.Decoder
}

// NewReader reads the header from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("trace: zstd reader: %w", err)
	}
	dec := msgpack.NewDecoder(zr)
	dec.SetCustomStructTag("json")

	tr := &Reader{zr: zr, dec: dec}
	if err := dec.Decode(&tr.Header); err != nil {
		zr.Close()
		return nil, fmt.Errorf("trace: read header: %w", err)
	}
	if tr.Header.Version != Version {
		zr.Close()
		return nil, fmt.Errorf("trace: unsupported version %d", tr.Header.Version)
	}
	return tr, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("trace: read record: %w", err)
	}
	return rec, nil
}

// Close releases the decoder. It does not close the underlying reader.
func (r *Reader) Close() {
	r.zr.Close()
}
