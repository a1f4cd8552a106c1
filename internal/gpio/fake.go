package gpio

import (
	"errors"

	"github.com/sweeney/egpwc/internal/egpws"
)

// FakeReader is a test double that returns scripted discretes.
type FakeReader struct {
	// Samples contains scripted values to return. Each call to Read()
	// consumes the next sample.
	Samples []egpws.DiscreteInputs

	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []egpws.DiscreteInputs) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (egpws.DiscreteInputs, error) {
	if f.ReadError != nil {
		return egpws.DiscreteInputs{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return egpws.DiscreteInputs{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// LampState is one call to FakeLamps.Set.
type LampState struct {
	Alert, Warning, Audio bool
}

// FakeLamps records every lamp state written.
type FakeLamps struct {
	States   []LampState
	SetError error
	Closed   bool
}

func (f *FakeLamps) Set(alert, warning, audio bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, LampState{alert, warning, audio})
	return nil
}

// Last returns the most recent state, all off if nothing was written.
func (f *FakeLamps) Last() LampState {
	if len(f.States) == 0 {
		return LampState{}
	}
	return f.States[len(f.States)-1]
}

func (f *FakeLamps) Close() error {
	f.Closed = true
	return nil
}
