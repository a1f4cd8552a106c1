// Package arinc429 models validity-tagged avionics bus values and the raw
// 32-bit ARINC 429 word format they travel in.
package arinc429

import "fmt"

// SSM is the sign/status matrix carried in bits 30-31 of a BNR word.
type SSM uint8

const (
	FailureWarning  SSM = 0b00
	NoComputedData  SSM = 0b01
	FunctionalTest  SSM = 0b10
	NormalOperation SSM = 0b11
)

func (s SSM) String() string {
	switch s {
	case FailureWarning:
		return "FW"
	case NoComputedData:
		return "NCD"
	case FunctionalTest:
		return "FT"
	case NormalOperation:
		return "NO"
	default:
		return fmt.Sprintf("SSM(%d)", uint8(s))
	}
}

// ParseSSM accepts the short names produced by String as well as the long
// names used in scenario files.
func ParseSSM(s string) (SSM, error) {
	switch s {
	case "FW", "failure_warning", "FailureWarning":
		return FailureWarning, nil
	case "NCD", "no_computed_data", "NoComputedData":
		return NoComputedData, nil
	case "FT", "functional_test", "FunctionalTest":
		return FunctionalTest, nil
	case "NO", "normal_operation", "NormalOperation", "":
		return NormalOperation, nil
	}
	return 0, fmt.Errorf("unknown SSM %q", s)
}

func (s SSM) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SSM) UnmarshalText(b []byte) error {
	v, err := ParseSSM(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Word is a bus value together with its validity tag.
type Word[T any] struct {
	Value T
	SSM   SSM
}

// NewWord returns a word carrying v with the given status.
func NewWord[T any](v T, ssm SSM) Word[T] {
	return Word[T]{Value: v, SSM: ssm}
}

// Normal returns a word tagged NormalOperation.
func Normal[T any](v T) Word[T] {
	return Word[T]{Value: v, SSM: NormalOperation}
}

// NormalValue returns the value and true only when the word is NormalOperation.
func (w Word[T]) NormalValue() (T, bool) {
	if w.SSM != NormalOperation {
		var zero T
		return zero, false
	}
	return w.Value, true
}

// ValueOrDefault returns the value when NormalOperation, else the zero value.
func (w Word[T]) ValueOrDefault() T {
	v, _ := w.NormalValue()
	return v
}

func (w Word[T]) IsNormalOperation() bool { return w.SSM == NormalOperation }
func (w Word[T]) IsFailureWarning() bool  { return w.SSM == FailureWarning }
func (w Word[T]) IsNoComputedData() bool  { return w.SSM == NoComputedData }
