package trace

import (
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Compare reads both traces to the end and returns the number of records
// compared. The first difference, including a difference in length or tick,
// is reported as an error wrapping ErrMismatch.
func Compare(a, b *Reader) (int, error) {
	if a.Header.Tick != b.Header.Tick {
		return 0, fmt.Errorf("%w: tick %v and %v", ErrMismatch, a.Header.Tick, b.Header.Tick)
	}
	n := 0
	for {
		ra, errA := a.Next()
		rb, errB := b.Next()
		endA, endB := errors.Is(errA, io.EOF), errors.Is(errB, io.EOF)
		switch {
		case endA && endB:
			return n, nil
		case errA != nil && !endA:
			return n, errA
		case errB != nil && !endB:
			return n, errB
		case endA || endB:
			return n, fmt.Errorf("%w: length differs after %d records", ErrMismatch, n)
		}
		if field := Diff(ra, rb); field != "" {
			return n, fmt.Errorf("%w at record %d (%v): %s", ErrMismatch, ra.Index, ra.Elapsed, field)
		}
		n++
	}
}

// Diff returns the path of the first field that differs between a and b,
// or "" if they are equal.
func Diff(a, b Record) string {
	return diffValue("", reflect.ValueOf(a), reflect.ValueOf(b))
}

func diffValue(path string, a, b reflect.Value) string {
	if a.Kind() == reflect.Struct {
		t := a.Type()
		for i := range t.NumField() {
			name := t.Field(i).Name
			if path != "" {
				name = path + "." + name
			}
			if d := diffValue(name, a.Field(i), b.Field(i)); d != "" {
				return d
			}
		}
		return ""
	}
	if !reflect.DeepEqual(a.Interface(), b.Interface()) {
		return fmt.Sprintf("%s: %v != %v", path, a.Interface(), b.Interface())
	}
	return ""
}
