package arinc429

import (
	"errors"
	"math"
	"math/bits"
)

const (
	dataMask   = 0x7FFFF // bits 11..29
	maxSigBits = 18
)

// ErrParity is returned when a received word fails its odd parity check.
var ErrParity = errors.New("arinc429: parity error")

// Label returns the octal label of a raw word. The label is transmitted most
// significant bit first, so it is bit reversed in the low byte.
func Label(raw uint32) uint8 {
	return bits.Reverse8(uint8(raw))
}

// SSMOf returns bits 30-31.
func SSMOf(raw uint32) SSM {
	return SSM((raw >> 29) & 0b11)
}

// ParityOK reports whether raw has odd parity.
func ParityOK(raw uint32) bool {
	return bits.OnesCount32(raw)%2 == 1
}

func assemble(label, sdi uint8, data uint32, ssm SSM) uint32 {
	w := uint32(bits.Reverse8(label)) |
		uint32(sdi&0b11)<<8 |
		(data&dataMask)<<10 |
		uint32(ssm&0b11)<<29
	if bits.OnesCount32(w)%2 == 0 {
		w |= 1 << 31
	}
	return w
}

// BNR describes the scaling of a binary number record: the magnitude of the
// most significant bit doubled (the full-scale range) and the number of
// significant bits excluding the sign.
type BNR struct {
	Range   float64
	SigBits int
}

func (b BNR) resolution() float64 {
	return b.Range / float64(uint32(1)<<b.SigBits)
}

// Encode packs value into a raw word, saturating at the representable range.
func (b BNR) Encode(label uint8, value float64, ssm SSM) uint32 {
	sig := min(max(b.SigBits, 1), maxSigBits)
	b.SigBits = sig
	n := int64(math.Round(value / b.resolution()))
	hi := int64(1)<<sig - 1
	lo := -(int64(1) << sig)
	n = min(max(n, lo), hi)
	field := uint32(n) & (uint32(1)<<(sig+1) - 1)
	return assemble(label, 0, field<<(maxSigBits-sig), ssm)
}

// Decode extracts the value of a raw word. The SSM is returned alongside so
// callers can build a Word.
func (b BNR) Decode(raw uint32) (float64, SSM) {
	sig := min(max(b.SigBits, 1), maxSigBits)
	b.SigBits = sig
	data := (raw >> 10) & dataMask
	field := int64((data >> (maxSigBits - sig)) & (uint32(1)<<(sig+1) - 1))
	if field&(int64(1)<<sig) != 0 {
		field -= int64(1) << (sig + 1)
	}
	return float64(field) * b.resolution(), SSMOf(raw)
}

// DecodeWord decodes raw into a validity-tagged value, checking parity first.
func (b BNR) DecodeWord(raw uint32) (Word[float64], error) {
	if !ParityOK(raw) {
		return Word[float64]{SSM: FailureWarning}, ErrParity
	}
	v, ssm := b.Decode(raw)
	return NewWord(v, ssm), nil
}
