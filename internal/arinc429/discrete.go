package arinc429

// DiscreteWord is a discrete status word. Bits are numbered 1..32 as on the
// wire; only the data field (11..29) is meant to be set by callers.
type DiscreteWord struct {
	Label uint8
	Bits  uint32
	SSM   SSM
}

// NewDiscreteWord returns an empty word with the given label and status.
func NewDiscreteWord(label uint8, ssm SSM) DiscreteWord {
	return DiscreteWord{Label: label, SSM: ssm}
}

// SetBit sets or clears wire bit n (1-based). Out of range bits are ignored.
func (w *DiscreteWord) SetBit(n int, v bool) {
	if n < 1 || n > 32 {
		return
	}
	mask := uint32(1) << (n - 1)
	if v {
		w.Bits |= mask
	} else {
		w.Bits &^= mask
	}
}

// Bit reports wire bit n (1-based).
func (w DiscreteWord) Bit(n int) bool {
	if n < 1 || n > 32 {
		return false
	}
	return w.Bits&(uint32(1)<<(n-1)) != 0
}

// Raw encodes the word for transmission. Discrete words carry their status
// in bits 30-31 like BNR words.
func (w DiscreteWord) Raw() uint32 {
	data := (w.Bits >> 10) & dataMask
	return assemble(w.Label, 0, data, w.SSM)
}

// DecodeDiscrete is the inverse of Raw.
func DecodeDiscrete(raw uint32) DiscreteWord {
	return DiscreteWord{
		Label: Label(raw),
		Bits:  ((raw >> 10) & dataMask) << 10,
		SSM:   SSMOf(raw),
	}
}
