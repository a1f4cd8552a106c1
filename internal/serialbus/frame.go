// Package serialbus receives ARINC 429 words from a serial interface box and
// assembles them into engine bus inputs.
//
// The box forwards every received word as a 5-byte frame: one channel byte
// followed by the raw 32-bit word, little endian. The computer's own status
// words go back the same way on ChannelOutput.
package serialbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Channel is the receiver channel on the interface box.
type Channel uint8

const (
	ChannelRA1 Channel = iota
	ChannelRA2
	ChannelADR
	ChannelIR
	ChannelILS
	numChannels

	ChannelOutput Channel = 0x80
)

func (c Channel) String() string {
	switch c {
	case ChannelRA1:
		return "RA1"
	case ChannelRA2:
		return "RA2"
	case ChannelADR:
		return "ADR"
	case ChannelIR:
		return "IR"
	case ChannelILS:
		return "ILS"
	case ChannelOutput:
		return "OUT"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// FrameSize is the length of one frame on the wire.
const FrameSize = 5

// ErrShortFrame is returned when the stream ends inside a frame.
var ErrShortFrame = errors.New("serialbus: short frame")

// Frame is one word received on, or sent to, a channel.
type Frame struct {
	Channel Channel
	Raw     uint32
}

// AppendFrame appends the wire form of f to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	dst = append(dst, byte(f.Channel))
	return binary.LittleEndian.AppendUint32(dst, f.Raw)
}

// ParseFrame decodes one frame from b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	return Frame{Channel: Channel(b[0]), Raw: binary.LittleEndian.Uint32(b[1:FrameSize])}, nil
}

// ReadFrame reads exactly one frame. It returns io.EOF only when the stream
// ends on a frame boundary.
func ReadFrame(r io.Reader) (Frame, error) {
	var buf [FrameSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortFrame
		}
		return Frame{}, err
	}
	return ParseFrame(buf[:])
}
