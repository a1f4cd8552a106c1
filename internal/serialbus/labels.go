package serialbus

import "github.com/sweeney/egpwc/internal/arinc429"

// Octal labels of the words the engine consumes.
const (
	LabelRadioAltitude    uint8 = 0o164
	LabelComputedAirspeed uint8 = 0o206
	LabelAltitudeRate     uint8 = 0o212
	LabelPressureAltitude uint8 = 0o203
	LabelPitch            uint8 = 0o324
	LabelInertialVS       uint8 = 0o365
	LabelInertialAltitude uint8 = 0o361
	LabelMagneticTrack    uint8 = 0o317
	LabelLocalizer        uint8 = 0o173
	LabelGlideslope       uint8 = 0o174
	LabelRunwayHeading    uint8 = 0o105
)

// Scaling of each label, keyed by channel so the same label number on two
// buses can differ.
var scaling = map[Channel]map[uint8]arinc429.BNR{
	ChannelRA1: {LabelRadioAltitude: {Range: 8192, SigBits: 16}},
	ChannelRA2: {LabelRadioAltitude: {Range: 8192, SigBits: 16}},
	ChannelADR: {
		LabelComputedAirspeed: {Range: 1024, SigBits: 14},
		LabelAltitudeRate:     {Range: 32768, SigBits: 11},
		LabelPressureAltitude: {Range: 131072, SigBits: 17},
	},
	ChannelIR: {
		LabelPitch:            {Range: 180, SigBits: 14},
		LabelInertialVS:       {Range: 32768, SigBits: 15},
		LabelInertialAltitude: {Range: 131072, SigBits: 18},
		LabelMagneticTrack:    {Range: 180, SigBits: 15},
	},
	ChannelILS: {
		LabelLocalizer:     {Range: 0.4, SigBits: 12},
		LabelGlideslope:    {Range: 0.8, SigBits: 12},
		LabelRunwayHeading: {Range: 180, SigBits: 11},
	},
}

// Scaling returns the BNR scaling of label on ch.
func Scaling(ch Channel, label uint8) (arinc429.BNR, bool) {
	b, ok := scaling[ch][label]
	return b, ok
}
