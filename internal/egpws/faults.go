package egpws

import (
	"math"
	"time"

	"github.com/sweeney/egpwc/internal/arinc429"
	"github.com/sweeney/egpwc/internal/nodes"
)

const (
	raDisagreeFt   = 500
	raCrossCheckFt = 2500
)

// faultMonitor selects the sources used by the modes and raises the fault
// flags that gate the outputs.
type faultMonitor struct {
	audioInhibit nodes.Confirmation
	gpwsInhibit  nodes.Confirmation

	ra  float64
	vs  float64
	alt float64

	raFault       bool
	vsFault       bool
	altitudeFault bool
	casFault      bool
	gsFault       bool

	generalFault bool
	mode5Fault   bool
	terrSysFault bool
}

func newFaultMonitor() faultMonitor {
	return faultMonitor{
		audioInhibit: nodes.NewRisingConfirmation(60 * time.Second),
		gpwsInhibit:  nodes.NewRisingConfirmation(5 * time.Second),
	}
}

func (f *faultMonitor) update(in *Inputs, a Assumptions, dt time.Duration) {
	f.ra, f.raFault = selectRadioAltitude(in.RA1.Altitude, in.RA2.Altitude)
	f.vs, f.vsFault = selectSource(in.IR.VerticalSpeed, in.ADR.VerticalSpeed, a.InertialFirst)
	f.alt, f.altitudeFault = selectSource(in.IR.Altitude, in.ADR.StandardAltitude, a.InertialFirst)

	f.casFault = in.ADR.ComputedAirspeed.IsFailureWarning()
	f.gsFault = in.ILS.GlideslopeDeviation.IsFailureWarning() || in.ILS.LocalizerDeviation.IsFailureWarning()

	audio := f.audioInhibit.Update(in.Discretes.AudioInhibit, dt)
	gpws := f.gpwsInhibit.Update(in.Discretes.GPWSInhibit, dt)

	f.generalFault = audio || gpws || f.raFault || f.casFault
	f.mode5Fault = audio || gpws || f.gsFault
	f.terrSysFault = false
}

// selectRadioAltitude picks the radio altitude from two altimeters. A value
// is usable unless it is tagged failure warning.
func selectRadioAltitude(ra1, ra2 arinc429.Word[float64]) (ft float64, fault bool) {
	ok1, ok2 := !ra1.IsFailureWarning(), !ra2.IsFailureWarning()
	switch {
	case ok1 && ok2:
		low := ra1.Value < raCrossCheckFt || ra2.Value < raCrossCheckFt
		if low && math.Abs(ra1.Value-ra2.Value) >= raDisagreeFt {
			return math.Max(ra1.Value, ra2.Value), false
		}
		return ra1.Value, false
	case ok1:
		return ra1.Value, false
	case ok2:
		return ra2.Value, false
	default:
		return 0, true
	}
}

// selectSource returns the first normal value of the preferred and fallback
// sources. With neither normal, the fallback default is used and a fault
// raised.
func selectSource(inertial, airData arinc429.Word[float64], inertialFirst bool) (float64, bool) {
	first, second := inertial, airData
	if !inertialFirst {
		first, second = airData, inertial
	}
	if v, ok := first.NormalValue(); ok {
		return v, false
	}
	if v, ok := second.NormalValue(); ok {
		return v, false
	}
	return airData.ValueOrDefault(), true
}
