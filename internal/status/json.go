package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Aural         string         `json:"aural"`
	WarningLamp   bool           `json:"warning_lamp"`
	AlertLamp     bool           `json:"alert_lamp"`
	GPWSInop      bool           `json:"gpws_inop"`
	OnGround      bool           `json:"on_ground"`
	Phase         string         `json:"phase"`
	Running       bool           `json:"running"`
	Ready         bool           `json:"ready"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Engine        *EngineJSON    `json:"engine,omitempty"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Bus           BusJSON        `json:"bus"`
	Counts        map[string]int `json:"event_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// EngineJSON is the part of the engine state shown on the status page.
type EngineJSON struct {
	RadioAltitudeFt float64  `json:"ra_ft"`
	VerticalSpeed   float64  `json:"vs_ft_min"`
	AltitudeFt      float64  `json:"alt_ft"`
	GeneralFault    bool     `json:"general_fault"`
	Mode5Fault      bool     `json:"mode5_fault"`
	RAFault         bool     `json:"ra_fault"`
	Emissions       int      `json:"emissions"`
	Candidates      []string `json:"candidates"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// BusJSON is the JSON representation of the serial bus counters.
type BusJSON struct {
	Accepted      int `json:"accepted"`
	ParityErrors  int `json:"parity_errors"`
	UnknownLabels int `json:"unknown_labels"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs                int64  `json:"tick_ms"`
	SelfTestMs            int64  `json:"self_test_ms"`
	HeartbeatMs           int64  `json:"heartbeat_ms"`
	Broker                string `json:"broker"`
	HTTPAddr              string `json:"http_addr"`
	SerialPort            string `json:"serial_port,omitempty"`
	GPIOChip              string `json:"gpio_chip,omitempty"`
	AudioDeclutterDisable bool   `json:"audio_declutter_disable"`
	AlternateLampFormat   bool   `json:"alternate_lamp_format"`
}

func buildInner(snap Snapshot) StatusInner {
	out := snap.Outputs
	counts := make(map[string]int, len(snap.Counts))
	for k, v := range snap.Counts {
		counts[string(k)] = v
	}

	inner := StatusInner{
		Aural:         out.Aural.String(),
		WarningLamp:   out.WarningLamp,
		AlertLamp:     out.AlertLamp,
		GPWSInop:      out.GPWSInop,
		OnGround:      out.OnGround,
		Phase:         out.Phase.String(),
		Running:       snap.Running,
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Bus: BusJSON{
			Accepted:      snap.Bus.Accepted,
			ParityErrors:  snap.Bus.ParityErrors,
			UnknownLabels: snap.Bus.UnknownLabels,
		},
		Counts: counts,
		Config: ConfigJSON{
			TickMs:                snap.Config.TickMs,
			SelfTestMs:            snap.Config.SelfTestMs,
			HeartbeatMs:           snap.Config.HeartbeatMs,
			Broker:                snap.Config.Broker,
			HTTPAddr:              snap.Config.HTTPAddr,
			SerialPort:            snap.Config.SerialPort,
			GPIOChip:              snap.Config.GPIOChip,
			AudioDeclutterDisable: snap.Config.Pins.AudioDeclutterDisable,
			AlternateLampFormat:   snap.Config.Pins.AlternateLampFormat,
		},
	}
	if snap.Running {
		e := snap.Engine
		inner.Engine = &EngineJSON{
			RadioAltitudeFt: e.RadioAltitudeFt,
			VerticalSpeed:   e.VerticalSpeed,
			AltitudeFt:      e.AltitudeFt,
			GeneralFault:    e.GeneralFault,
			Mode5Fault:      e.Mode5Fault,
			RAFault:         e.RAFault,
			Emissions:       e.Emissions,
			Candidates:      []string{},
		}
		for _, c := range e.Candidates {
			inner.Engine.Candidates = append(inner.Engine.Candidates, c.String())
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
