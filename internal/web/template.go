package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/egpwc/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"lamp": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>EGPWC</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.warning { color: red; font-weight: bold; }
.alert { color: orange; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>EGPWC</h1>

<h2>Outputs</h2>
<table>
<tr><th>Aural</th><td id="aural" class="{{if eq .Outputs.Aural.String "NONE"}}off{{else}}warning{{end}}">{{.Outputs.Aural}}</td></tr>
<tr><th>Warning lamp</th><td id="warning-lamp" class="{{if .Outputs.WarningLamp}}warning{{else}}off{{end}}">{{lamp .Outputs.WarningLamp}}</td></tr>
<tr><th>Alert lamp</th><td id="alert-lamp" class="{{if .Outputs.AlertLamp}}alert{{else}}off{{end}}">{{lamp .Outputs.AlertLamp}}</td></tr>
<tr><th>GPWS inop</th><td id="gpws-inop" class="{{if .Outputs.GPWSInop}}alert{{else}}off{{end}}">{{lamp .Outputs.GPWSInop}}</td></tr>
<tr><th>On ground</th><td>{{if .Outputs.OnGround}}yes{{else}}no{{end}}</td></tr>
<tr><th>Phase</th><td>{{.Outputs.Phase}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

{{if .Running}}<h2>Engine</h2>
<table>
<tr><th>Radio altitude</th><td>{{printf "%.0f" .Engine.RadioAltitudeFt}} ft</td></tr>
<tr><th>Vertical speed</th><td>{{printf "%.0f" .Engine.VerticalSpeed}} ft/min</td></tr>
<tr><th>Altitude</th><td>{{printf "%.0f" .Engine.AltitudeFt}} ft</td></tr>
<tr><th>Faults</th><td>{{if .Engine.GeneralFault}}general {{end}}{{if .Engine.Mode5Fault}}mode5 {{end}}{{if .Engine.RAFault}}ra{{end}}</td></tr>
<tr><th>Emissions</th><td>{{.Engine.Emissions}}</td></tr>
</table>
{{else}}<p class="alert">Runtime not running</p>
{{end}}
<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Config.SerialPort}}<tr><th>Serial</th><td>{{.Config.SerialPort}} ({{.Bus.Accepted}} words, {{.Bus.ParityErrors}} parity errors)</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
{{range $k, $v := .Counts}}<tr><th>{{$k}}</th><td>{{$v}}</td></tr>
{{else}}<tr><td>none</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Self test</th><td>{{.Config.SelfTestMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a>{{if .Running}} | <a href="/engine.json">Engine</a>{{end}}</p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
