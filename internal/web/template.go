package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pushbutton/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Push Buttons</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.pressed { color: green; font-weight: bold; }
.idle { color: #888; }
.closed { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Push Buttons</h1>

<h2>Buttons</h2>
<table>
<tr><th>ID</th><th>Device</th><th>State</th><th>Pressed</th><th>Hold</th><th>Released</th><th>Last</th></tr>
{{range .Buttons}}<tr id="button-{{.ID}}">
<td>{{.ID}}</td>
<td>{{if .Path}}{{.Path}}{{else}}-{{end}}</td>
<td class="state {{if not .Opened}}closed{{else if .Pressed}}pressed{{else}}idle{{end}}">{{if not .Opened}}closed{{else if .Pressed}}pressed{{else}}idle{{end}}</td>
<td class="count-pressed">{{.Counts.Pressed}}</td>
<td class="count-hold">{{.Counts.Hold}}</td>
<td class="count-released">{{.Counts.Released}}</td>
<td class="last">{{with .LastEvent}}{{.Type}} {{.Seconds}}s{{else}}-{{end}}</td>
</tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.TopicPrefix}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Button config</th><td>{{.Config.ButtonConfig}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/events");
  var counters = { PRESSED: "count-pressed", HOLD: "count-hold", RELEASED: "count-released" };

  ws.onmessage = function(e) {
    try {
      var msg = JSON.parse(e.data);
      var row = document.getElementById("button-" + msg.id);
      if (!row) { return; }
      var state = row.querySelector(".state");
      var pressed = msg.event !== "RELEASED";
      state.textContent = pressed ? "pressed" : "idle";
      state.className = "state " + (pressed ? "pressed" : "idle");
      var count = row.querySelector("." + counters[msg.event]);
      if (count) { count.textContent = parseInt(count.textContent, 10) + 1; }
      row.querySelector(".last").textContent = msg.event + " " + msg.seconds + "s";
    } catch (err) {}
  };
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
