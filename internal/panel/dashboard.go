package panel

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>VetAssist sessions</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #ddd; }
.badge-success { color: #1a7f37; } .badge-error { color: #cf222e; }
.badge-active { color: #0969da; } .badge-secondary { color: #6e7781; }
#events { font-family: monospace; font-size: .85rem; max-height: 20rem; overflow-y: auto; }
</style>
</head>
<body>
<h1>Live sessions</h1>
<p>{{len .Sessions}} session(s); idle sessions expire after {{.TTL}}.</p>
<table>
<thead><tr><th>ID</th><th>Step</th><th>Animal</th><th>Symptoms</th><th>Analysis</th><th>Diagnosis</th><th>Last active</th></tr></thead>
<tbody>
{{range .Sessions}}<tr>
<td><a href="/api/sessions/{{.ID}}">{{truncate .ID 8}}</a></td>
<td>{{.Step}}</td>
<td>{{if .AnimalType}}{{.AnimalType}}{{else}}-{{end}}</td>
<td>{{join .Symptoms}}</td>
<td class="{{statusBadge .Analysis.Status}}">{{.Analysis.Status}} {{if eq .Analysis.Status "running"}}{{.Analysis.Progress}}%{{end}}</td>
<td>{{with .Result}}{{.Disease}} ({{.Urgency}}){{else}}-{{end}}</td>
<td>{{timeAgo .LastActive}}</td>
</tr>{{else}}<tr><td colspan="7">No live sessions.</td></tr>{{end}}
</tbody>
</table>
<h2>Events</h2>
<div id="events"></div>
<script>
const log = document.getElementById("events");
const src = new EventSource("/sse/events");
["session_created","session_reset","session_discarded","step_changed","analysis_started","analysis_progress","analysis_succeeded","analysis_failed","analysis_cancelled"].forEach(t =>
  src.addEventListener(t, e => {
    const line = document.createElement("div");
    line.textContent = new Date().toLocaleTimeString() + " " + t + " " + e.data;
    log.prepend(line);
  }));
</script>
</body>
</html>
`
