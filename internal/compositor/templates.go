package compositor

// ── Base layout ───────────────────────────────────────────────────────────────

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}} — Pharma Safety HMI</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:#0f172a;color:#e2e8f0;font-size:14px;line-height:1.5}
a{color:#38bdf8;text-decoration:none}
a:hover{text-decoration:underline}
nav{background:#1e293b;border-bottom:1px solid #1f2a44;padding:10px 20px;display:flex;gap:14px;align-items:center;flex-wrap:wrap}
nav .brand{color:#f8fafc;font-weight:700;font-size:15px;margin-right:10px}
nav a{color:#94a3b8;padding:4px 8px;border-radius:6px}
nav a:hover{color:#e2e8f0;background:#334155;text-decoration:none}
nav a.active{color:#38bdf8;background:#0f172a}
main{padding:16px 20px;max-width:1320px;margin:0 auto}
h1{font-size:20px;font-weight:700;color:#f8fafc;margin-bottom:12px}
h2{font-size:14px;font-weight:600;color:#94a3b8;text-transform:uppercase;letter-spacing:.05em;margin:14px 0 8px}
.err{background:#7f1d1d40;border:1px solid #991b1b;color:#f87171;border-radius:8px;padding:10px 14px;margin:8px 0}
.note{background:#1e3a5f40;border:1px solid #1e3a5f;color:#60a5fa;border-radius:8px;padding:10px 14px;margin:8px 0}
.wrap{position:relative;width:min(1280px,96%);margin:8px auto;border:1px solid #1f2a44;border-radius:12px;overflow:hidden;box-shadow:0 18px 60px rgba(0,0,0,.35)}
.wrap img{display:block;width:100%;height:auto}
.hotspot{position:absolute;border:2px solid rgba(34,197,94,.9);border-radius:10px;background:rgba(16,185,129,.18);color:#e2e8f0;font-weight:800;font-size:12px;display:flex;align-items:flex-start;justify-content:flex-start;padding:4px 6px;z-index:20;text-decoration:none}
.hotspot:hover{background:rgba(16,185,129,.28)}
.hotspot span{background:rgba(2,6,23,.55);border:1px solid rgba(103,232,249,.5);padding:2px 6px;border-radius:8px}
.quick{display:flex;gap:8px;flex-wrap:wrap;margin:10px auto;width:min(1280px,96%)}
.quick a{background:#1e293b;border:1px solid #334155;border-radius:8px;padding:6px 14px;color:#e2e8f0;font-weight:600}
.quick a:hover{background:#334155;text-decoration:none}
.cols{display:grid;grid-template-columns:2fr 1fr;gap:16px;align-items:start}
@media(max-width:960px){.cols{grid-template-columns:1fr}}
.detector{position:absolute;transform:translate(-50%,-50%);border:2px solid #22c55e;border-radius:10px;background:#fff;padding:6px 10px;min-width:88px;text-align:center;z-index:20;box-shadow:0 0 10px rgba(34,197,94,.35);font-weight:800;color:#0f172a;text-decoration:none}
.detector:hover{background:#eaffea;text-decoration:none}
.detector.sel{border-color:#38bdf8;box-shadow:0 0 12px rgba(56,189,248,.55)}
.detector.warn{border-color:#eab308;box-shadow:0 0 12px rgba(234,179,8,.5)}
.detector.alarm{border-color:#ef4444;box-shadow:0 0 12px rgba(239,68,68,.6)}
.detector .lbl{font-size:14px;line-height:1.1}
.detector .val{font-size:13px;font-weight:700;opacity:.9}
.detector .rng{font-size:11px;opacity:.7}
canvas.cloud{position:absolute;left:0;top:0;width:100%;height:100%;pointer-events:none;z-index:15}
.shutter{position:absolute;right:0;top:0;width:24px;height:100%;background:rgba(15,23,42,.55);transform:translateX(110%);transition:transform 1.2s ease;z-index:18;border-left:2px solid rgba(148,163,184,.5)}
.shutter.active{transform:translateX(0%)}
.panel{background:#1e293b;border:1px solid #1f2a44;border-radius:12px;padding:14px;margin-bottom:12px}
.panel h3{font-size:13px;font-weight:600;color:#94a3b8;text-transform:uppercase;letter-spacing:.05em;margin-bottom:8px}
.badge{display:inline-block;padding:2px 10px;border-radius:9999px;font-size:12px;font-weight:700}
.badge.ok{background:#064e3b;color:#34d399}
.badge.warn{background:#713f12;color:#fbbf24}
.badge.alarm{background:#7f1d1d;color:#f87171}
.kv{display:flex;justify-content:space-between;font-size:12px;padding:3px 0;border-bottom:1px solid #ffffff08}
.kv .k{color:#94a3b8}.kv .v{color:#f8fafc;font-weight:600}
.ops{display:flex;gap:6px;flex-wrap:wrap;margin-top:8px}
.ops button{padding:6px 12px;border-radius:6px;font-size:12px;font-weight:600;border:none;cursor:pointer;background:#334155;color:#e2e8f0}
.ops button:hover{background:#475569}
.ops button.danger{background:#dc2626;color:#fff}
.ops button.danger:hover{background:#b91c1c}
svg.trend{width:100%;height:90px;background:#0f172a;border:1px solid #1f2a44;border-radius:8px}
svg.trend polyline{fill:none;stroke:#38bdf8;stroke-width:1.5}
svg.trend line.thr{stroke:#eab308;stroke-width:1;stroke-dasharray:4 3}
.chat textarea{width:100%;min-height:64px;background:#0f172a;border:1px solid #334155;border-radius:8px;color:#e2e8f0;padding:8px;font-size:13px}
.chat button{margin-top:6px;padding:6px 16px;border-radius:6px;border:none;background:#3b82f6;color:#fff;font-weight:600;cursor:pointer}
.chat button:hover{background:#2563eb}
.answer{white-space:pre-wrap;font-size:13px;background:#0f172a;border:1px solid #1f2a44;border-radius:8px;padding:10px;margin-top:8px}
.backend{font-size:11px;color:#64748b;margin-top:4px}
</style>
</head>
<body>
<nav>
  <span class="brand">🏭 Pharma Safety HMI</span>
  <a href="/" {{if .OverviewActive}}class="active"{{end}}>Overview</a>
  {{range .NavRooms}}<a href="/rooms/{{urlquery .}}" {{if eq . $.Title}}class="active"{{end}}>{{.}}</a>{{end}}
  <a href="/export/incidents">Incident log</a>
</nav>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}
`

// ── Overview ──────────────────────────────────────────────────────────────────

const tmplOverview = `
{{define "content"}}
<h1>Facility Overview (2.5D)</h1>
{{if .ImageErr}}
<div class="err">{{.ImageErr}}</div>
{{else}}
<div class="wrap">
  <img src="{{.ImageURI}}" alt="overview"/>
  {{range .Hotspots}}
  <a class="hotspot" data-room="{{.Room}}" href="/?room={{urlquery .Room}}"
     style="left:{{.Left}}%;top:{{.Top}}%;width:{{.Width}}%;height:{{.Height}}%;">
    <span>{{.Room}}</span>
  </a>
  {{end}}
</div>
{{end}}
<h2>Quick open</h2>
<div class="quick">
  {{range .NavRooms}}<a href="/rooms/{{urlquery .}}">{{.}}</a>{{end}}
</div>
{{end}}
`

// ── Room ──────────────────────────────────────────────────────────────────────

const tmplRoom = `
{{define "content"}}
<h1>🚪 {{.Title}}</h1>
<div class="ops" style="margin-bottom:10px">
  <form method="POST" action="/api/rooms/{{urlquery .Title}}/ops">
    <input type="hidden" name="det" value="{{.SelectedLabel}}">
    <button name="action" value="simulate" class="danger">💨 Simulate Gas Leak</button>
    <button name="action" value="ventilate">🌀 Ventilate</button>
    <button name="action" value="shutter">🪟 Close Shutters</button>
    <button name="action" value="reset">⏹ Reset</button>
    <button name="action" value="ack">✔ Acknowledge</button>
  </form>
  <a class="quick" href="/" style="align-self:center">⬅️ Back to Overview</a>
</div>
{{if .ImageErr}}
<div class="err">{{.ImageErr}}</div>
{{else}}
<div class="cols">
  <div>
    <div id="roomwrap" class="wrap" style="width:100%">
      <img id="roomimg" src="{{.ImageURI}}" alt="{{.Title}}"/>
      <canvas id="cloud" class="cloud"></canvas>
      <div id="shutter" class="shutter {{if .ShutterActive}}active{{end}}"></div>
      {{range .Pins}}
      <a class="detector {{.Class}}" href="/rooms/{{urlquery $.Title}}?det={{urlquery .Label}}"
         style="left:{{.X}}%;top:{{.Y}}%;">
        <div class="lbl">{{.Label}}</div>
        <div class="val">{{.Value}}</div>
        <div class="rng">{{.Range}}</div>
      </a>
      {{end}}
    </div>
  </div>
  <div>
    {{if .Selected}}
    <div class="panel">
      <h3>📈 {{.Selected.Label}} — Live trend</h3>
      <svg class="trend" viewBox="0 0 320 90" preserveAspectRatio="none">
        {{if .Selected.WarnY}}<line class="thr" x1="0" x2="320" y1="{{.Selected.WarnY}}" y2="{{.Selected.WarnY}}"/>{{end}}
        <polyline points="{{.Selected.TrendPoints}}"/>
      </svg>
      <div class="kv"><span class="k">Status</span><span class="v"><span class="badge {{.Selected.Class}}">{{.Selected.Status}}</span></span></div>
      <div class="kv"><span class="k">Latest</span><span class="v">{{.Selected.Value}}</span></div>
      <div class="kv"><span class="k">Warn / Alarm</span><span class="v">{{.Selected.Warn}} / {{.Selected.Alarm}}</span></div>
      <div class="kv"><span class="k">Baseline (24h)</span><span class="v">μ={{.Selected.Mean}} σ={{.Selected.Std}}</span></div>
      {{if .Selected.Projection}}<div class="kv"><span class="k">Projected crossing</span><span class="v">~{{.Selected.Projection}} min</span></div>{{end}}
      <div class="kv"><span class="k">Range</span><span class="v">{{.Selected.Range}}</span></div>
      <p style="font-size:12px;color:#94a3b8;margin-top:6px">{{.Selected.Message}}</p>
    </div>
    {{else}}
    <div class="note">Click a detector badge to view its live trend.</div>
    {{end}}
    <div class="panel chat">
      <h3>🤖 AI Safety Assistant</h3>
      <form method="POST" action="/rooms/{{urlquery .Title}}/chat">
        <input type="hidden" name="det" value="{{.SelectedLabel}}">
        <textarea name="prompt" placeholder="Ask about leaks, thresholds or actions…"></textarea>
        <button type="submit">Ask</button>
      </form>
      {{if .Answer}}
      <div class="answer">{{.Answer}}</div>
      <div class="backend">Backend: {{.Backend}}</div>
      {{end}}
    </div>
  </div>
</div>
<script>
(function(){
  const autoStart = {{.Simulate}};
  const canvas = document.getElementById("cloud");
  const wrap = document.getElementById("roomwrap");
  const sh = document.getElementById("shutter");
  const ctx = canvas.getContext("2d");

  function resize() {
    const r = wrap.getBoundingClientRect();
    canvas.width = r.width;
    canvas.height = r.height;
  }
  resize(); window.addEventListener('resize', resize);

  let t0 = null, raf = null;
  function draw(ts) {
    if (!t0) t0 = ts;
    const t = (ts - t0)/1000;
    ctx.clearRect(0,0,canvas.width,canvas.height);
    for (let i=0;i<24;i++) {
      const ang = i * 0.26;
      const r = 20 + t*60 + i*8;
      const x = canvas.width*0.55 + Math.cos(ang)*r;
      const y = canvas.height*0.55 + Math.sin(ang)*r*0.62;
      const a = Math.max(0, 0.6 - i*0.02 - t*0.07);
      ctx.beginPath();
      ctx.fillStyle = {{.GasColour}} + Math.floor(a*255).toString(16).padStart(2,'0');
      ctx.arc(x, y, 32 + i*0.8 + t*3, 0, Math.PI*2);
      ctx.fill();
    }
    raf = requestAnimationFrame(draw);
  }

  function start() {
    if (raf) cancelAnimationFrame(raf);
    t0 = null;
    sh.classList.add('active');
    raf = requestAnimationFrame(draw);
    setTimeout(() => {
      sh.classList.remove('active');
      if (raf) cancelAnimationFrame(raf);
      ctx.clearRect(0,0,canvas.width,canvas.height);
    }, 12000);
  }

  if (autoStart) start();
})();
</script>
{{end}}
{{end}}
`

// ── Incident export ───────────────────────────────────────────────────────────

const tmplIncidents = `
{{define "content"}}
<h1>📋 Incident Log Export</h1>
<p style="color:#94a3b8;font-size:12px;margin-bottom:12px">Generated {{.GeneratedAt}}</p>
{{if not .Rooms}}
<div class="note">No incidents logged this session.</div>
{{end}}
{{range .Rooms}}
<div class="panel">
  <h3>{{.Room}}</h3>
  {{range .Entries}}
  <div class="kv"><span class="k">{{.At.Format "2006-01-02 15:04:05"}}</span><span class="v" style="text-align:right;max-width:75%">{{.Text}}</span></div>
  {{end}}
</div>
{{end}}
{{end}}
`
