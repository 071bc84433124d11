package http

import "html/template"

// pageTemplate draws the chart client side. The chart is embedded as JSON;
// html/template escapes it for the script context.
var pageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<style>
body { font-family: sans-serif; margin: 2em; }
#wrap { max-width: 1200px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="wrap"><canvas id="chart"></canvas></div>
<p>Series data: <a href="/api/chart">/api/chart</a></p>
<script>
const chart = {{.}};
new Chart(document.getElementById("chart"), {
  type: "line",
  data: {
    datasets: (chart.lines || []).map(l => ({
      label: l.name,
      data: (l.points || []).map(p => ({x: p.age, y: p.ratio})),
      pointRadius: 0,
      borderWidth: 1.5,
    })),
  },
  options: {
    parsing: false,
    scales: {
      x: {type: "linear", title: {display: true, text: chart.x_label}},
      y: {title: {display: true, text: chart.y_label}},
    },
  },
});
</script>
</body>
</html>
`))
