package leaderboard

import "html/template"

var templates = template.Must(template.New("leaderboard").Funcs(template.FuncMap{
	"fixed":    FormatFixed,
	"rowClass": rowClass,
}).Parse(tableTemplate + noDataTemplate + errorTemplate + pageTemplate))

// rowClass alternates row styling by position.
func rowClass(i int) string {
	if i%2 == 0 {
		return "even"
	}
	return "odd"
}

const tableTemplate = `{{define "table"}}<div class="table-container">
  <h2>{{.Title}} Leaderboard</h2>
  <table>
    <thead>
      <tr>
        <th class="athlete-col">Athlete</th>
        <th class="count-col">{{.CountLabel}}</th>
        <th class="distance-col">km</th>
        <th class="time-col">Hours</th>
        <th class="elevation-col">Elevation (m)</th>
      </tr>
    </thead>
    <tbody>
{{- range $i, $row := .Rows}}
      <tr class="{{rowClass $i}}">
        <td class="athlete-col">{{$row.Name}}</td>
        <td class="count-col">{{$row.Count}}</td>
        <td class="distance-col">{{fixed $row.DistanceKm 1}}</td>
        <td class="time-col">{{fixed $row.TimeHours 1}}</td>
        <td class="elevation-col">{{fixed $row.ElevationM 0}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>
</div>{{end}}`

const noDataTemplate = `{{define "no-data"}}<div class="no-data">No {{.Category}} data for this week</div>{{end}}`

const errorTemplate = `{{define "error"}}<div class="error-message">
  <h2>⚠️ Unable to Load Leaderboard</h2>
  <p>{{.Message}}</p>
  <p>Please try refreshing the page or contact support if the problem persists.</p>
</div>{{end}}`

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Weekly Leaderboard</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 960px; padding: 1rem; color: #242428; }
    header { border-bottom: 3px solid #fc4c02; margin-bottom: 1.5rem; }
    .meta { color: #6d6d78; margin: 0.25rem 0; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
    th, td { padding: 0.5rem; text-align: right; }
    th.athlete-col, td.athlete-col { text-align: left; }
    thead th { background: #fc4c02; color: #fff; }
    tr.odd { background: #f7f7fa; }
    .no-data { color: #6d6d78; font-style: italic; margin-bottom: 2rem; }
    .error-message { border: 1px solid #d93025; background: #fdecea; padding: 1rem; }
  </style>
</head>
<body>
  <header>
    <h1>Weekly Leaderboard</h1>
    <p class="meta" id="last-updated">{{.LastUpdated}}</p>
    <p class="meta" id="week-range">{{.WeekRange}}</p>
  </header>
  <main>
    <section id="cycling-table">{{.Cycling}}</section>
    <section id="running-table">{{.Running}}</section>
  </main>
</body>
</html>
{{end}}`
