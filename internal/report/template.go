package report

const reportTemplateSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>st-solguard security report</title>
<style>
body { background:#0b0f14; color:#d7dde3; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; margin:0; padding:2rem; }
h1,h2,h3 { font-weight:600; }
.badge { display:inline-block; padding:0.1rem 0.5rem; border-radius:0.4rem; border:1px solid; font-size:0.8rem; }
.card { background:#111821; border:1px solid #1f2937; border-radius:0.6rem; padding:1rem 1.25rem; margin-bottom:1rem; }
table { border-collapse: collapse; width:100%; }
th,td { text-align:left; padding:0.35rem 0.6rem; border-bottom:1px solid #1f2937; }
.finding { border-left:3px solid #374151; padding-left:0.75rem; margin:0.6rem 0; }
</style>
</head>
<body>
<h1>st-solguard security report</h1>
<p>Generated {{.GeneratedAt}} &middot; {{.NarrativeCount}} narratives &middot; {{.FindingCount}} findings across {{.RepoCount}} repos</p>
<p style="color:#6b7280;font-size:0.8rem;">Run {{.RunID}}</p>

<div class="card">
<h2>Summary</h2>
<table>
<tr><th>Critical</th><th>High</th><th>Medium</th><th>Low</th><th>Info</th>{{if .HasValidation}}<th>Confirmed</th><th>Disputed</th>{{end}}</tr>
<tr><td>{{.SeverityCritical}}</td><td>{{.SeverityHigh}}</td><td>{{.SeverityMedium}}</td><td>{{.SeverityLow}}</td><td>{{.SeverityInfo}}</td>{{if .HasValidation}}<td>{{.ConfirmedCount}}</td><td>{{.DisputedCount}}</td>{{end}}</tr>
</table>
</div>

{{range .Narratives}}
<div class="card">
<h2>{{.Title}} <span class="badge {{.RiskClass}}">{{.RiskLevel}}</span></h2>
<p>{{.Summary}}</p>
<p>confidence {{.ConfidencePct}}% &middot; trend {{.Trend}} &middot; {{.RepoCount}} repos &middot; {{.FindingCount}} findings &middot; risk score {{.RiskScoreFmt}}</p>
{{range .LinkedFindings}}
<div class="finding">
<strong class="{{.SeverityClass}}">[{{.Severity}}]</strong> {{.Title}} <span class="badge {{.ValidationClass}}">{{.ValidationBadge}}</span><br>
<span>{{.FileLocation}} ({{.Repo}})</span>
<p>{{.Description}}</p>
<p><em>Remediation:</em> {{.Remediation}}</p>
{{if .ValidationReasoning}}<p><em>Validator:</em> {{.ValidationReasoning}}</p>{{end}}
</div>
{{else}}
<p>No findings linked to this narrative yet.</p>
{{end}}
</div>
{{end}}

<div class="card">
<h2>Repo summary</h2>
<table>
<tr><th>Repo</th><th>Critical</th><th>High</th><th>Medium</th><th>Low</th><th>Total</th></tr>
{{range .RepoSummaries}}<tr><td>{{.Name}}</td><td>{{.Critical}}</td><td>{{.High}}</td><td>{{.Medium}}</td><td>{{.Low}}</td><td>{{.Total}}</td></tr>
{{end}}
</table>
</div>

{{if .OrphanFindings}}
<div class="card">
<h2>Orphan findings ({{.OrphanCount}})</h2>
{{range .OrphanFindings}}
<div class="finding">
<strong class="{{.SeverityClass}}">[{{.Severity}}]</strong> {{.Title}} <span class="badge {{.ValidationClass}}">{{.ValidationBadge}}</span><br>
<span>{{.FileLocation}} ({{.Repo}})</span>
<p>{{.Description}}</p>
<p><em>Remediation:</em> {{.Remediation}}</p>
</div>
{{end}}
</div>
{{end}}

</body>
</html>
`
