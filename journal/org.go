package journal

import (
	"io"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/ratecheck/reconcile"
)

var orgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"opt": func(x *float64) string {
		if x == nil {
			return "-"
		}
		return pct(*x)
	},
	"optMoney": func(x *float64) string {
		if x == nil {
			return "-"
		}
		return money(*x)
	},
	"pct":   pct,
	"money": money,
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

type orgView struct {
	Run
	Flagged []VerdictRecord
}

// WriteOrg renders run as an Org-mode section listing the flagged verdicts.
func WriteOrg(w io.Writer, run Run, verdicts []VerdictRecord) error {
	v := orgView{Run: run}
	for _, rec := range verdicts {
		if rec.Divergent || rec.SettlementMismatch || rec.Status == reconcile.StatusUnresolved.String() {
			v.Flagged = append(v.Flagged, rec)
		}
	}
	return orgTemplate.Execute(w, v)
}

// WriteOrgFile is WriteOrg into a new file at path.
func WriteOrgFile(path string, run Run, verdicts []VerdictRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOrg(f, run, verdicts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

const RunOrgTemplate = `* RECONCILE: {{if .TradesFile}}{{.TradesFile}}{{else}}(trades?){{end}}
:PROPERTIES:
:RUN_ID:      {{.ID}}
:STARTED:     [{{(orTime .StartedAt).Format "2006-01-02 Mon 15:04"}}]
:DATES:       {{.Dates}}
:UNRESOLVED_DATES: {{.UnresolvedDates}}
:TRADES:      {{.Total}}
:MATCHING:    {{.Matching}}
:DIVERGENT:   {{.Divergent}}
:UNRESOLVED:  {{.Unresolved}}
:SETTLEMENT_MISMATCH: {{.SettlementMismatch}}
:END:

** Summary
| Outcome             | Count |
|---------------------+-------|
| Matching            | {{.Matching}} |
| Divergent           | {{.Divergent}} |
| Unresolved          | {{.Unresolved}} |
| Settlement mismatch | {{.SettlementMismatch}} |
| Total               | {{.Total}} |
{{- if .Flagged }}

** Flagged
| Trader | Instrument | Side | Date | Recorded % | Curve % | Prev date | Prev recorded % | Prev curve % | Recorded result | Result | Status |
|--------+------------+------+------+------------+---------+-----------+-----------------+--------------+-----------------+--------+--------|
{{- range .Flagged }}
| {{.TraderID}} | {{.Instrument}} | {{.Side}} | {{.Date}} | {{pct .RecordedPct}} | {{opt .CurvePct}} | {{.PrevDate}} | {{pct .PrevRecordedPct}} | {{opt .PrevCurvePct}} | {{money .RecordedResult}} | {{optMoney .Result}} | {{.Status}}{{if .SettlementMismatch}} (settlement){{end}} |
{{- end }}
{{- end }}
`
