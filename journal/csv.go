package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/ratecheck/reconcile"
)

// VerdictHeader follows the layout of the back-office validation report.
var VerdictHeader = []string{
	"run_id", "id_trader", "ativo", "comprado/vendido", "quantidade",
	"data_referencia", "preco_data_referencia", "preco_b3_referencia",
	"data_anterior", "preco_data_anterior", "preco_b3_anterior",
	"resultado", "resultado_correto", "validacao_b3", "status_validacao",
	"status", "motivo",
}

var RunHeader = []string{
	"run_id", "started_at", "finished_at", "trades_file", "dates", "unresolved_dates",
	"total", "matching", "divergent", "unresolved", "settlement_mismatch",
}

// CSV writes verdicts to one file and, optionally, runs to another.
type CSV struct {
	verdicts *csv.Writer
	runs     *csv.Writer
	vf, rf   *os.File

	mu sync.Mutex
}

// NewCSV creates verdictsPath and, when runsPath is not empty, runsPath.
func NewCSV(verdictsPath, runsPath string) (*CSV, error) {
	vf, err := os.Create(verdictsPath)
	if err != nil {
		return nil, err
	}
	j := &CSV{vf: vf, verdicts: csv.NewWriter(vf)}
	if err := writeHeader(j.verdicts, VerdictHeader); err != nil {
		_ = vf.Close()
		return nil, err
	}

	if runsPath != "" {
		rf, err := os.Create(runsPath)
		if err != nil {
			_ = vf.Close()
			return nil, err
		}
		j.rf = rf
		j.runs = csv.NewWriter(rf)
		if err := writeHeader(j.runs, RunHeader); err != nil {
			_ = vf.Close()
			_ = rf.Close()
			return nil, err
		}
	}
	return j, nil
}

func writeHeader(w *csv.Writer, header []string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) RecordRun(r Run) error {
	if j.runs == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.runs.Write([]string{
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.TradesFile,
		strconv.Itoa(r.Dates),
		strconv.Itoa(r.UnresolvedDates),
		strconv.Itoa(r.Total),
		strconv.Itoa(r.Matching),
		strconv.Itoa(r.Divergent),
		strconv.Itoa(r.Unresolved),
		strconv.Itoa(r.SettlementMismatch),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) RecordVerdict(runID string, v reconcile.Verdict) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec := Record(runID, 0, v)

	validation := "Falhou"
	if v.Current.Resolved && v.Previous.Resolved {
		validation = "Sucesso"
	}
	status := "OK"
	if v.SettlementMismatch {
		status = "ERRO"
	}

	err := j.verdicts.Write([]string{
		rec.RunID,
		rec.TraderID,
		rec.Instrument,
		rec.Side,
		f(rec.Quantity),
		rec.Date,
		pct(rec.RecordedPct),
		optional(rec.CurvePct, pct),
		rec.PrevDate,
		pct(rec.PrevRecordedPct),
		optional(rec.PrevCurvePct, pct),
		money(rec.RecordedResult),
		optional(rec.Result, money),
		validation,
		status,
		rec.Status,
		rec.Reason,
	})
	if err != nil {
		return err
	}
	j.verdicts.Flush()
	return j.verdicts.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.verdicts.Flush()
	if err := j.verdicts.Error(); err != nil {
		return err
	}
	if err := j.vf.Close(); err != nil {
		return err
	}
	if j.runs != nil {
		j.runs.Flush()
		if err := j.runs.Error(); err != nil {
			return err
		}
		if err := j.rf.Close(); err != nil {
			return err
		}
	}
	return nil
}

func optional(x *float64, format func(float64) string) string {
	if x == nil {
		return ""
	}
	return format(*x)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func pct(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}

func money(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
