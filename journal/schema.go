package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	trades_file TEXT NOT NULL,
	dates INTEGER NOT NULL,
	unresolved_dates INTEGER NOT NULL,
	total INTEGER NOT NULL,
	matching INTEGER NOT NULL,
	divergent INTEGER NOT NULL,
	unresolved INTEGER NOT NULL,
	settlement_mismatch INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS verdicts (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	trader_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	date TEXT NOT NULL,
	recorded_pct REAL NOT NULL,
	curve_pct REAL,
	prev_date TEXT NOT NULL,
	prev_recorded_pct REAL NOT NULL,
	prev_curve_pct REAL,
	recorded_result REAL NOT NULL,
	result REAL,
	status TEXT NOT NULL,
	divergent INTEGER NOT NULL,
	settlement_mismatch INTEGER NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_verdicts_status ON verdicts(run_id, status);
`
