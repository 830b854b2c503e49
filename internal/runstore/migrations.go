package runstore

const schema = `
CREATE TABLE IF NOT EXISTS spawn_runs (
    id TEXT PRIMARY KEY,
    genome TEXT NOT NULL,
    cli TEXT,
    success BOOLEAN NOT NULL,
    output TEXT,
    error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_spawn_runs_genome ON spawn_runs(genome);
CREATE INDEX IF NOT EXISTS idx_spawn_runs_created ON spawn_runs(created_at);

CREATE TABLE IF NOT EXISTS health_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    taken_at TIMESTAMP NOT NULL,
    agents_total INTEGER NOT NULL,
    agents_online INTEGER NOT NULL,
    agents_errored INTEGER NOT NULL,
    services_online INTEGER NOT NULL,
    services_total INTEGER NOT NULL,
    memory_used_pct REAL,
    disk_used_pct REAL,
    load_1 REAL,
    long_running INTEGER NOT NULL DEFAULT 0,
    report TEXT
);

CREATE INDEX IF NOT EXISTS idx_health_taken_at ON health_snapshots(taken_at);
`
