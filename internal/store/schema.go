package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scenarios (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE,
    columns              TEXT NOT NULL,
    row_count            INTEGER NOT NULL,
    distributed_total    INTEGER NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scenario_rows (
    scenario_id          TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    obligation_id        TEXT NOT NULL,
    liability            TEXT NOT NULL,
    allocated_amount     INTEGER NOT NULL,
    PRIMARY KEY (scenario_id, position)
);

CREATE TABLE IF NOT EXISTS scenario_attributes (
    scenario_id          TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    value                TEXT NOT NULL,
    PRIMARY KEY (scenario_id, position, name)
);

CREATE INDEX IF NOT EXISTS idx_scenarios_created ON scenarios(created_at);
`
