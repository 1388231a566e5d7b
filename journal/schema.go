package journal

const Schema = `
CREATE TABLE IF NOT EXISTS deals (
	deal_id INTEGER PRIMARY KEY,
	position_id INTEGER NOT NULL,
	time INTEGER NOT NULL,
	type INTEGER NOT NULL,
	entry INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	magic INTEGER NOT NULL,
	volume REAL NOT NULL,
	price REAL NOT NULL,
	profit REAL NOT NULL,
	commission REAL NOT NULL,
	swap REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS open_positions (
	ticket INTEGER PRIMARY KEY,
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	magic INTEGER NOT NULL,
	volume REAL NOT NULL,
	price_open REAL NOT NULL,
	profit REAL NOT NULL,
	swap REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_time ON deals(time);
CREATE INDEX IF NOT EXISTS idx_deals_position ON deals(position_id);
`
