package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		games_played INTEGER NOT NULL DEFAULT 0,
		games_won INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id SERIAL PRIMARY KEY,
		black_id INTEGER REFERENCES players(id),
		white_id INTEGER REFERENCES players(id),
		winner_id INTEGER REFERENCES players(id),
		is_bot_game BOOLEAN NOT NULL DEFAULT FALSE,
		difficulty TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		end_time TIMESTAMP,
		game_state JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS ai_moves (
		id SERIAL PRIMARY KEY,
		game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		move_number INTEGER NOT NULL,
		row_index SMALLINT NOT NULL,
		col_index SMALLINT NOT NULL,
		stage TEXT NOT NULL,
		depth SMALLINT NOT NULL DEFAULT 0,
		nodes BIGINT NOT NULL DEFAULT 0,
		elapsed_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS ai_moves_game_idx ON ai_moves (game_id)`,
	`CREATE TABLE IF NOT EXISTS game_analytics (
		game_id TEXT,
		event_type TEXT,
		event_time TIMESTAMP,
		player TEXT,
		duration FLOAT,
		is_bot_game BOOLEAN,
		additional_data JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS failed_events (
		id SERIAL PRIMARY KEY,
		topic TEXT,
		partition INTEGER,
		"offset" BIGINT,
		message TEXT,
		error TEXT,
		timestamp TIMESTAMP
	)`,
	`CREATE OR REPLACE VIEW leaderboard AS
		SELECT username, games_played, games_won,
		       CASE WHEN games_played > 0
		            THEN ROUND((games_won::numeric / games_played::numeric) * 100, 2)
		            ELSE 0 END::float8 AS win_percentage
		FROM players`,
}
