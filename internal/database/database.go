package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"

	"github.com/gomoku/backend/internal/logger"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// Player represents a player in the database
type Player struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	GamesPlayed int       `json:"gamesPlayed"`
	GamesWon    int       `json:"gamesWon"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Game represents a game record in the database
type Game struct {
	ID         int        `json:"id"`
	BlackID    *int       `json:"blackId,omitempty"`
	WhiteID    *int       `json:"whiteId,omitempty"`
	WinnerID   *int       `json:"winnerId,omitempty"`
	IsBotGame  bool       `json:"isBotGame"`
	Difficulty string     `json:"difficulty"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
}

// AIMove is one engine decision in a stored game.
type AIMove struct {
	GameID     int
	MoveNumber int
	Row        int
	Col        int
	Stage      string
	Depth      int
	Nodes      uint64
	Elapsed    time.Duration
	Difficulty string
}

// LeaderboardEntry is one row of the leaderboard view.
type LeaderboardEntry struct {
	Username    string  `json:"username"`
	GamesPlayed int     `json:"gamesPlayed"`
	GamesWon    int     `json:"gamesWon"`
	WinRate     float64 `json:"winRate"`
}

// NewDB opens a pooled connection and retries the first ping so the server
// can start alongside its database.
func NewDB(ctx context.Context, dsn string, attempts uint) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready, retrying", map[string]interface{}{"attempt": n + 1, "error": err.Error()})
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("connected to database")
	return &DB{db}, nil
}

// Migrate creates the schema when it is missing.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}

// CreatePlayer creates a new player record
func (db *DB) CreatePlayer(ctx context.Context, username string) (*Player, error) {
	query := `
		INSERT INTO players (username)
		VALUES ($1)
		RETURNING id, username, games_played, games_won, created_at`

	var player Player
	err := db.QueryRowContext(ctx, query, username).Scan(
		&player.ID,
		&player.Username,
		&player.GamesPlayed,
		&player.GamesWon,
		&player.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating player: %w", err)
	}
	return &player, nil
}

// GetPlayer retrieves a player by username. A missing player is not an error.
func (db *DB) GetPlayer(ctx context.Context, username string) (*Player, error) {
	query := `
		SELECT id, username, games_played, games_won, created_at
		FROM players
		WHERE username = $1`

	var player Player
	err := db.QueryRowContext(ctx, query, username).Scan(
		&player.ID,
		&player.Username,
		&player.GamesPlayed,
		&player.GamesWon,
		&player.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting player: %w", err)
	}
	return &player, nil
}

// EnsurePlayer returns the player, creating it on first sight.
func (db *DB) EnsurePlayer(ctx context.Context, username string) (*Player, error) {
	p, err := db.GetPlayer(ctx, username)
	if err != nil || p != nil {
		return p, err
	}
	return db.CreatePlayer(ctx, username)
}

// CreateGame creates a new game record. The engine's side has no player id.
func (db *DB) CreateGame(ctx context.Context, blackID, whiteID *int, isBotGame bool, difficulty string) (*Game, error) {
	query := `
		INSERT INTO games (black_id, white_id, is_bot_game, difficulty, start_time)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, black_id, white_id, is_bot_game, difficulty, start_time`

	var game Game
	var black, white sql.NullInt64
	err := db.QueryRowContext(ctx, query, nullableInt(blackID), nullableInt(whiteID), isBotGame, difficulty).Scan(
		&game.ID,
		&black,
		&white,
		&game.IsBotGame,
		&game.Difficulty,
		&game.StartTime,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating game: %w", err)
	}
	game.BlackID = intPtr(black)
	game.WhiteID = intPtr(white)
	return &game, nil
}

// UpdateGameResult closes a game and updates the human players' statistics.
// winnerID is zero for a draw or an engine win.
func (db *DB) UpdateGameResult(ctx context.Context, gameID, winnerID int, gameState map[string]interface{}) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	gameStateJSON, err := json.Marshal(gameState)
	if err != nil {
		return fmt.Errorf("error marshaling game state: %w", err)
	}

	var winner *int
	if winnerID != 0 {
		winner = &winnerID
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE games
		SET winner_id = $1, end_time = CURRENT_TIMESTAMP, game_state = $2
		WHERE id = $3`,
		nullableInt(winner), string(gameStateJSON), gameID,
	)
	if err != nil {
		return fmt.Errorf("error updating game: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET games_played = games_played + 1,
			games_won = CASE WHEN players.id = $1 THEN games_won + 1 ELSE games_won END
		FROM games g
		WHERE g.id = $2
		  AND players.id IN (g.black_id, g.white_id)`,
		winnerID, gameID,
	)
	if err != nil {
		return fmt.Errorf("error updating player statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// RecordAIMove stores why the engine played a move.
func (db *DB) RecordAIMove(ctx context.Context, m AIMove) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ai_moves (game_id, move_number, row_index, col_index, stage, depth, nodes, elapsed_ms, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.GameID, m.MoveNumber, m.Row, m.Col, m.Stage, m.Depth, int64(m.Nodes),
		float64(m.Elapsed)/float64(time.Millisecond), m.Difficulty,
	)
	if err != nil {
		return fmt.Errorf("error recording ai move: %w", err)
	}
	return nil
}

// GetLeaderboard retrieves the top players
func (db *DB) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := `
		SELECT username, games_played, games_won, win_percentage
		FROM leaderboard
		ORDER BY games_won DESC, win_percentage DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesPlayed, &e.GamesWon, &e.WinRate); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
