package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/logger"
)

const (
	maxBodyBytes     = 64 << 10
	leaderboardLimit = 100
)

// LeaderboardStore reads the leaderboard. *database.DB implements it.
type LeaderboardStore interface {
	GetLeaderboard(ctx context.Context, limit int) ([]database.LeaderboardEntry, error)
}

// Handler serves the stateless engine endpoints.
type Handler struct {
	registry   *bot.Registry
	opts       []bot.Option
	store      LeaderboardStore
	difficulty string
}

func NewHandler(registry *bot.Registry, opts ...bot.Option) *Handler {
	if registry == nil {
		registry = bot.NewRegistry()
	}
	return &Handler{registry: registry, opts: opts, difficulty: bot.Advanced}
}

// SetDefaultDifficulty is used for requests that name no difficulty.
func (h *Handler) SetDefaultDifficulty(name string) {
	h.difficulty = name
}

// SetStore enables the leaderboard (optional)
func (h *Handler) SetStore(store LeaderboardStore) {
	h.store = store
}

// Register adds the handler's routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/move", h.handleMove)
	mux.HandleFunc("GET /api/profiles", h.handleProfiles)
	mux.HandleFunc("GET /leaderboard", h.handleLeaderboard)
}

type moveRequest struct {
	Board      [][]int `json:"board"`
	Player     int     `json:"player"`
	Difficulty string  `json:"difficulty"`
}

// handleMove picks a move for an arbitrary position with a fresh engine.
func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dec, err := h.decide(req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("move request failed", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

func (h *Handler) decide(req moveRequest) (bot.Decision, error) {
	if req.Difficulty == "" {
		req.Difficulty = h.difficulty
	}
	prof, err := h.registry.Lookup(req.Difficulty)
	if err != nil {
		return bot.Decision{}, err
	}
	side, err := bot.ParseSide(req.Player)
	if err != nil {
		return bot.Decision{}, err
	}
	if len(req.Board) != bot.BoardSize {
		return bot.Decision{}, fmt.Errorf("%w: board has %d rows, want %d", bot.ErrInconsistentBoard, len(req.Board), bot.BoardSize)
	}
	board, err := bot.BoardFromGrid(req.Board)
	if err != nil {
		return bot.Decision{}, err
	}
	eng, err := bot.NewEngine(prof, h.opts...)
	if err != nil {
		return bot.Decision{}, err
	}
	return eng.Decide(board, side)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, bot.ErrInvalidProfile), errors.Is(err, bot.ErrInconsistentBoard):
		return http.StatusBadRequest
	case errors.Is(err, bot.ErrNoLegalMove):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Names())
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, []database.LeaderboardEntry{})
		return
	}
	entries, err := h.store.GetLeaderboard(r.Context(), leaderboardLimit)
	if err != nil {
		logger.Error("error fetching leaderboard", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
