package ws

import (
	"encoding/json"
	"net/http"
	"sort"
)

type ActiveUser struct {
	Username   string `json:"username"`
	Status     string `json:"status"` // "idle", "in_game", "finished"
	Difficulty string `json:"difficulty,omitempty"`
}

// GetActiveUsers returns the connected players that have joined, by name.
func (h *Hub) GetActiveUsers() []ActiveUser {
	h.mu.Lock()
	defer h.mu.Unlock()

	activeUsers := make([]ActiveUser, 0, len(h.clients))
	for client := range h.clients {
		if client.username == "" {
			continue
		}
		u := ActiveUser{Username: client.username, Status: "idle"}
		if g, ok := h.games[client.gameID]; ok {
			u.Difficulty = g.game.Difficulty
			u.Status = "finished"
			if g.game.IsActive {
				u.Status = "in_game"
			}
		}
		activeUsers = append(activeUsers, u)
	}
	sort.Slice(activeUsers, func(i, j int) bool {
		return activeUsers[i].Username < activeUsers[j].Username
	})
	return activeUsers
}

// HandleActiveUsers is an HTTP handler for getting active users
func (h *Hub) HandleActiveUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.GetActiveUsers())
}
