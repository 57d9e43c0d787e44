package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"luckabet/internal/service"
)

// StatsHandler serves the leaderboard and statistics endpoints.
type StatsHandler struct {
	bettingService *service.BettingService
	statsService   *service.StatsService
	log            zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(bettingService *service.BettingService, statsService *service.StatsService, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{bettingService: bettingService, statsService: statsService, log: log}
}

// Leaderboard returns the public standings, admin-linked players excluded.
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := h.bettingService.Leaderboard()
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	type entry struct {
		Name      string `json:"name"`
		Points    int    `json:"points"`
		GamesWon  int    `json:"gamesWon"`
		GamesLost int    `json:"gamesLost"`
	}
	out := make([]entry, 0, len(players))
	for _, p := range players {
		out = append(out, entry{Name: p.Name, Points: p.Points, GamesWon: p.GamesWon, GamesLost: p.GamesLost})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"players": out})
}

// PlayerStats returns one player's full statistics view.
func (h *StatsHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	playerName := r.PathValue("name")
	if playerName == "" {
		badRequest(w, "player name is required")
		return
	}

	stats, err := h.statsService.PlayerStats(playerName)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GlobalStats returns system-wide statistics over all settled games.
func (h *StatsHandler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GlobalStats()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
