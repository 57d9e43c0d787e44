package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"luckabet/internal/models"
	"luckabet/internal/service"
	"luckabet/internal/validation"
)

// GameHandler serves game state, settlement and history endpoints.
type GameHandler struct {
	bettingService *service.BettingService
	statsService   *service.StatsService
	log            zerolog.Logger
}

// NewGameHandler creates a new game handler.
func NewGameHandler(bettingService *service.BettingService, statsService *service.StatsService, log zerolog.Logger) *GameHandler {
	return &GameHandler{bettingService: bettingService, statsService: statsService, log: log}
}

// CurrentGame returns the game of the current session, or null.
func (h *GameHandler) CurrentGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.bettingService.CurrentGame()
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"game": gameViewOf(game)})
}

type createGameRequest struct {
	GameType string `json:"gameType"`
}

// CreateGame opens a game explicitly. Mainly used for trip games, which
// cannot be created implicitly because they ignore the window.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.GameType == "" {
		req.GameType = models.GameTypeNormal
	}
	if err := validation.ValidateGameType(req.GameType); err != nil {
		respondError(w, h.log, err)
		return
	}

	game, err := h.bettingService.CreateGame(req.GameType)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"game": gameViewOf(game)})
}

type settleRequest struct {
	ActualTime *int `json:"actualTime"`
	DidntCome  bool `json:"didntCome"`
}

type settleResponse struct {
	GameID     int64                     `json:"gameId"`
	ActualTime *int                      `json:"actualTime"`
	DidntCome  bool                      `json:"didntCome"`
	Results    []models.SettlementResult `json:"results"`
}

// Settle reveals the outcome and pays out every bet on the pending game.
func (h *GameHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	outcome := models.Outcome{DidntCome: req.DidntCome}
	if !req.DidntCome {
		if req.ActualTime == nil {
			badRequest(w, "actualTime is required unless didntCome is set")
			return
		}
		outcome.ActualTime = *req.ActualTime
	}

	results, game, err := h.bettingService.Settle(outcome)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, settleResponse{
		GameID:     game.ID,
		ActualTime: game.ActualTime,
		DidntCome:  game.DidntCome,
		Results:    results,
	})
}

// History returns settled games newest first. ?limit=N caps the list.
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			badRequest(w, "invalid limit")
			return
		}
		limit = parsed
	}

	games, err := h.statsService.History(limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}
