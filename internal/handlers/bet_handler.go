package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"luckabet/internal/models"
	"luckabet/internal/service"
	"luckabet/internal/validation"
)

// BetHandler serves the bet lifecycle endpoints.
type BetHandler struct {
	bettingService *service.BettingService
	log            zerolog.Logger
}

// NewBetHandler creates a new bet handler.
func NewBetHandler(bettingService *service.BettingService, log zerolog.Logger) *BetHandler {
	return &BetHandler{bettingService: bettingService, log: log}
}

type placeBetRequest struct {
	Prediction    int  `json:"prediction"`
	IsWontComeBet bool `json:"isWontComeBet"`
	BetAmount     int  `json:"betAmount"`
}

type betResponse struct {
	PlayerName    string `json:"playerName"`
	Prediction    int    `json:"prediction"`
	IsWontComeBet bool   `json:"isWontComeBet"`
	BetAmount     int    `json:"betAmount"`
}

// playerNameFor resolves which player the request acts as. Regular users bet
// as their linked player only.
func playerNameFor(r *http.Request) string {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.PlayerName
}

// PlaceBet records the caller's prediction for the current game.
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	playerName := playerNameFor(r)
	if playerName == "" {
		badRequest(w, "account has no player profile")
		return
	}

	var req placeBetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !req.IsWontComeBet {
		if err := validation.ValidatePrediction(req.Prediction); err != nil {
			respondError(w, h.log, err)
			return
		}
	}

	bet, err := h.bettingService.PlaceBet(playerName, req.Prediction, req.IsWontComeBet, req.BetAmount)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"bet": betResponse{
			PlayerName:    playerName,
			Prediction:    bet.Prediction,
			IsWontComeBet: bet.IsWontComeBet,
			BetAmount:     bet.BetAmount,
		},
	})
}

// MyBet returns the caller's bet for the current session, or null.
func (h *BetHandler) MyBet(w http.ResponseWriter, r *http.Request) {
	playerName := playerNameFor(r)
	if playerName == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"bet": nil})
		return
	}

	bet, err := h.bettingService.MyBet(playerName)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if bet == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"bet": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bet": betResponse{
			PlayerName:    playerName,
			Prediction:    bet.Prediction,
			IsWontComeBet: bet.IsWontComeBet,
			BetAmount:     bet.BetAmount,
		},
	})
}

// RemoveBet withdraws the caller's bet while the window is still open.
func (h *BetHandler) RemoveBet(w http.ResponseWriter, r *http.Request) {
	playerName := playerNameFor(r)
	if playerName == "" {
		badRequest(w, "account has no player profile")
		return
	}
	if err := h.bettingService.RemoveBet(playerName); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type todayBetEntry struct {
	PlayerName    string    `json:"playerName"`
	HasBet        bool      `json:"hasBet"`
	Prediction    *int      `json:"prediction,omitempty"`
	IsWontComeBet *bool     `json:"isWontComeBet,omitempty"`
	Winnings      *int      `json:"winnings,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type todayBetsResponse struct {
	Bets            []todayBetEntry `json:"bets"`
	ResultsRevealed bool            `json:"resultsRevealed"`
	Game            *gameView       `json:"game"`
}

// TodaysBets lists who has bet this session. Predictions stay hidden until
// the outcome is revealed; admins may peek with ?includeDetails=true.
func (h *BetHandler) TodaysBets(w http.ResponseWriter, r *http.Request) {
	board, err := h.bettingService.TodaysBets()
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	user := GetUserFromContext(r.Context())
	includeDetails := r.URL.Query().Get("includeDetails") == "true" && user != nil && user.IsAdmin()
	showDetails := board.Revealed || includeDetails

	resp := todayBetsResponse{
		Bets:            make([]todayBetEntry, 0, len(board.Bets)),
		ResultsRevealed: board.Revealed,
		Game:            gameViewOf(board.Game),
	}
	for _, b := range board.Bets {
		entry := todayBetEntry{
			PlayerName: b.PlayerName,
			HasBet:     true,
			CreatedAt:  b.CreatedAt,
		}
		if showDetails {
			prediction := b.Prediction
			isWontCome := b.IsWontComeBet
			winnings := b.Winnings
			entry.Prediction = &prediction
			entry.IsWontComeBet = &isWontCome
			entry.Winnings = &winnings
		}
		resp.Bets = append(resp.Bets, entry)
	}
	respondJSON(w, http.StatusOK, resp)
}

type windowResponse struct {
	IsOpen       bool   `json:"isOpen"`
	ClosingLabel string `json:"closingLabel"`
	SessionStart string `json:"sessionStart"`
}

// Window reports whether betting is open and when the session closes.
func (h *BetHandler) Window(w http.ResponseWriter, r *http.Request) {
	win := h.bettingService.Window()
	respondJSON(w, http.StatusOK, windowResponse{
		IsOpen:       win.Open,
		ClosingLabel: win.ClosingLabel,
		SessionStart: win.Start.Format(time.RFC3339),
	})
}

type gameView struct {
	ID         int64     `json:"id"`
	PlayedAt   time.Time `json:"playedAt"`
	ActualTime *int      `json:"actualTime"`
	DidntCome  bool      `json:"didntCome"`
	GameType   string    `json:"gameType"`
	Settled    bool      `json:"settled"`
}

func gameViewOf(game *models.Game) *gameView {
	if game == nil {
		return nil
	}
	return &gameView{
		ID:         game.ID,
		PlayedAt:   game.PlayedAt,
		ActualTime: game.ActualTime,
		DidntCome:  game.DidntCome,
		GameType:   game.GameType,
		Settled:    game.Settled(),
	}
}
