package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"luckabet/internal/repository"
	"luckabet/internal/service"
)

// AdminHandler serves the user administration endpoints.
type AdminHandler struct {
	userRepo       *repository.UserRepository
	bettingService *service.BettingService
	log            zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(userRepo *repository.UserRepository, bettingService *service.BettingService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, bettingService: bettingService, log: log}
}

type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	Role      string    `json:"role"`
	PlayerID  *int64    `json:"playerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListUsers returns every account, newest first.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			PlayerID:  u.PlayerID,
			CreatedAt: u.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

// DeleteUser removes an account. The caller cannot delete itself; that
// would orphan the session making the request.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid user id")
		return
	}

	caller := GetUserFromContext(r.Context())
	if caller != nil && caller.ID == id {
		badRequest(w, "cannot delete your own account")
		return
	}

	user, err := h.userRepo.GetUserByID(id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if user == nil {
		respondError(w, h.log, service.ErrNotFound)
		return
	}

	if err := h.userRepo.DeleteUser(id); err != nil {
		respondError(w, h.log, err)
		return
	}
	h.log.Info().Int64("user_id", id).Str("username", user.Username).Msg("user deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type playerView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	GamesWon  int       `json:"gamesWon"`
	GamesLost int       `json:"gamesLost"`
	TotalBet  int       `json:"totalBet"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListPlayers returns every player profile, including those hidden from the
// public leaderboard.
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.bettingService.Players()
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	out := make([]playerView, 0, len(players))
	for _, p := range players {
		out = append(out, playerView{
			ID:        p.ID,
			Name:      p.Name,
			Points:    p.Points,
			GamesWon:  p.GamesWon,
			GamesLost: p.GamesLost,
			TotalBet:  p.TotalBet,
			CreatedAt: p.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"players": out})
}
