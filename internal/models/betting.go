package models

import "time"

// Game types. Normal games are bound to the recurring evening-to-morning
// betting window; trip games have no time restriction and stay open until
// explicitly settled.
const (
	GameTypeNormal = "normal"
	GameTypeTrip   = "trip"
)

// Player is a persistent betting profile keyed by display name. Aggregate
// fields are mutated only by settlement and never decremented.
type Player struct {
	ID        int64
	Name      string
	Points    int
	GamesWon  int
	GamesLost int
	TotalBet  int
	CreatedAt time.Time
}

// Game is one betting session. ActualTime stays nil until the outcome is
// revealed; DidntCome marks a session where the subject never arrived. The
// two are mutually exclusive and together encode the settled state.
type Game struct {
	ID         int64
	PlayedAt   time.Time
	ActualTime *int
	DidntCome  bool
	GameType   string
}

// Settled reports whether the game's outcome has been revealed.
func (g *Game) Settled() bool {
	return g.ActualTime != nil || g.DidntCome
}

// IsTrip reports whether the game ignores the betting window.
func (g *Game) IsTrip() bool {
	return g.GameType == GameTypeTrip
}

// Outcome is a revealed game result: either the subject arrived ActualTime
// minutes relative to on-time (negative = early), or did not come at all.
type Outcome struct {
	DidntCome  bool
	ActualTime int
}

// Bet is a single player's prediction for one game. At most one bet exists
// per (player, game); re-placing overwrites it. Winnings is 0 until
// settlement writes the award exactly once.
type Bet struct {
	ID            int64
	PlayerID      int64
	GameID        int64
	Prediction    int
	IsWontComeBet bool
	BetAmount     int
	Winnings      int
	CreatedAt     time.Time
}

// BetWithPlayer joins a bet with its owning player for display reads.
type BetWithPlayer struct {
	Bet
	PlayerName   string
	PlayerPoints int
}

// BetWithGame joins a bet with the game it was placed on, for history and
// statistics projections.
type BetWithGame struct {
	Bet
	Game Game
}

// SettlementResult is the per-bet outcome of settling a game.
type SettlementResult struct {
	PlayerName string `json:"playerName"`
	Prediction int    `json:"prediction"`
	BetAmount  int    `json:"betAmount"`
	Winnings   int    `json:"winnings"`
	NetChange  int    `json:"netChange"`
	NewPoints  int    `json:"newPoints"`
	Difference int    `json:"difference"`
}
