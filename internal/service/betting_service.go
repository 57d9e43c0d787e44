package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/coder/quartz"

	"luckabet/internal/database"
	"luckabet/internal/models"
	"luckabet/internal/repository"
	"luckabet/internal/schedule"
)

var (
	// ErrSessionClosed is returned when a bet is placed or removed outside
	// the betting window.
	ErrSessionClosed = errors.New("betting is closed")

	// ErrSessionOpen is returned when an outcome is revealed while bets can
	// still be placed.
	ErrSessionOpen = errors.New("betting is still open")

	// ErrNotFound is returned when a referenced player, game or bet does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrGameExists is returned when a game is created while an unsettled
	// one is still pending.
	ErrGameExists = errors.New("an unsettled game already exists")

	// ErrAlreadySettled is returned when an outcome is revealed for a game
	// that already has one.
	ErrAlreadySettled = errors.New("game already settled")
)

// BettingService implements the bet lifecycle: placing and removing
// predictions while the window is open, and settling the game once the
// outcome is known. All multi-step mutations run inside a single database
// transaction.
type BettingService struct {
	db      *database.DB
	players *repository.PlayerRepository
	games   *repository.GameRepository
	bets    *repository.BetRepository
	clock   quartz.Clock
}

// NewBettingService creates a betting service.
func NewBettingService(db *database.DB, players *repository.PlayerRepository, games *repository.GameRepository, bets *repository.BetRepository, clock quartz.Clock) *BettingService {
	return &BettingService{
		db:      db,
		players: players,
		games:   games,
		bets:    bets,
		clock:   clock,
	}
}

// Window returns the betting window for the current moment.
func (s *BettingService) Window() schedule.Window {
	return schedule.Resolve(s.clock.Now())
}

// currentGame finds the game bets currently attach to: the pending unsettled
// game if there is one (trip games qualify at any age), otherwise the most
// recent game of the window, which may already be settled.
func (s *BettingService) currentGame(q database.DBTX, win schedule.Window) (*models.Game, error) {
	game, err := s.games.FindUnsettled(q, win.Start)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return game, nil
	}
	return s.games.FindMostRecentSince(q, win.Start)
}

// bettingAllowed reports whether bets may be placed or removed right now.
// Trip games stay open until settled regardless of the clock.
func bettingAllowed(game *models.Game, win schedule.Window) bool {
	if game != nil && game.IsTrip() {
		return !game.Settled()
	}
	return win.Open
}

// CurrentGame returns the game of the current window, or nil when none has
// been created yet.
func (s *BettingService) CurrentGame() (*models.Game, error) {
	return s.currentGame(s.db, s.Window())
}

// PlaceBet records a prediction for the named player, creating the player and
// the window's game on first touch. Re-placing overwrites the existing bet
// without ever touching its winnings.
func (s *BettingService) PlaceBet(playerName string, prediction int, isWontComeBet bool, betAmount int) (*models.Bet, error) {
	now := s.clock.Now()
	win := schedule.Resolve(now)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	game, err := s.currentGame(tx, win)
	if err != nil {
		return nil, err
	}
	if !bettingAllowed(game, win) {
		return nil, ErrSessionClosed
	}
	if game == nil {
		game, _, err = s.games.GetOrCreateForWindow(tx, models.GameTypeNormal, now, win.Start)
		if err != nil {
			return nil, err
		}
	}

	player, err := s.players.GetOrCreate(tx, playerName)
	if err != nil {
		return nil, err
	}

	bet, err := s.bets.Upsert(tx, player.ID, game.ID, prediction, isWontComeBet, betAmount, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bet, nil
}

// RemoveBet withdraws the named player's bet on the current game. Removing
// after the window closes, or when no bet exists, is an error.
func (s *BettingService) RemoveBet(playerName string) error {
	win := s.Window()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	game, err := s.currentGame(tx, win)
	if err != nil {
		return err
	}
	if !bettingAllowed(game, win) {
		return ErrSessionClosed
	}
	if game == nil {
		return ErrNotFound
	}

	player, err := s.players.GetByName(tx, playerName)
	if err != nil {
		return err
	}
	if player == nil {
		return ErrNotFound
	}

	bet, err := s.bets.GetByPlayerAndGame(tx, player.ID, game.ID)
	if err != nil {
		return err
	}
	if bet == nil {
		return ErrNotFound
	}

	if err := s.bets.Delete(tx, bet.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// MyBet returns the named player's bet on the current game, or nil when the
// player has not bet this session.
func (s *BettingService) MyBet(playerName string) (*models.Bet, error) {
	win := s.Window()

	player, err := s.players.GetByName(s.db, playerName)
	if err != nil || player == nil {
		return nil, err
	}

	game, err := s.currentGame(s.db, win)
	if err != nil || game == nil {
		return nil, err
	}
	return s.bets.GetByPlayerAndGame(s.db, player.ID, game.ID)
}

// TodayBoard is the shared view of the current session's bets. Predictions
// stay hidden from regular users until the outcome is revealed.
type TodayBoard struct {
	Game     *models.Game
	Bets     []models.BetWithPlayer
	Revealed bool
}

// TodaysBets returns every bet on the current game together with whether the
// results have been revealed. Callers decide, based on Revealed and their own
// privileges, how much of each bet to expose.
func (s *BettingService) TodaysBets() (*TodayBoard, error) {
	win := s.Window()

	game, err := s.currentGame(s.db, win)
	if err != nil {
		return nil, err
	}
	board := &TodayBoard{Game: game}
	if game == nil {
		return board, nil
	}

	board.Revealed = game.Settled()
	board.Bets, err = s.bets.ListByGame(s.db, game.ID)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// CreateGame explicitly opens a game of the given type. Normal games are
// usually created implicitly by the first bet; trip games must be opened this
// way since they ignore the window. Fails while an unsettled game is pending.
func (s *BettingService) CreateGame(gameType string) (*models.Game, error) {
	now := s.clock.Now()
	win := schedule.Resolve(now)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	game, created, err := s.games.GetOrCreateForWindow(tx, gameType, now, win.Start)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrGameExists
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return game, nil
}

// Settle reveals the outcome of the pending game and pays out every bet on
// it exactly once. The per-bet results come back sorted by winnings, highest
// first. Settling a normal game while its window is still open is rejected;
// settling an already settled game is rejected without side effects.
func (s *BettingService) Settle(outcome models.Outcome) ([]models.SettlementResult, *models.Game, error) {
	now := s.clock.Now()
	win := schedule.Resolve(now)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	game, err := s.games.FindUnsettled(tx, win.Start)
	if err != nil {
		return nil, nil, err
	}
	if game == nil {
		recent, err := s.games.FindMostRecentSince(tx, win.Start)
		if err != nil {
			return nil, nil, err
		}
		if recent != nil {
			return nil, nil, ErrAlreadySettled
		}
		// Nothing was created this session; open a game just to carry
		// the outcome so history stays complete.
		game, _, err = s.games.GetOrCreateForWindow(tx, models.GameTypeNormal, now, win.Start)
		if err != nil {
			return nil, nil, err
		}
	}
	if !game.IsTrip() && win.Open {
		return nil, nil, ErrSessionOpen
	}

	settled, err := s.games.SetOutcomeIfUnsettled(tx, game.ID, outcome)
	if err != nil {
		return nil, nil, err
	}
	if !settled {
		return nil, nil, ErrAlreadySettled
	}

	gameBets, err := s.bets.ListByGame(tx, game.ID)
	if err != nil {
		return nil, nil, err
	}

	results := make([]models.SettlementResult, 0, len(gameBets))
	for _, bet := range gameBets {
		earned := awardForOutcome(bet.Prediction, bet.IsWontComeBet, outcome)
		if err := s.bets.SetWinnings(tx, bet.ID, earned); err != nil {
			return nil, nil, err
		}
		if err := s.players.ApplyAward(tx, bet.PlayerID, earned, earned > 0, bet.BetAmount); err != nil {
			return nil, nil, err
		}

		difference := 0
		if !outcome.DidntCome {
			difference = absInt(bet.Prediction - outcome.ActualTime)
		}
		results = append(results, models.SettlementResult{
			PlayerName: bet.PlayerName,
			Prediction: bet.Prediction,
			BetAmount:  bet.BetAmount,
			Winnings:   earned,
			NetChange:  earned,
			NewPoints:  bet.PlayerPoints + earned,
			Difference: difference,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Winnings > results[j].Winnings
	})

	if outcome.DidntCome {
		game.DidntCome = true
	} else {
		t := outcome.ActualTime
		game.ActualTime = &t
	}
	return results, game, nil
}

// Leaderboard returns all players visible on the public standings, ordered by
// points. Players linked to admin accounts are excluded.
func (s *BettingService) Leaderboard() ([]models.Player, error) {
	return s.players.Leaderboard()
}

// Players returns every player, including ones hidden from the leaderboard.
func (s *BettingService) Players() ([]models.Player, error) {
	return s.players.GetAll()
}
