package repository

import (
	"database/sql"
	"fmt"
	"time"

	"luckabet/internal/database"
	"luckabet/internal/models"
)

// BetRepository handles database operations for bets.
type BetRepository struct {
	db *database.DB
}

// NewBetRepository creates a new bet repository.
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{db: db}
}

const betColumns = "id, player_id, game_id, prediction, is_wont_come_bet, bet_amount, winnings, created_at"

func scanBet(row *sql.Row) (*models.Bet, error) {
	bet := &models.Bet{}
	err := row.Scan(
		&bet.ID,
		&bet.PlayerID,
		&bet.GameID,
		&bet.Prediction,
		&bet.IsWontComeBet,
		&bet.BetAmount,
		&bet.Winnings,
		&bet.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bet: %w", err)
	}
	return bet, nil
}

// GetByPlayerAndGame retrieves the player's bet on a game, or nil.
func (r *BetRepository) GetByPlayerAndGame(q database.DBTX, playerID, gameID int64) (*models.Bet, error) {
	query := "SELECT " + betColumns + " FROM bets WHERE player_id = ? AND game_id = ?"
	return scanBet(q.QueryRow(query, playerID, gameID))
}

// Upsert inserts the player's bet on a game or overwrites the prediction
// fields of an existing one. Winnings are untouched on update; settlement is
// the only writer of that column.
func (r *BetRepository) Upsert(q database.DBTX, playerID, gameID int64, prediction int, isWontComeBet bool, betAmount int, placedAt time.Time) (*models.Bet, error) {
	existing, err := r.GetByPlayerAndGame(q, playerID, gameID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		_, err := q.Exec(
			"UPDATE bets SET prediction = ?, is_wont_come_bet = ?, bet_amount = ? WHERE id = ?",
			prediction, isWontComeBet, betAmount, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update bet: %w", err)
		}
		existing.Prediction = prediction
		existing.IsWontComeBet = isWontComeBet
		existing.BetAmount = betAmount
		return existing, nil
	}

	id, err := q.ExecReturningID(
		"INSERT INTO bets (player_id, game_id, prediction, is_wont_come_bet, bet_amount, winnings, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)",
		playerID, gameID, prediction, isWontComeBet, betAmount, placedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	return &models.Bet{
		ID:            id,
		PlayerID:      playerID,
		GameID:        gameID,
		Prediction:    prediction,
		IsWontComeBet: isWontComeBet,
		BetAmount:     betAmount,
		CreatedAt:     placedAt,
	}, nil
}

// Delete removes a bet by ID.
func (r *BetRepository) Delete(q database.DBTX, id int64) error {
	if _, err := q.Exec("DELETE FROM bets WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete bet: %w", err)
	}
	return nil
}

// SetWinnings writes a bet's settlement award.
func (r *BetRepository) SetWinnings(q database.DBTX, betID int64, winnings int) error {
	if _, err := q.Exec("UPDATE bets SET winnings = ? WHERE id = ?", winnings, betID); err != nil {
		return fmt.Errorf("failed to set winnings: %w", err)
	}
	return nil
}

// ListByGame returns all bets on a game with player info, in placement order.
func (r *BetRepository) ListByGame(q database.DBTX, gameID int64) ([]models.BetWithPlayer, error) {
	query := `
		SELECT b.id, b.player_id, b.game_id, b.prediction, b.is_wont_come_bet, b.bet_amount, b.winnings, b.created_at,
		       p.name, p.points
		FROM bets b
		JOIN players p ON p.id = b.player_id
		WHERE b.game_id = ?
		ORDER BY b.created_at ASC, b.id ASC
	`
	return queryBetsWithPlayer(q, query, gameID)
}

// ListByGameByWinnings returns all bets on a game with player info, highest
// winnings first. Used for the history view of settled games.
func (r *BetRepository) ListByGameByWinnings(q database.DBTX, gameID int64) ([]models.BetWithPlayer, error) {
	query := `
		SELECT b.id, b.player_id, b.game_id, b.prediction, b.is_wont_come_bet, b.bet_amount, b.winnings, b.created_at,
		       p.name, p.points
		FROM bets b
		JOIN players p ON p.id = b.player_id
		WHERE b.game_id = ?
		ORDER BY b.winnings DESC, b.id ASC
	`
	return queryBetsWithPlayer(q, query, gameID)
}

func queryBetsWithPlayer(q database.DBTX, query string, args ...interface{}) ([]models.BetWithPlayer, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	var bets []models.BetWithPlayer
	for rows.Next() {
		var b models.BetWithPlayer
		if err := rows.Scan(
			&b.ID, &b.PlayerID, &b.GameID, &b.Prediction, &b.IsWontComeBet,
			&b.BetAmount, &b.Winnings, &b.CreatedAt,
			&b.PlayerName, &b.PlayerPoints,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// ListByPlayerWithGames returns a player's bets joined with their games,
// newest first. Used by the statistics projections.
func (r *BetRepository) ListByPlayerWithGames(playerID int64) ([]models.BetWithGame, error) {
	query := `
		SELECT b.id, b.player_id, b.game_id, b.prediction, b.is_wont_come_bet, b.bet_amount, b.winnings, b.created_at,
		       g.id, g.played_at, g.actual_time, g.didnt_come, g.game_type
		FROM bets b
		JOIN games g ON g.id = b.game_id
		WHERE b.player_id = ?
		ORDER BY b.created_at DESC, b.id DESC
	`
	rows, err := r.db.Query(query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	var bets []models.BetWithGame
	for rows.Next() {
		var b models.BetWithGame
		var actualTime sql.NullInt64
		if err := rows.Scan(
			&b.ID, &b.PlayerID, &b.GameID, &b.Prediction, &b.IsWontComeBet,
			&b.BetAmount, &b.Winnings, &b.CreatedAt,
			&b.Game.ID, &b.Game.PlayedAt, &actualTime, &b.Game.DidntCome, &b.Game.GameType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		if actualTime.Valid {
			v := int(actualTime.Int64)
			b.Game.ActualTime = &v
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
