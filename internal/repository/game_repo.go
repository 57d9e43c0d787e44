package repository

import (
	"database/sql"
	"fmt"
	"time"

	"luckabet/internal/database"
	"luckabet/internal/models"
)

// GameRepository handles database operations for betting sessions.
type GameRepository struct {
	db *database.DB
}

// NewGameRepository creates a new game repository.
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = "id, played_at, actual_time, didnt_come, game_type"

func scanGame(row *sql.Row) (*models.Game, error) {
	game := &models.Game{}
	var actualTime sql.NullInt64
	err := row.Scan(&game.ID, &game.PlayedAt, &actualTime, &game.DidntCome, &game.GameType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	if actualTime.Valid {
		v := int(actualTime.Int64)
		game.ActualTime = &v
	}
	return game, nil
}

// FindUnsettled returns the most recent unsettled game that is either inside
// the window starting at since or is a trip game of any age, or nil.
// The one-unsettled-game invariant means at most one row can match per type.
func (r *GameRepository) FindUnsettled(q database.DBTX, since time.Time) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + ` FROM games
		WHERE actual_time IS NULL AND didnt_come = ?
		  AND (played_at >= ? OR game_type = 'trip')
		ORDER BY played_at DESC, id ASC
		LIMIT 1
	`
	return scanGame(q.QueryRow(query, false, since))
}

// FindMostRecentSince returns the newest game created at or after since,
// settled or not, or nil.
func (r *GameRepository) FindMostRecentSince(q database.DBTX, since time.Time) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + ` FROM games
		WHERE played_at >= ?
		ORDER BY played_at DESC
		LIMIT 1
	`
	return scanGame(q.QueryRow(query, since))
}

// GetOrCreateForWindow returns the unsettled game for the window starting at
// since, inserting one of the given type when none exists. The insert is
// guarded inside the statement itself, so two first bets racing on a fresh
// session cannot both create a row even on backends that run concurrent
// writers; the refetch then settles on the single surviving game, mirroring
// PlayerRepository.GetOrCreate. Returns created=false when an existing game
// blocked the insert.
func (r *GameRepository) GetOrCreateForWindow(q database.DBTX, gameType string, playedAt, since time.Time) (*models.Game, bool, error) {
	res, err := q.Exec(`
		INSERT INTO games (played_at, didnt_come, game_type)
		SELECT ?, ?, ?
		FROM (SELECT 1) AS seed
		WHERE NOT EXISTS (
			SELECT 1 FROM games
			WHERE actual_time IS NULL AND didnt_come = ?
			  AND (played_at >= ? OR game_type = 'trip')
		)
	`, playedAt, false, gameType, false, since)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create game: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read game insert result: %w", err)
	}

	game, err := r.FindUnsettled(q, since)
	if err != nil {
		return nil, false, err
	}
	if game == nil {
		return nil, false, fmt.Errorf("game vanished after insert")
	}
	return game, inserted > 0, nil
}

// SetOutcomeIfUnsettled writes the revealed outcome onto a game, but only if
// none has been written yet. Returns false when the game was already
// settled; this guard is what makes settlement idempotent.
func (r *GameRepository) SetOutcomeIfUnsettled(q database.DBTX, gameID int64, outcome models.Outcome) (bool, error) {
	var result sql.Result
	var err error
	if outcome.DidntCome {
		result, err = q.Exec(
			"UPDATE games SET didnt_come = ? WHERE id = ? AND actual_time IS NULL AND didnt_come = ?",
			true, gameID, false,
		)
	} else {
		result, err = q.Exec(
			"UPDATE games SET actual_time = ? WHERE id = ? AND actual_time IS NULL AND didnt_come = ?",
			outcome.ActualTime, gameID, false,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to set game outcome: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read outcome result: %w", err)
	}
	return rows > 0, nil
}

// ListSettled returns all settled games, newest first.
func (r *GameRepository) ListSettled() ([]models.Game, error) {
	query := `
		SELECT ` + gameColumns + ` FROM games
		WHERE actual_time IS NOT NULL OR didnt_come = ?
		ORDER BY played_at DESC
	`
	rows, err := r.db.Query(query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		var actualTime sql.NullInt64
		if err := rows.Scan(&g.ID, &g.PlayedAt, &actualTime, &g.DidntCome, &g.GameType); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		if actualTime.Valid {
			v := int(actualTime.Int64)
			g.ActualTime = &v
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
