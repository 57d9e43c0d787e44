package repository

import (
	"database/sql"
	"fmt"

	"luckabet/internal/database"
	"luckabet/internal/models"
)

// PlayerRepository handles database operations for betting profiles.
type PlayerRepository struct {
	db *database.DB
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = "id, name, points, games_won, games_lost, total_bet, created_at"

func scanPlayer(row *sql.Row) (*models.Player, error) {
	player := &models.Player{}
	err := row.Scan(
		&player.ID,
		&player.Name,
		&player.Points,
		&player.GamesWon,
		&player.GamesLost,
		&player.TotalBet,
		&player.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return player, nil
}

// GetByName retrieves a player by display name, or nil if absent.
func (r *PlayerRepository) GetByName(q database.DBTX, name string) (*models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE name = ?"
	return scanPlayer(q.QueryRow(query, name))
}

// GetByID retrieves a player by ID, or nil if absent.
func (r *PlayerRepository) GetByID(q database.DBTX, id int64) (*models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE id = ?"
	return scanPlayer(q.QueryRow(query, id))
}

// GetOrCreate resolves a display name to a player, creating one with zeroed
// aggregates if absent. The UNIQUE constraint on name plus the refetch on
// insert failure makes concurrent first-bet races safe: exactly one row ever
// exists per name.
func (r *PlayerRepository) GetOrCreate(q database.DBTX, name string) (*models.Player, error) {
	player, err := r.GetByName(q, name)
	if err != nil {
		return nil, err
	}
	if player != nil {
		return player, nil
	}

	_, insertErr := q.ExecReturningID("INSERT INTO players (name) VALUES (?)", name)
	if insertErr != nil {
		// Lost the race to a concurrent insert; the refetch below settles it.
		player, err = r.GetByName(q, name)
		if err != nil {
			return nil, err
		}
		if player == nil {
			return nil, fmt.Errorf("failed to create player: %w", insertErr)
		}
		return player, nil
	}

	player, err = r.GetByName(q, name)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player vanished after insert: %s", name)
	}
	return player, nil
}

// ApplyAward adds a settlement award to a player's aggregates. Points only
// ever increase; won/lost counters track whether the award was positive.
func (r *PlayerRepository) ApplyAward(q database.DBTX, playerID int64, points int, won bool, betAmount int) error {
	wonInc, lostInc := 0, 1
	if won {
		wonInc, lostInc = 1, 0
	}
	query := `
		UPDATE players
		SET points = points + ?, games_won = games_won + ?, games_lost = games_lost + ?, total_bet = total_bet + ?
		WHERE id = ?
	`
	if _, err := q.Exec(query, points, wonInc, lostInc, betAmount, playerID); err != nil {
		return fmt.Errorf("failed to apply award: %w", err)
	}
	return nil
}

// Leaderboard returns all players not linked to an admin account, ordered by
// points descending.
func (r *PlayerRepository) Leaderboard() ([]models.Player, error) {
	query := `
		SELECT p.id, p.name, p.points, p.games_won, p.games_lost, p.total_bet, p.created_at
		FROM players p
		LEFT JOIN users u ON u.player_id = p.id
		WHERE u.id IS NULL OR u.role <> 'admin'
		ORDER BY p.points DESC, p.name ASC
	`
	return r.queryPlayers(query)
}

// GetAll returns every player.
func (r *PlayerRepository) GetAll() ([]models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players ORDER BY name ASC"
	return r.queryPlayers(query)
}

func (r *PlayerRepository) queryPlayers(query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Points, &p.GamesWon, &p.GamesLost, &p.TotalBet, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
