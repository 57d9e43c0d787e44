package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckabet/internal/database"
	"luckabet/internal/models"
)

func newGameRepo(t *testing.T) (*GameRepository, *database.DB) {
	t.Helper()

	db, err := database.Open(database.Options{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "luckabet_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	return NewGameRepository(db), db
}

func TestGetOrCreateForWindowIsGuarded(t *testing.T) {
	repo, db := newGameRepo(t)

	start := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)
	placed := start.Add(2 * time.Hour)

	first, created, err := repo.GetOrCreateForWindow(db, models.GameTypeNormal, placed, start)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	// A second create for the same window lands on the existing row; the
	// guarded insert refuses to add a duplicate.
	second, created, err := repo.GetOrCreateForWindow(db, models.GameTypeNormal, placed.Add(time.Minute), start)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM games").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetOrCreateForWindowAfterSettlement(t *testing.T) {
	repo, db := newGameRepo(t)

	start := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)
	game, created, err := repo.GetOrCreateForWindow(db, models.GameTypeNormal, start.Add(time.Hour), start)
	require.NoError(t, err)
	require.True(t, created)

	settled, err := repo.SetOutcomeIfUnsettled(db, game.ID, models.Outcome{ActualTime: 10})
	require.NoError(t, err)
	require.True(t, settled)

	// Once the outcome is written the window can open a fresh game.
	next, created, err := repo.GetOrCreateForWindow(db, models.GameTypeNormal, start.Add(2*time.Hour), start)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, game.ID, next.ID)
}

func TestGetOrCreateForWindowBlockedByTrip(t *testing.T) {
	repo, db := newGameRepo(t)

	// A trip opened days before the window still counts as the pending game.
	tripStart := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	trip, created, err := repo.GetOrCreateForWindow(db, models.GameTypeTrip, tripStart, tripStart)
	require.NoError(t, err)
	require.True(t, created)

	windowStart := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)
	game, created, err := repo.GetOrCreateForWindow(db, models.GameTypeNormal, windowStart.Add(time.Hour), windowStart)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, trip.ID, game.ID)
}
