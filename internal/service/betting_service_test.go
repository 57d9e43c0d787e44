package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckabet/internal/database"
	"luckabet/internal/models"
	"luckabet/internal/repository"
)

// Wednesday evening, well inside the betting window.
var openEvening = time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC)

// Thursday morning after the 08:20 cutoff of the same session.
var closedMorning = time.Date(2025, 3, 13, 8, 25, 0, 0, time.UTC)

func newBettingService(t *testing.T) (*BettingService, *quartz.Mock, *database.DB) {
	t.Helper()

	db, err := database.Open(database.Options{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "luckabet_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	clock := quartz.NewMock(t)
	svc := NewBettingService(
		db,
		repository.NewPlayerRepository(db),
		repository.NewGameRepository(db),
		repository.NewBetRepository(db),
		clock,
	)
	return svc, clock, db
}

func TestPlaceBetCreatesPlayerAndGame(t *testing.T) {
	svc, clock, db := newBettingService(t)
	clock.Set(openEvening)

	bet, err := svc.PlaceBet("alice", 15, false, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, bet.Prediction)
	assert.False(t, bet.IsWontComeBet)

	game, err := svc.CurrentGame()
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.False(t, game.Settled())
	assert.Equal(t, models.GameTypeNormal, game.GameType)

	player, err := repository.NewPlayerRepository(db).GetByName(db, "alice")
	require.NoError(t, err)
	require.NotNil(t, player)
	assert.Equal(t, 0, player.Points)
}

func TestPlaceBetRejectedWhenClosed(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(closedMorning)

	_, err := svc.PlaceBet("alice", 15, false, 10)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPlaceBetOverwritesExisting(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	first, err := svc.PlaceBet("alice", 15, false, 10)
	require.NoError(t, err)

	second, err := svc.PlaceBet("alice", 30, true, 20)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-placing must overwrite, not duplicate")
	assert.Equal(t, 30, second.Prediction)
	assert.True(t, second.IsWontComeBet)

	board, err := svc.TodaysBets()
	require.NoError(t, err)
	require.Len(t, board.Bets, 1)
	assert.Equal(t, 30, board.Bets[0].Prediction)
}

func TestRemoveBetThenPlaceAgain(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 15, false, 10)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveBet("alice"))

	bet, err := svc.MyBet("alice")
	require.NoError(t, err)
	assert.Nil(t, bet)

	_, err = svc.PlaceBet("alice", 20, false, 10)
	require.NoError(t, err)

	board, err := svc.TodaysBets()
	require.NoError(t, err)
	require.Len(t, board.Bets, 1)
	assert.Equal(t, 20, board.Bets[0].Prediction)
}

func TestRemoveBetErrors(t *testing.T) {
	svc, clock, _ := newBettingService(t)

	clock.Set(openEvening)
	assert.ErrorIs(t, svc.RemoveBet("alice"), ErrNotFound)

	_, err := svc.PlaceBet("alice", 15, false, 10)
	require.NoError(t, err)

	clock.Set(closedMorning)
	assert.ErrorIs(t, svc.RemoveBet("alice"), ErrSessionClosed)
}

func TestSettleAwardsByAccuracy(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 7, false, 10)
	require.NoError(t, err)
	_, err = svc.PlaceBet("bob", 15, false, 10)
	require.NoError(t, err)
	_, err = svc.PlaceBet("carol", 0, true, 10)
	require.NoError(t, err)

	clock.Set(closedMorning)
	results, game, err := svc.Settle(models.Outcome{ActualTime: 7})
	require.NoError(t, err)
	require.NotNil(t, game.ActualTime)
	assert.Equal(t, 7, *game.ActualTime)

	require.Len(t, results, 3)
	// Sorted by winnings, highest first.
	assert.Equal(t, "alice", results[0].PlayerName)
	assert.Equal(t, 10, results[0].Winnings)
	assert.Equal(t, 0, results[0].Difference)
	assert.Equal(t, "bob", results[1].PlayerName)
	assert.Equal(t, 2, results[1].Winnings)
	assert.Equal(t, "carol", results[2].PlayerName)
	assert.Equal(t, 0, results[2].Winnings)

	standings, err := svc.Leaderboard()
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, "alice", standings[0].Name)
	assert.Equal(t, 10, standings[0].Points)
	assert.Equal(t, 1, standings[0].GamesWon)
	assert.Equal(t, 0, standings[0].GamesLost)
	assert.Equal(t, "carol", standings[2].Name)
	assert.Equal(t, 0, standings[2].Points)
	assert.Equal(t, 1, standings[2].GamesLost)
}

func TestSettleDidntCome(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 7, false, 10)
	require.NoError(t, err)
	_, err = svc.PlaceBet("carol", 0, true, 10)
	require.NoError(t, err)

	clock.Set(closedMorning)
	results, game, err := svc.Settle(models.Outcome{DidntCome: true})
	require.NoError(t, err)
	assert.True(t, game.DidntCome)

	require.Len(t, results, 2)
	assert.Equal(t, "carol", results[0].PlayerName)
	assert.Equal(t, 15, results[0].Winnings)
	assert.Equal(t, "alice", results[1].PlayerName)
	assert.Equal(t, 0, results[1].Winnings)
}

func TestSettleIsIdempotent(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 7, false, 10)
	require.NoError(t, err)

	clock.Set(closedMorning)
	_, _, err = svc.Settle(models.Outcome{ActualTime: 7})
	require.NoError(t, err)

	_, _, err = svc.Settle(models.Outcome{ActualTime: 20})
	assert.ErrorIs(t, err, ErrAlreadySettled)

	standings, err := svc.Leaderboard()
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 10, standings[0].Points, "second settle must not double-pay")
	assert.Equal(t, 1, standings[0].GamesWon)
}

func TestSettleRejectedWhileOpen(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 7, false, 10)
	require.NoError(t, err)

	_, _, err = svc.Settle(models.Outcome{ActualTime: 7})
	assert.ErrorIs(t, err, ErrSessionOpen)
}

func TestLastMinuteBetBeforeCutoff(t *testing.T) {
	svc, clock, _ := newBettingService(t)

	clock.Set(openEvening)
	_, err := svc.PlaceBet("alice", 9, false, 10)
	require.NoError(t, err)

	// 08:15 the next morning is still inside the window.
	clock.Set(time.Date(2025, 3, 13, 8, 15, 0, 0, time.UTC))
	_, err = svc.PlaceBet("alice", 9, false, 10)
	require.NoError(t, err)

	clock.Set(closedMorning)
	results, _, err := svc.Settle(models.Outcome{ActualTime: 7})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 8, results[0].Winnings)
}

func TestCreateGameConflicts(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.CreateGame(models.GameTypeNormal)
	require.NoError(t, err)

	_, err = svc.CreateGame(models.GameTypeNormal)
	assert.ErrorIs(t, err, ErrGameExists)
	_, err = svc.CreateGame(models.GameTypeTrip)
	assert.ErrorIs(t, err, ErrGameExists)
}

func TestTripGameIgnoresWindow(t *testing.T) {
	svc, clock, _ := newBettingService(t)

	// Created outside the normal window.
	clock.Set(closedMorning)
	game, err := svc.CreateGame(models.GameTypeTrip)
	require.NoError(t, err)
	assert.True(t, game.IsTrip())

	// Betting works at midday, days later.
	clock.Set(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))
	_, err = svc.PlaceBet("alice", 45, false, 10)
	require.NoError(t, err)

	// Settling works even though a fresh window would be open.
	clock.Set(time.Date(2025, 3, 15, 19, 0, 0, 0, time.UTC))
	results, _, err := svc.Settle(models.Outcome{ActualTime: 45})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].Winnings)
}

func TestTodaysBetsRevealed(t *testing.T) {
	svc, clock, _ := newBettingService(t)
	clock.Set(openEvening)

	_, err := svc.PlaceBet("alice", 7, false, 10)
	require.NoError(t, err)

	board, err := svc.TodaysBets()
	require.NoError(t, err)
	assert.False(t, board.Revealed)

	clock.Set(closedMorning)
	_, _, err = svc.Settle(models.Outcome{ActualTime: 7})
	require.NoError(t, err)

	board, err = svc.TodaysBets()
	require.NoError(t, err)
	assert.True(t, board.Revealed)
	require.Len(t, board.Bets, 1)
	assert.Equal(t, 10, board.Bets[0].Winnings)
}
