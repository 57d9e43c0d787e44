package service

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckabet/internal/models"
	"luckabet/internal/repository"
)

// playSession places the given bets one evening and settles them at noon the
// next day, which is past the cutoff on every weekday including Fridays.
// day 0 is the openEvening session.
func playSession(t *testing.T, svc *BettingService, clock *quartz.Mock, day int, outcome models.Outcome, bets map[string]int) {
	t.Helper()
	clock.Set(openEvening.AddDate(0, 0, day))
	for name, prediction := range bets {
		_, err := svc.PlaceBet(name, prediction, false, 10)
		require.NoError(t, err)
	}
	noon := openEvening.AddDate(0, 0, day+1)
	clock.Set(time.Date(noon.Year(), noon.Month(), noon.Day(), 12, 0, 0, 0, time.UTC))
	_, _, err := svc.Settle(outcome)
	require.NoError(t, err)
}

func TestPlayerStats(t *testing.T) {
	svc, clock, db := newBettingService(t)
	stats := NewStatsService(db,
		repository.NewPlayerRepository(db),
		repository.NewGameRepository(db),
		repository.NewBetRepository(db),
	)

	playSession(t, svc, clock, 0, models.Outcome{ActualTime: 10}, map[string]int{"alice": 10, "bob": 30})
	playSession(t, svc, clock, 1, models.Outcome{ActualTime: 20}, map[string]int{"alice": 25, "bob": 20})
	playSession(t, svc, clock, 2, models.Outcome{DidntCome: true}, map[string]int{"alice": 5})

	ps, err := stats.PlayerStats("alice")
	require.NoError(t, err)

	assert.Equal(t, 3, ps.TotalGames)
	assert.Equal(t, 2, ps.GamesWon)
	assert.Equal(t, 1, ps.GamesLost)
	assert.Equal(t, 15, ps.TotalPointsEarned) // 10 + 5 + 0
	assert.InDelta(t, 66.7, ps.WinRate, 0.1)
	// Accuracy over the two numeric games she showed up to: (0 + 5) / 2.
	assert.InDelta(t, 2.5, ps.AvgAccuracy, 0.01)

	require.NotNil(t, ps.BestPrediction)
	assert.Equal(t, 10, ps.BestPrediction.Prediction)
	assert.Equal(t, 0, ps.BestPrediction.Difference)

	// Newest settled bet earned nothing, so the streak is one loss.
	assert.Equal(t, "loss", ps.CurrentStreak.Type)
	assert.Equal(t, 1, ps.CurrentStreak.Count)

	require.Len(t, ps.RecentGames, 3)
	assert.True(t, ps.RecentGames[0].DidntCome)
	assert.Nil(t, ps.RecentGames[0].Difference)

	require.Len(t, ps.MonthlyPerformance, 1)
	assert.Equal(t, "Mar 2025", ps.MonthlyPerformance[0].Month)
	assert.Equal(t, 3, ps.MonthlyPerformance[0].Games)

	_, err = stats.PlayerStats("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGlobalStats(t *testing.T) {
	svc, clock, db := newBettingService(t)
	stats := NewStatsService(db,
		repository.NewPlayerRepository(db),
		repository.NewGameRepository(db),
		repository.NewBetRepository(db),
	)

	empty, err := stats.GlobalStats()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalGames)
	assert.Nil(t, empty.AverageActualTime)

	playSession(t, svc, clock, 0, models.Outcome{ActualTime: 10}, map[string]int{"alice": 10, "bob": 30})
	playSession(t, svc, clock, 1, models.Outcome{ActualTime: 20}, map[string]int{"alice": 10, "bob": 20})
	playSession(t, svc, clock, 2, models.Outcome{DidntCome: true}, map[string]int{"alice": 10})
	playSession(t, svc, clock, 3, models.Outcome{ActualTime: 30}, map[string]int{"alice": 32, "bob": 50})

	gs, err := stats.GlobalStats()
	require.NoError(t, err)

	assert.Equal(t, 4, gs.TotalGames)
	assert.Equal(t, 7, gs.TotalBets)
	assert.Equal(t, 2, gs.TotalPlayers)
	assert.Equal(t, 1, gs.DidntComeCount)
	assert.InDelta(t, 25.0, gs.DidntComePercentage, 0.01)

	// She showed up three times: 10, 20, 30 minutes late.
	require.NotNil(t, gs.AverageActualTime)
	assert.InDelta(t, 20.0, *gs.AverageActualTime, 0.01)

	// Alice bet four times on games she attended three of; her average
	// error (0+10+2)/3 beats bob's (20+0+20)/3.
	require.NotNil(t, gs.MostAccuratePlayer)
	assert.Equal(t, "alice", gs.MostAccuratePlayer.Name)
	assert.Equal(t, 3, gs.MostAccuratePlayer.TotalBets)

	// 10 appears three times once rounded to the nearest 5.
	require.NotNil(t, gs.MostCommonPrediction)
	assert.Equal(t, 10, *gs.MostCommonPrediction)

	assert.NotEmpty(t, gs.PredictionHistogram)
	assert.NotEmpty(t, gs.ActualTimeHistogram)
}

func TestHistory(t *testing.T) {
	svc, clock, db := newBettingService(t)
	stats := NewStatsService(db,
		repository.NewPlayerRepository(db),
		repository.NewGameRepository(db),
		repository.NewBetRepository(db),
	)

	playSession(t, svc, clock, 0, models.Outcome{ActualTime: 10}, map[string]int{"alice": 10, "bob": 30})
	playSession(t, svc, clock, 1, models.Outcome{DidntCome: true}, map[string]int{"alice": 5})

	history, err := stats.History(0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first: the didnt-come game, nobody won it.
	assert.True(t, history[0].DidntCome)
	assert.Nil(t, history[0].Winner)
	require.Len(t, history[0].Bets, 1)
	assert.Nil(t, history[0].Bets[0].Difference)

	// The numeric game lists winners first.
	require.NotNil(t, history[1].Winner)
	assert.Equal(t, "alice", *history[1].Winner)
	require.Len(t, history[1].Bets, 2)
	assert.Equal(t, "alice", history[1].Bets[0].PlayerName)
	assert.Equal(t, 10, history[1].Bets[0].Winnings)

	limited, err := stats.History(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
