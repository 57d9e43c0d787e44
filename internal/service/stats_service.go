package service

import (
	"math"
	"time"

	"luckabet/internal/database"
	"luckabet/internal/models"
	"luckabet/internal/repository"
)

// StatsService builds the read-only statistics and history projections. All
// numbers are computed over settled games only; a pending game contributes
// nothing until its outcome is revealed.
type StatsService struct {
	db      *database.DB
	players *repository.PlayerRepository
	games   *repository.GameRepository
	bets    *repository.BetRepository
}

// NewStatsService creates a stats service.
func NewStatsService(db *database.DB, players *repository.PlayerRepository, games *repository.GameRepository, bets *repository.BetRepository) *StatsService {
	return &StatsService{db: db, players: players, games: games, bets: bets}
}

// BestPrediction is a player's closest call so far.
type BestPrediction struct {
	Prediction int       `json:"prediction"`
	ActualTime int       `json:"actualTime"`
	Difference int       `json:"difference"`
	Date       time.Time `json:"date"`
	Winnings   int       `json:"winnings"`
}

// Streak is a run of consecutive wins or losses, newest game first.
type Streak struct {
	Type  string `json:"type"` // "win", "loss" or "none"
	Count int    `json:"count"`
}

// RecentGame is one settled bet in a player's recent history.
type RecentGame struct {
	ID            int64     `json:"id"`
	Prediction    int       `json:"prediction"`
	ActualTime    *int      `json:"actualTime"`
	DidntCome     bool      `json:"didntCome"`
	IsWontComeBet bool      `json:"isWontComeBet"`
	Winnings      int       `json:"winnings"`
	Difference    *int      `json:"difference"`
	Date          time.Time `json:"date"`
	GameDate      time.Time `json:"gameDate"`
}

// MonthlyPerformance aggregates a player's settled bets by calendar month.
type MonthlyPerformance struct {
	Month   string  `json:"month"`
	Games   int     `json:"games"`
	Points  int     `json:"points"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// PlayerSummary is the aggregate header of a player's statistics view.
type PlayerSummary struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	GamesWon  int    `json:"gamesWon"`
	GamesLost int    `json:"gamesLost"`
}

// PlayerStats is the full statistics view for one player.
type PlayerStats struct {
	Player             PlayerSummary        `json:"player"`
	TotalGames         int                  `json:"totalGames"`
	GamesWon           int                  `json:"gamesWon"`
	GamesLost          int                  `json:"gamesLost"`
	WinRate            float64              `json:"winRate"`
	TotalPointsEarned  int                  `json:"totalPointsEarned"`
	AvgAccuracy        float64              `json:"avgAccuracy"`
	BestPrediction     *BestPrediction      `json:"bestPrediction"`
	CurrentStreak      Streak               `json:"currentStreak"`
	RecentGames        []RecentGame         `json:"recentGames"`
	MonthlyPerformance []MonthlyPerformance `json:"monthlyPerformance"`
}

// PlayerStats computes statistics for the named player over every settled
// game they bet on. Returns ErrNotFound for an unknown player.
func (s *StatsService) PlayerStats(playerName string) (*PlayerStats, error) {
	player, err := s.players.GetByName(s.db, playerName)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, ErrNotFound
	}

	all, err := s.bets.ListByPlayerWithGames(player.ID)
	if err != nil {
		return nil, err
	}

	// Newest first, settled games only.
	var settled []models.BetWithGame
	for _, b := range all {
		if b.Game.Settled() {
			settled = append(settled, b)
		}
	}

	stats := &PlayerStats{
		Player: PlayerSummary{
			Name:      player.Name,
			Points:    player.Points,
			GamesWon:  player.GamesWon,
			GamesLost: player.GamesLost,
		},
		TotalGames:  len(settled),
		RecentGames: []RecentGame{},
	}

	// Numeric bets on games she actually showed up to drive the accuracy
	// figures; wont-come bets carry no distance.
	var totalDifference, accuracyCount int
	bestDifference := math.MaxInt

	for _, b := range settled {
		stats.TotalPointsEarned += b.Winnings
		if b.Winnings > 0 {
			stats.GamesWon++
		} else {
			stats.GamesLost++
		}

		if b.IsWontComeBet || b.Game.DidntCome || b.Game.ActualTime == nil {
			continue
		}
		diff := absInt(b.Prediction - *b.Game.ActualTime)
		totalDifference += diff
		accuracyCount++
		if diff < bestDifference {
			bestDifference = diff
			stats.BestPrediction = &BestPrediction{
				Prediction: b.Prediction,
				ActualTime: *b.Game.ActualTime,
				Difference: diff,
				Date:       b.CreatedAt,
				Winnings:   b.Winnings,
			}
		}
	}

	if stats.TotalGames > 0 {
		stats.WinRate = float64(stats.GamesWon) / float64(stats.TotalGames) * 100
	}
	if accuracyCount > 0 {
		stats.AvgAccuracy = roundTenth(float64(totalDifference) / float64(accuracyCount))
	}
	stats.CurrentStreak = currentStreak(settled)

	for i, b := range settled {
		if i == 10 {
			break
		}
		rg := RecentGame{
			ID:            b.ID,
			Prediction:    b.Prediction,
			ActualTime:    b.Game.ActualTime,
			DidntCome:     b.Game.DidntCome,
			IsWontComeBet: b.IsWontComeBet,
			Winnings:      b.Winnings,
			Date:          b.CreatedAt,
			GameDate:      b.Game.PlayedAt,
		}
		if !b.Game.DidntCome && b.Game.ActualTime != nil {
			d := absInt(b.Prediction - *b.Game.ActualTime)
			rg.Difference = &d
		}
		stats.RecentGames = append(stats.RecentGames, rg)
	}

	stats.MonthlyPerformance = monthlyPerformance(settled)
	return stats, nil
}

// currentStreak counts how many of the newest settled bets in a row share
// the same win/loss result.
func currentStreak(settled []models.BetWithGame) Streak {
	if len(settled) == 0 {
		return Streak{Type: "none"}
	}

	winning := settled[0].Winnings > 0
	streak := Streak{Type: "loss"}
	if winning {
		streak.Type = "win"
	}
	for _, b := range settled {
		if (b.Winnings > 0) != winning {
			break
		}
		streak.Count++
	}
	return streak
}

// monthlyPerformance buckets settled bets by month, oldest month first.
func monthlyPerformance(settled []models.BetWithGame) []MonthlyPerformance {
	type bucket struct {
		games, points, wins int
	}
	buckets := make(map[string]*bucket)
	var order []string

	// settled is newest first; walk it as-is and reverse the months at
	// the end so the chart reads left to right.
	for _, b := range settled {
		month := b.CreatedAt.Format("Jan 2006")
		bk, ok := buckets[month]
		if !ok {
			bk = &bucket{}
			buckets[month] = bk
			order = append(order, month)
		}
		bk.games++
		bk.points += b.Winnings
		if b.Winnings > 0 {
			bk.wins++
		}
	}

	perf := make([]MonthlyPerformance, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		month := order[i]
		bk := buckets[month]
		perf = append(perf, MonthlyPerformance{
			Month:   month,
			Games:   bk.games,
			Points:  bk.points,
			Wins:    bk.wins,
			WinRate: float64(bk.wins) / float64(bk.games) * 100,
		})
	}
	return perf
}

// DistributionBucket is one labelled range in a histogram.
type DistributionBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AccuracyLeader is the player with the lowest average prediction error.
type AccuracyLeader struct {
	Name            string  `json:"name"`
	AverageAccuracy float64 `json:"averageAccuracy"`
	TotalBets       int     `json:"totalBets"`
}

// GlobalStats aggregates every settled game and bet in the system.
type GlobalStats struct {
	TotalGames           int                  `json:"totalGames"`
	TotalBets            int                  `json:"totalBets"`
	TotalPlayers         int                  `json:"totalPlayers"`
	AverageActualTime    *float64             `json:"averageActualTime"`
	AveragePrediction    *float64             `json:"averagePrediction"`
	DidntComeCount       int                  `json:"didntComeCount"`
	DidntComePercentage  float64              `json:"didntComePercentage"`
	MostAccuratePlayer   *AccuracyLeader      `json:"mostAccuratePlayer"`
	MostCommonPrediction *int                 `json:"mostCommonPrediction"`
	PredictionHistogram  []DistributionBucket `json:"predictionDistribution"`
	ActualTimeHistogram  []DistributionBucket `json:"actualTimeDistribution"`
	AveragePointsPerGame float64              `json:"averagePointsPerGame"`
}

// minBetsForAccuracyLeader keeps one lucky guess from topping the accuracy
// board.
const minBetsForAccuracyLeader = 3

// GlobalStats computes system-wide statistics across all settled games.
func (s *StatsService) GlobalStats() (*GlobalStats, error) {
	settledGames, err := s.games.ListSettled()
	if err != nil {
		return nil, err
	}
	allPlayers, err := s.players.GetAll()
	if err != nil {
		return nil, err
	}

	stats := &GlobalStats{
		TotalPlayers:        len(allPlayers),
		TotalGames:          len(settledGames),
		PredictionHistogram: []DistributionBucket{},
		ActualTimeHistogram: []DistributionBucket{},
	}
	if len(settledGames) == 0 {
		return stats, nil
	}

	var totalActualTime, cameCount int
	var totalPrediction, regularBetCount int
	predictionBuckets := newLatenessBuckets()
	actualBuckets := newLatenessBuckets()
	predictionFrequency := make(map[int]int)
	type accuracy struct {
		totalDifference, count int
	}
	playerAccuracy := make(map[string]*accuracy)

	for _, game := range settledGames {
		if game.DidntCome {
			stats.DidntComeCount++
		} else if game.ActualTime != nil {
			totalActualTime += *game.ActualTime
			cameCount++
			countInBucket(actualBuckets, *game.ActualTime)
		}

		gameBets, err := s.bets.ListByGame(s.db, game.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalBets += len(gameBets)

		for _, b := range gameBets {
			if b.IsWontComeBet {
				continue
			}
			totalPrediction += b.Prediction
			regularBetCount++
			countInBucket(predictionBuckets, b.Prediction)
			rounded := roundToNearest(b.Prediction, 5)
			predictionFrequency[rounded]++

			if !game.DidntCome && game.ActualTime != nil {
				acc, ok := playerAccuracy[b.PlayerName]
				if !ok {
					acc = &accuracy{}
					playerAccuracy[b.PlayerName] = acc
				}
				acc.totalDifference += absInt(b.Prediction - *game.ActualTime)
				acc.count++
			}
		}
	}

	if cameCount > 0 {
		avg := roundTenth(float64(totalActualTime) / float64(cameCount))
		stats.AverageActualTime = &avg
	}
	if regularBetCount > 0 {
		avg := roundTenth(float64(totalPrediction) / float64(regularBetCount))
		stats.AveragePrediction = &avg
	}
	stats.DidntComePercentage = roundTenth(float64(stats.DidntComeCount) / float64(stats.TotalGames) * 100)

	bestAvg := math.Inf(1)
	for name, acc := range playerAccuracy {
		if acc.count < minBetsForAccuracyLeader {
			continue
		}
		avg := float64(acc.totalDifference) / float64(acc.count)
		if avg < bestAvg {
			bestAvg = avg
			stats.MostAccuratePlayer = &AccuracyLeader{
				Name:            name,
				AverageAccuracy: roundTenth(avg),
				TotalBets:       acc.count,
			}
		}
	}

	maxFrequency := 0
	for prediction, count := range predictionFrequency {
		if count > maxFrequency || (count == maxFrequency && stats.MostCommonPrediction != nil && prediction < *stats.MostCommonPrediction) {
			maxFrequency = count
			p := prediction
			stats.MostCommonPrediction = &p
		}
	}

	stats.PredictionHistogram = nonEmptyBuckets(predictionBuckets)
	stats.ActualTimeHistogram = nonEmptyBuckets(actualBuckets)

	totalPoints := 0
	for _, p := range allPlayers {
		totalPoints += p.Points
	}
	stats.AveragePointsPerGame = roundTenth(float64(totalPoints) / float64(stats.TotalGames))

	return stats, nil
}

// latenessBucket is a half-open minute range [min, max).
type latenessBucket struct {
	label    string
	min, max int
	count    int
}

func newLatenessBuckets() []*latenessBucket {
	return []*latenessBucket{
		{label: "Early (< -10 min)", min: math.MinInt, max: -10},
		{label: "Slightly Early (-10 to 0)", min: -10, max: 0},
		{label: "On Time (0 to 10)", min: 0, max: 10},
		{label: "Late (10 to 30)", min: 10, max: 30},
		{label: "Very Late (30 to 60)", min: 30, max: 60},
		{label: "Extremely Late (> 60)", min: 60, max: math.MaxInt},
	}
}

func countInBucket(buckets []*latenessBucket, minutes int) {
	for _, b := range buckets {
		if minutes >= b.min && minutes < b.max {
			b.count++
			return
		}
	}
}

func nonEmptyBuckets(buckets []*latenessBucket) []DistributionBucket {
	out := []DistributionBucket{}
	for _, b := range buckets {
		if b.count > 0 {
			out = append(out, DistributionBucket{Label: b.label, Count: b.count})
		}
	}
	return out
}

// HistoryBet is one bet in the settled-game history.
type HistoryBet struct {
	ID            int64     `json:"id"`
	PlayerName    string    `json:"playerName"`
	Prediction    int       `json:"prediction"`
	IsWontComeBet bool      `json:"isWontComeBet"`
	Winnings      int       `json:"winnings"`
	Difference    *int      `json:"difference"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HistoryGame is one settled game with its bets, winners first.
type HistoryGame struct {
	ID         int64        `json:"id"`
	ActualTime *int         `json:"actualTime"`
	DidntCome  bool         `json:"didntCome"`
	GameType   string       `json:"gameType"`
	PlayedAt   time.Time    `json:"playedAt"`
	Bets       []HistoryBet `json:"bets"`
	TotalBets  int          `json:"totalBets"`
	Winner     *string      `json:"winner"`
}

// History returns settled games newest first, each with its bets ordered by
// winnings. limit <= 0 returns everything.
func (s *StatsService) History(limit int) ([]HistoryGame, error) {
	settledGames, err := s.games.ListSettled()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(settledGames) > limit {
		settledGames = settledGames[:limit]
	}

	history := make([]HistoryGame, 0, len(settledGames))
	for _, game := range settledGames {
		gameBets, err := s.bets.ListByGameByWinnings(s.db, game.ID)
		if err != nil {
			return nil, err
		}

		hg := HistoryGame{
			ID:         game.ID,
			ActualTime: game.ActualTime,
			DidntCome:  game.DidntCome,
			GameType:   game.GameType,
			PlayedAt:   game.PlayedAt,
			Bets:       make([]HistoryBet, 0, len(gameBets)),
			TotalBets:  len(gameBets),
		}
		for _, b := range gameBets {
			hb := HistoryBet{
				ID:            b.ID,
				PlayerName:    b.PlayerName,
				Prediction:    b.Prediction,
				IsWontComeBet: b.IsWontComeBet,
				Winnings:      b.Winnings,
				CreatedAt:     b.CreatedAt,
			}
			if !game.DidntCome && game.ActualTime != nil {
				d := absInt(b.Prediction - *game.ActualTime)
				hb.Difference = &d
			}
			hg.Bets = append(hg.Bets, hb)
		}
		if len(gameBets) > 0 && gameBets[0].Winnings > 0 {
			winner := gameBets[0].PlayerName
			hg.Winner = &winner
		}
		history = append(history, hg)
	}
	return history, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundToNearest rounds to the nearest multiple of step, halves away from
// zero.
func roundToNearest(v, step int) int {
	return int(math.Round(float64(v)/float64(step))) * step
}
