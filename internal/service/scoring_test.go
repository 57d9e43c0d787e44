package service

import (
	"testing"

	"luckabet/internal/models"
)

func TestAwardForOutcome(t *testing.T) {
	tests := []struct {
		name          string
		prediction    int
		isWontComeBet bool
		outcome       models.Outcome
		want          int
	}{
		{"exact match", 15, false, models.Outcome{ActualTime: 15}, 10},
		{"one minute off", 15, false, models.Outcome{ActualTime: 14}, 9},
		{"one minute off the other way", 15, false, models.Outcome{ActualTime: 16}, 9},
		{"nine minutes off", 20, false, models.Outcome{ActualTime: 11}, 1},
		{"ten minutes off", 20, false, models.Outcome{ActualTime: 10}, 0},
		{"way off", 5, false, models.Outcome{ActualTime: 90}, 0},
		{"early arrival exact", -5, false, models.Outcome{ActualTime: -5}, 10},
		{"early arrival close", -5, false, models.Outcome{ActualTime: -2}, 7},
		{"wont come and she did not", 0, true, models.Outcome{DidntCome: true}, 15},
		{"wont come but she showed up", 0, true, models.Outcome{ActualTime: 7}, 0},
		{"numeric bet but she never came", 7, false, models.Outcome{DidntCome: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := awardForOutcome(tt.prediction, tt.isWontComeBet, tt.outcome)
			if got != tt.want {
				t.Errorf("awardForOutcome(%d, %v, %+v) = %d, want %d",
					tt.prediction, tt.isWontComeBet, tt.outcome, got, tt.want)
			}
		})
	}
}
