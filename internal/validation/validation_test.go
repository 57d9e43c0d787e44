package validation

import "testing"

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "marek", false},
		{"valid with digits", "marek99", false},
		{"valid with separators", "ma.rek_1-x", false},
		{"empty", "", true},
		{"only whitespace", "   ", true},
		{"too short", "m", true},
		{"spaces inside", "ma rek", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "longenough", false},
		{"empty", "", true},
		{"too short", "short", true},
		{"exactly eight", "12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePrediction(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		wantErr bool
	}{
		{"on time", 0, false},
		{"early", -15, false},
		{"late", 45, false},
		{"too early", -121, true},
		{"absurdly late", 601, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrediction(tt.minutes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrediction(%d) error = %v, wantErr %v", tt.minutes, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGameType(t *testing.T) {
	if err := ValidateGameType("normal"); err != nil {
		t.Errorf("ValidateGameType(normal) = %v", err)
	}
	if err := ValidateGameType("trip"); err != nil {
		t.Errorf("ValidateGameType(trip) = %v", err)
	}
	if err := ValidateGameType("marathon"); err == nil {
		t.Error("ValidateGameType(marathon) expected error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Error{Field: "prediction", Message: "out of range"}
	if err.Error() != "prediction: out of range" {
		t.Errorf("Error() = %q", err.Error())
	}
}
