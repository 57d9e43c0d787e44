package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{2,32}$`)

// Error represents a validation error on a single input field.
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUsername checks if a login username is acceptable.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return Error{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return Error{Field: "username", Message: "username must be 2-32 letters, digits, dots, dashes or underscores"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return Error{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return Error{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidatePlayerName checks if a player display name is valid.
func ValidatePlayerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Error{Field: "playerName", Message: "player name is required"}
	}
	if len(name) < 2 {
		return Error{Field: "playerName", Message: "player name must be at least 2 characters"}
	}
	if len(name) > 64 {
		return Error{Field: "playerName", Message: "player name must be at most 64 characters"}
	}
	return nil
}

// ValidatePrediction checks a predicted arrival offset in minutes.
func ValidatePrediction(minutes int) error {
	if minutes < -120 || minutes > 600 {
		return Error{Field: "prediction", Message: "prediction must be between -120 and 600 minutes"}
	}
	return nil
}

// ValidateGameType checks an admin-supplied game type.
func ValidateGameType(gameType string) error {
	if gameType != "normal" && gameType != "trip" {
		return Error{Field: "gameType", Message: "game type must be \"normal\" or \"trip\""}
	}
	return nil
}
