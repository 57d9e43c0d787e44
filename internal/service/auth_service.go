package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"luckabet/internal/database"
	"luckabet/internal/models"
	"luckabet/internal/repository"
	"luckabet/internal/security"
	"luckabet/internal/validation"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// AuthService handles account registration, login and session management.
// Sessions are rows in the database referenced by the jti of a signed token,
// so a stolen token dies with its session row.
type AuthService struct {
	db              *database.DB
	userRepo        *repository.UserRepository
	playerRepo      *repository.PlayerRepository
	signer          *security.TokenSigner
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(db *database.DB, userRepo *repository.UserRepository, playerRepo *repository.PlayerRepository, signer *security.TokenSigner, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		userRepo:        userRepo,
		playerRepo:      playerRepo,
		signer:          signer,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new account and links it to a player profile, creating
// the profile when it does not exist yet. playerName defaults to the
// username; email is optional and only needed for password recovery.
func (s *AuthService) Register(username, password, playerName, email string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if playerName == "" {
		playerName = username
	}
	if err := validation.ValidatePlayerName(playerName); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	var emailPtr *string
	if email != "" {
		byEmail, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing email: %w", err)
		}
		if byEmail != nil {
			return nil, ErrEmailTaken
		}
		emailPtr = &email
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.userRepo.CreateUser(tx, username, emailPtr, passwordHash, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	player, err := s.playerRepo.GetOrCreate(tx, playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	if err := s.userRepo.LinkPlayer(tx, user.ID, player.ID); err != nil {
		return nil, err
	}
	user.PlayerID = &player.ID

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// Login authenticates a user, creates a database session and returns the
// signed token to hand to the client.
func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	return s.startSession(user)
}

// startSession creates the database session row and mints its token.
func (s *AuthService) startSession(user *models.User) (string, *models.User, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	if _, err := s.userRepo.CreateSession(sessionID, user.ID, expiresAt); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	playerName, err := s.PlayerNameFor(user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.signer.Mint(sessionID, user.ID, user.Role, playerName, expiresAt)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Signer exposes the token signer so the HTTP layer can read claims off
// tokens it already holds.
func (s *AuthService) Signer() *security.TokenSigner {
	return s.signer
}

// PlayerNameFor resolves the player name a user bets under, or "" when the
// account has no linked player.
func (s *AuthService) PlayerNameFor(user *models.User) (string, error) {
	if user.PlayerID == nil {
		return "", nil
	}
	player, err := s.playerRepo.GetByID(s.db, *user.PlayerID)
	if err != nil {
		return "", fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return "", nil
	}
	return player.Name, nil
}

// ValidateToken verifies a session token against both its signature and its
// backing database session, and returns the authenticated user.
func (s *AuthService) ValidateToken(tokenString string) (*models.User, *security.SessionClaims, error) {
	claims, err := s.signer.Parse(tokenString)
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.userRepo.GetSession(claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	if session.IsExpired(time.Now()) {
		_ = s.userRepo.DeleteSession(session.ID)
		return nil, nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrSessionNotFound
	}
	return user, claims, nil
}

// Logout revokes the session behind a token. An unparseable token is not an
// error; there is nothing left to revoke.
func (s *AuthService) Logout(tokenString string) error {
	claims, err := s.signer.Parse(tokenString)
	if err != nil {
		return nil
	}
	if err := s.userRepo.DeleteSession(claims.ID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database.
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(time.Now()); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// OAuthLogin signs in, or registers, a user identified by an external
// provider. An existing account with the same verified email is linked to
// the provider on first use.
func (s *AuthService) OAuthLogin(provider, subject, email, displayName string) (string, *models.User, error) {
	if provider == "" || subject == "" {
		return "", nil, errors.New("missing oauth provider information")
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return "", nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil && email != "" {
		byEmail, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return "", nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if byEmail != nil {
			if byEmail.OAuthProvider != nil && *byEmail.OAuthProvider != provider {
				return "", nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuth(s.db, byEmail.ID, provider, subject); err != nil {
				return "", nil, err
			}
			user = byEmail
		}
	}

	if user == nil {
		// Display names often contain spaces, so the email local part
		// makes the better username.
		username := ""
		if email != "" {
			username = strings.Split(email, "@")[0]
		}
		if validation.ValidateUsername(username) != nil {
			username = strings.ReplaceAll(displayName, " ", ".")
		}
		if err := validation.ValidateUsername(username); err != nil {
			return "", nil, err
		}
		if taken, err := s.userRepo.GetUserByUsername(username); err != nil {
			return "", nil, err
		} else if taken != nil {
			username = fmt.Sprintf("%s.%s", username, subject[:min(6, len(subject))])
		}
		// OAuth accounts never log in with a password; store an
		// unguessable hash to keep the column non-empty.
		randomHash, err := security.HashPassword(security.GenerateSessionID())
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return "", nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		var emailPtr *string
		if email != "" {
			emailPtr = &email
		}
		user, err = s.userRepo.CreateUser(tx, username, emailPtr, randomHash, models.RoleUser)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create oauth user: %w", err)
		}
		player, err := s.playerRepo.GetOrCreate(tx, username)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create player: %w", err)
		}
		if err := s.userRepo.LinkPlayer(tx, user.ID, player.ID); err != nil {
			return "", nil, err
		}
		// Linking inside the same transaction keeps account creation and
		// the provider identity atomic.
		if err := s.userRepo.LinkOAuth(tx, user.ID, provider, subject); err != nil {
			return "", nil, err
		}
		user.PlayerID = &player.ID
		if err := tx.Commit(); err != nil {
			return "", nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	return s.startSession(user)
}

// RequestPasswordReset creates a one-time reset token and mails it to the
// account's email. A missing account or an account without an email is not
// reported to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailService *EmailService, email string) error {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.Email == nil {
		return nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.DeleteUserPasswordResetTokens(user.ID)

	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.userRepo.CreatePasswordResetToken(token, user.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if emailService != nil && emailService.IsEnabled() {
		if err := emailService.SendPasswordResetEmail(ctx, *user.Email, user.Username, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ResetPassword sets a new password using a valid, unused reset token.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.userRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil || resetToken.Used || resetToken.IsExpired(time.Now()) {
		return ErrInvalidResetToken
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(resetToken.UserID, passwordHash); err != nil {
		return err
	}
	if err := s.userRepo.MarkPasswordResetTokenUsed(token); err != nil {
		return err
	}
	return nil
}

// generateSecureToken generates a cryptographically secure random token.
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
