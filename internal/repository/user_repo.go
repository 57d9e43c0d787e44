package repository

import (
	"database/sql"
	"fmt"
	"time"

	"luckabet/internal/database"
	"luckabet/internal/models"
)

// UserRepository handles database operations for accounts, sessions and
// password reset tokens.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, role, player_id, oauth_provider, oauth_subject, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var email, provider, subject sql.NullString
	var playerID sql.NullInt64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&user.Role,
		&playerID,
		&provider,
		&subject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if email.Valid {
		user.Email = &email.String
	}
	if playerID.Valid {
		user.PlayerID = &playerID.Int64
	}
	if provider.Valid {
		user.OAuthProvider = &provider.String
	}
	if subject.Valid {
		user.OAuthSubject = &subject.String
	}
	return user, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// CreateUser inserts a new user. The first account ever created becomes an
// admin; every later one gets the requested role.
func (r *UserRepository) CreateUser(q database.DBTX, username string, email *string, passwordHash, role string) (*models.User, error) {
	var userCount int
	if err := q.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if userCount == 0 {
		role = models.RoleAdmin
	}

	id, err := q.ExecReturningID(
		"INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)",
		username, nullString(email), passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// GetUserByUsername retrieves a user by username, or nil.
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return scanUser(r.db.QueryRow(query, username))
}

// GetUserByID retrieves a user by ID, or nil.
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return scanUser(r.db.QueryRow(query, id))
}

// GetUserByEmail retrieves a user by email, or nil.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return scanUser(r.db.QueryRow(query, email))
}

// GetUserByOAuth retrieves the user previously linked to an external identity,
// or nil.
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE oauth_provider = ? AND oauth_subject = ?"
	return scanUser(r.db.QueryRow(query, provider, subject))
}

// LinkOAuth records the external identity a user signs in with.
func (r *UserRepository) LinkOAuth(q database.DBTX, userID int64, provider, subject string) error {
	query := "UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := q.Exec(query, provider, subject, userID); err != nil {
		return fmt.Errorf("failed to link oauth identity: %w", err)
	}
	return nil
}

// GetAllUsers retrieves all users, newest first.
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var email, provider, subject sql.NullString
		var playerID sql.NullInt64
		if err := rows.Scan(
			&user.ID, &user.Username, &email, &user.PasswordHash, &user.Role,
			&playerID, &provider, &subject, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if email.Valid {
			user.Email = &email.String
		}
		if playerID.Valid {
			user.PlayerID = &playerID.Int64
		}
		if provider.Valid {
			user.OAuthProvider = &provider.String
		}
		if subject.Valid {
			user.OAuthSubject = &subject.String
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(userID int64, passwordHash string) error {
	query := "UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteUser deletes a user; sessions and reset tokens cascade.
func (r *UserRepository) DeleteUser(id int64) error {
	if _, err := r.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// LinkPlayer associates a user with a player profile. The association is
// one-time: a user already linked keeps its existing link and the call is a
// silent no-op.
func (r *UserRepository) LinkPlayer(q database.DBTX, userID, playerID int64) error {
	query := "UPDATE users SET player_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND player_id IS NULL"
	if _, err := q.Exec(query, playerID, userID); err != nil {
		return fmt.Errorf("failed to link player: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user.
func (r *UserRepository) CreateSession(sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := "INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID, or nil.
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	query := "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?"
	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database.
func (r *UserRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (r *UserRepository) DeleteExpiredSessions(now time.Time) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", now); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// CreatePasswordResetToken stores a one-time reset token.
func (r *UserRepository) CreatePasswordResetToken(token string, userID int64, expiresAt time.Time) error {
	query := "INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, token, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token, or nil.
func (r *UserRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	query := "SELECT token, user_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?"
	t := &models.PasswordResetToken{}
	err := r.db.QueryRow(query, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return t, nil
}

// MarkPasswordResetTokenUsed invalidates a reset token after use.
func (r *UserRepository) MarkPasswordResetTokenUsed(token string) error {
	query := "UPDATE password_reset_tokens SET used = ? WHERE token = ?"
	if _, err := r.db.Exec(query, true, token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}

// DeleteUserPasswordResetTokens removes all reset tokens for a user.
func (r *UserRepository) DeleteUserPasswordResetTokens(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM password_reset_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}
