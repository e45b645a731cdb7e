// internal/history/players.go
//
// Registered player accounts.
// Responsibilities:
//   - Signup validation (username 3-24 letters, digits or underscores; password 8-72 bytes).
//   - bcrypt password hashing and verification.
//   - Lookups by username (case-insensitive) and by id.

package history

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors returned by the player lookups and CreatePlayer.
var (
	ErrUsernameTaken  = errors.New("username taken")
	ErrPlayerNotFound = errors.New("player not found")
)

// Player is a registered account.
type Player struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreatePlayer validates the credentials, hashes the password and inserts
// a new player. Usernames are unique case-insensitively.
func (s *Store) CreatePlayer(ctx context.Context, username, password string) (*Player, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, password); err != nil {
		return nil, err
	}
	if _, err := s.PlayerByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrPlayerNotFound) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := &Player{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		p.ID, p.Username, p.PasswordHash, p.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return p, nil
}

// PlayerByUsername looks a player up case-insensitively.
func (s *Store) PlayerByUsername(ctx context.Context, username string) (*Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE lower(username)=lower(?)`,
		strings.TrimSpace(username)))
}

// PlayerByID looks a player up by id.
func (s *Store) PlayerByID(ctx context.Context, id string) (*Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE id=?`, id))
}

// CheckPassword reports whether pw matches the player's bcrypt hash.
func (p *Player) CheckPassword(pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(pw)) == nil
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	var created string
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}
