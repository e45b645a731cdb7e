// internal/history/sessions.go
//
// Durable record of played sessions and the stats derived from them.
// The live session state stays in the in-memory store; this table only
// tracks ownership, progress counters and final outcomes.

package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/gamezone/internal/game"
)

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db. Run Migrate first.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Owner identifies who played a session: a registered player or an
// anonymous browser cookie. Exactly one field is normally set.
type Owner struct {
	PlayerID    string
	AnonymousID string
}

// RecordStart inserts the history row for a newly selected session.
func (s *Store) RecordStart(ctx context.Context, sess *game.Session, owner Owner) error {
	out := sess.Outcome()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sessions (id, player_id, anonymous_id, kind, status, value, attempts, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, nullable(owner.PlayerID), nullable(owner.AnonymousID), string(sess.Kind),
		string(out.Status), out.Value, sess.Attempts, sess.StartedAt.Format(time.RFC3339),
		finishedAt(sess),
	)
	return err
}

// RecordProgress updates attempts and, once the session ends, its outcome.
func (s *Store) RecordProgress(ctx context.Context, sess *game.Session) error {
	out := sess.Outcome()
	_, err := s.db.ExecContext(ctx, `
        UPDATE sessions
        SET attempts=?, status=?, value=?, finished_at=COALESCE(finished_at, ?)
        WHERE id=?`,
		sess.Attempts, string(out.Status), out.Value, finishedAt(sess), sess.ID,
	)
	return err
}

// ClaimAnonymous moves every session played under anonID to playerID.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, playerID string) error {
	if anonID == "" || playerID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET player_id=?, anonymous_id=NULL WHERE anonymous_id=?`, playerID, anonID)
	return err
}

// GameRow is one history entry as returned to players.
type GameRow struct {
	ID         string `json:"id"`
	Game       string `json:"game"`
	Status     string `json:"status"`
	Value      string `json:"value,omitempty"`
	Attempts   int    `json:"attempts"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Recent lists a player's most recent sessions, newest first.
func (s *Store) Recent(ctx context.Context, playerID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, kind, status, value, attempts, started_at, COALESCE(finished_at, '')
        FROM sessions
        WHERE player_id=?
        ORDER BY started_at DESC, rowid DESC
        LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var r GameRow
		if err := rows.Scan(&r.ID, &r.Game, &r.Status, &r.Value, &r.Attempts, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes finished sessions of one game kind.
type Stats struct {
	Game        string  `json:"game"`
	Played      int     `json:"played"`
	Solved      int     `json:"solved"`
	Exhausted   int     `json:"exhausted"`
	AvgAttempts float64 `json:"avgAttempts"`
}

// Stats aggregates every finished session per game kind.
func (s *Store) Stats(ctx context.Context) ([]Stats, error) {
	return s.stats(ctx, "", nil)
}

// PlayerStats aggregates one player's finished sessions per game kind.
func (s *Store) PlayerStats(ctx context.Context, playerID string) ([]Stats, error) {
	return s.stats(ctx, " AND player_id=?", []any{playerID})
}

func (s *Store) stats(ctx context.Context, filter string, args []any) ([]Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT kind,
               COUNT(1),
               SUM(CASE WHEN status='solved' THEN 1 ELSE 0 END),
               SUM(CASE WHEN status='exhausted' THEN 1 ELSE 0 END),
               AVG(attempts)
        FROM sessions
        WHERE status != 'awaiting_answer'`+filter+`
        GROUP BY kind
        ORDER BY kind`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Stats{}
	for rows.Next() {
		var st Stats
		if err := rows.Scan(&st.Game, &st.Played, &st.Solved, &st.Exhausted, &st.AvgAttempts); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func finishedAt(sess *game.Session) any {
	if !sess.Finished() {
		return nil
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
