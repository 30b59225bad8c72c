// internal/store/sql.go
//
// SQL-backed Store (SQLite or Postgres via sqlx).
// Responsibilities:
//   - One row per user plus child rows for unlocks, best stars and mistakes.
//   - SaveUser in a single transaction; max-stars and set-union semantics
//     enforced in SQL so a stale write cannot regress the ledger.
//
// Queries are written with "?" placeholders and passed through Rebind.
// Times are stored as unix milliseconds.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/robalobadob/pixelwords/internal/progress"
)

// SQLStore persists ledgers in a relational database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

type userRow struct {
	UserID       string `db:"user_id"`
	HeroID       string `db:"hero_id"`
	LastActivity int64  `db:"last_activity"`
}

type starRow struct {
	LevelID string `db:"level_id"`
	Stars   int    `db:"stars"`
}

type mistakeRow struct {
	WordID    string `db:"word_id"`
	Phase     string `db:"phase"`
	CreatedAt int64  `db:"created_at"`
}

// GetUser loads one user with all child rows.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*progress.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT user_id, hero_id, last_activity FROM users WHERE user_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.load(ctx, row)
}

func (s *SQLStore) load(ctx context.Context, row userRow) (*progress.User, error) {
	u := progress.NewUser(row.UserID, fromMillis(row.LastActivity))
	u.HeroID = row.HeroID

	var unlocks []string
	if err := s.db.SelectContext(ctx, &unlocks,
		s.db.Rebind(`SELECT level_id FROM user_unlocks WHERE user_id = ?`), row.UserID); err != nil {
		return nil, fmt.Errorf("get unlocks: %w", err)
	}
	for _, id := range unlocks {
		u.UnlockedLevelIDs.Put(id)
	}

	var stars []starRow
	if err := s.db.SelectContext(ctx, &stars,
		s.db.Rebind(`SELECT level_id, stars FROM user_stars WHERE user_id = ?`), row.UserID); err != nil {
		return nil, fmt.Errorf("get stars: %w", err)
	}
	for _, r := range stars {
		u.StarsByLevelID[r.LevelID] = r.Stars
	}

	var mistakes []mistakeRow
	if err := s.db.SelectContext(ctx, &mistakes,
		s.db.Rebind(`SELECT word_id, phase, created_at FROM user_mistakes WHERE user_id = ? ORDER BY seq`), row.UserID); err != nil {
		return nil, fmt.Errorf("get mistakes: %w", err)
	}
	for _, m := range mistakes {
		u.Mistakes = append(u.Mistakes, progress.Mistake{WordID: m.WordID, Phase: m.Phase, Timestamp: fromMillis(m.CreatedAt)})
	}
	return u, nil
}

// SaveUser upserts the user and merges its child rows.
func (s *SQLStore) SaveUser(ctx context.Context, u *progress.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
        INSERT INTO users (user_id, hero_id, created_at, last_activity)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET
            hero_id = excluded.hero_id,
            last_activity = excluded.last_activity`),
		u.UserID, u.HeroID, toMillis(u.LastActivity), toMillis(u.LastActivity),
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	for _, id := range u.UnlockedList() {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
            INSERT INTO user_unlocks (user_id, level_id) VALUES (?, ?)
            ON CONFLICT DO NOTHING`), u.UserID, id); err != nil {
			return fmt.Errorf("insert unlock %s: %w", id, err)
		}
	}

	for levelID, stars := range u.StarsByLevelID {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
            INSERT INTO user_stars (user_id, level_id, stars) VALUES (?, ?, ?)
            ON CONFLICT (user_id, level_id) DO UPDATE SET
                stars = CASE WHEN excluded.stars > user_stars.stars
                             THEN excluded.stars ELSE user_stars.stars END`),
			u.UserID, levelID, stars); err != nil {
			return fmt.Errorf("upsert stars %s: %w", levelID, err)
		}
	}

	// The mistake log is append-only: only entries past the stored count are new.
	var stored int
	if err := tx.GetContext(ctx, &stored,
		tx.Rebind(`SELECT COUNT(*) FROM user_mistakes WHERE user_id = ?`), u.UserID); err != nil {
		return fmt.Errorf("count mistakes: %w", err)
	}
	for seq := stored; seq < len(u.Mistakes); seq++ {
		m := u.Mistakes[seq]
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
            INSERT INTO user_mistakes (user_id, seq, word_id, phase, created_at)
            VALUES (?, ?, ?, ?, ?)`),
			u.UserID, seq, m.WordID, m.Phase, toMillis(m.Timestamp)); err != nil {
			return fmt.Errorf("insert mistake: %w", err)
		}
	}

	return tx.Commit()
}

// ListUsers loads every user ordered by id.
func (s *SQLStore) ListUsers(ctx context.Context) ([]*progress.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, hero_id, last_activity FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*progress.User, 0, len(rows))
	for _, r := range rows {
		u, err := s.load(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
