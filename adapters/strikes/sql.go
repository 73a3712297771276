package strikes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLStore is a generic SQL strike store for deployments that need strike
// history to survive restarts. The caller supplies the driver.
type SQLStore struct {
	db    *sql.DB
	table string
	limit int
}

// NewSQLStore creates a store over *sql.DB.
func NewSQLStore(db *sql.DB, table string, limit int) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("strikes: db is nil")
	}
	if strings.TrimSpace(table) == "" {
		table = "moderate_strikes"
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &SQLStore{db: db, table: table, limit: limit}, nil
}

// EnsureSchema creates the table if missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (actor TEXT PRIMARY KEY, count INTEGER NOT NULL)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

// Increment records one strike. The count bump is a blind UPDATE, so the
// database serializes concurrent increments for one actor on the row lock;
// a read-then-write would let two transactions read the same pre-increment
// count under READ COMMITTED. Only an actor's first strike can race on the
// INSERT, which is retried when the rival row wins.
func (s *SQLStore) Increment(ctx context.Context, actor string) (int, bool, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		count, banned, err := s.increment(ctx, actor)
		if err == nil {
			return count, banned, nil
		}
		if !isDuplicateKeyErr(err) {
			return 0, false, err
		}
		lastErr = err
	}
	return 0, false, lastErr
}

func (s *SQLStore) increment(ctx context.Context, actor string) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	count := 1
	q := fmt.Sprintf(`UPDATE %s SET count = count + 1 WHERE actor = ?`, s.table)
	res, err := tx.ExecContext(ctx, q, actor)
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		q = fmt.Sprintf(`INSERT INTO %s (actor, count) VALUES (?, ?)`, s.table)
		if _, err := tx.ExecContext(ctx, q, actor, count); err != nil {
			return 0, false, err
		}
	} else {
		// Reads our own locked row, so the value is this call's count.
		q = fmt.Sprintf(`SELECT count FROM %s WHERE actor = ?`, s.table)
		if err := tx.QueryRowContext(ctx, q, actor).Scan(&count); err != nil {
			return 0, false, err
		}
	}

	banned := count >= s.limit
	if banned {
		q = fmt.Sprintf(`DELETE FROM %s WHERE actor = ?`, s.table)
		if _, err := tx.ExecContext(ctx, q, actor); err != nil {
			return 0, false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return count, banned, nil
}

// Reset removes an actor's record.
func (s *SQLStore) Reset(ctx context.Context, actor string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE actor = ?`, s.table)
	_, err := s.db.ExecContext(ctx, q, actor)
	return err
}

// isDuplicateKeyErr matches primary-key violations by message because each
// driver reports them with its own error type.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
