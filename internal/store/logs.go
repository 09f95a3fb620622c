package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/multierr"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
)

// ─── Validation ───────────────────────────────────────────────────────────────

// ValidateRow checks a LogRow before it is written: a real date, no negative
// quantities, named exercises and at most one entry per exercise.
func ValidateRow(r model.LogRow) error {
	if r.Date.IsZero() {
		return invalid("date is required")
	}
	if r.Bodyweight != nil && *r.Bodyweight <= 0 {
		return invalid("bodyweight must be positive, got %g", *r.Bodyweight)
	}
	if r.Calories != nil && *r.Calories < 0 {
		return invalid("calories must be non-negative, got %d", *r.Calories)
	}
	if r.Protein != nil && *r.Protein < 0 {
		return invalid("protein must be non-negative, got %d", *r.Protein)
	}
	seen := make(map[string]bool, len(r.Exercises))
	for _, e := range r.Exercises {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		if name == "" {
			return invalid("exercise name is required")
		}
		if seen[name] {
			return fmt.Errorf("%w: %w: %s", ErrInvalid, ErrDuplicateExercise, e.Name)
		}
		seen[name] = true
		if e.Weight != nil && *e.Weight < 0 {
			return invalid("%s: weight must be non-negative, got %g", e.Name, *e.Weight)
		}
		if e.Reps != nil && *e.Reps < 0 {
			return invalid("%s: reps must be non-negative, got %d", e.Name, *e.Reps)
		}
	}
	return nil
}

// invalid wraps ErrInvalid around a formatted message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ─── Logs ─────────────────────────────────────────────────────────────────────

// UpsertLog writes the row for (user, row.Date). An existing row for that
// day is replaced whole, including its exercise entries.
func (s *Store) UpsertLog(user string, row model.LogRow) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if err := ValidateRow(row); err != nil {
		return fmt.Errorf("upsert log %s: %w", row.Date, err)
	}
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding log %s: %w", row.Date, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLogs).Put(userKey(user, row.Date.Key()), b)
	})
}

// GetLog returns the row for (user, date) or ErrNotFound.
func (s *Store) GetLog(user string, date calendar.Date) (model.LogRow, error) {
	var row model.LogRow
	if err := checkUser(user); err != nil {
		return row, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLogs).Get(userKey(user, date.Key()))
		if v == nil {
			return fmt.Errorf("log %s: %w", date, ErrNotFound)
		}
		return json.Unmarshal(v, &row)
	})
	return row, err
}

// DeleteLog removes the row for (user, date). Missing rows are ErrNotFound.
func (s *Store) DeleteLog(user string, date calendar.Date) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogs)
		key := userKey(user, date.Key())
		if b.Get(key) == nil {
			return fmt.Errorf("log %s: %w", date, ErrNotFound)
		}
		return b.Delete(key)
	})
}

// Logs returns user's rows dated within [from, to] in ascending date order.
// A zero from or to leaves that end open.
func (s *Store) Logs(ctx context.Context, user string, from, to calendar.Date) ([]model.LogRow, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	prefix := userPrefix(user)
	seek := prefix
	if !from.IsZero() {
		seek = userKey(user, from.Key())
	}

	rows := []model.LogRow{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLogs).Cursor()
		for k, v := c.Seek(seek); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var row model.LogRow
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("decoding log %s: %w", k, err)
			}
			if !to.IsZero() && row.Date.After(to) {
				break
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AllLogs returns every row for user in ascending date order.
func (s *Store) AllLogs(user string) ([]model.LogRow, error) {
	return s.Logs(context.Background(), user, calendar.Date{}, calendar.Date{})
}

// ImportLogs upserts rows in a single transaction. Invalid rows are skipped
// and reported together in the returned error; valid rows are still written.
// n is the number of rows written.
func (s *Store) ImportLogs(ctx context.Context, user string, rows []model.LogRow) (n int, err error) {
	if err := checkUser(user); err != nil {
		return 0, err
	}
	type encoded struct {
		key, val []byte
	}
	var batch []encoded
	for i, r := range rows {
		if vErr := ValidateRow(r); vErr != nil {
			err = multierr.Append(err, fmt.Errorf("row %d (%s): %w", i+1, r.Date, vErr))
			continue
		}
		b, mErr := json.Marshal(r)
		if mErr != nil {
			err = multierr.Append(err, fmt.Errorf("row %d (%s): %w", i+1, r.Date, mErr))
			continue
		}
		batch = append(batch, encoded{userKey(user, r.Date.Key()), b})
	}

	txErr := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogs)
		for _, e := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.Put(e.key, e.val); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return 0, multierr.Append(err, fmt.Errorf("import: %w", txErr))
	}
	return len(batch), err
}
