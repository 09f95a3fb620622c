// Package store provides a thin bbolt wrapper for liftlog's local data store.
//
// The store is the system of record for daily logs, the exercise catalog,
// workout templates and goals. Every record is scoped to a user; keys start
// with "<user>|" so a cursor seek yields one user's records in key order.
//
// Buckets:
//
//	logs      — one LogRow per user per day, key user|YYYY-MM-DD
//	exercises — exercise catalog, key user|lower(name)
//	templates — workout templates, key user|id
//	goals     — current goals, key user
//	_meta     — internal: schema version, created_at
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/model"
)

// SchemaVersion is the on-disk layout version. Bump when bucket layout or key format changes.
const SchemaVersion = 1

// Bucket name constants.
var (
	bucketLogs      = []byte("logs")
	bucketExercises = []byte("exercises")
	bucketTemplates = []byte("templates")
	bucketGoals     = []byte("goals")
	bucketInternal  = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"logs", "exercises", "templates", "goals"}

var (
	ErrNotFound          = errors.New("not found")
	ErrExists            = errors.New("already exists")
	ErrDuplicateExercise = errors.New("duplicate exercise in log")
	ErrInvalid           = errors.New("invalid")
)

// RowSource is the read side the series pipeline depends on.
// Zero from or to leaves that end of the range open.
type RowSource interface {
	Logs(ctx context.Context, user string, from, to calendar.Date) ([]model.LogRow, error)
}

var _ RowSource = (*Store)(nil)

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLogs, bucketExercises, bucketTemplates, bucketGoals, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", SchemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Keys ─────────────────────────────────────────────────────────────────────

func checkUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return invalid("user is required")
	}
	if strings.Contains(user, "|") {
		return invalid("user %q must not contain '|'", user)
	}
	return nil
}

func userPrefix(user string) []byte {
	return []byte(user + "|")
}

func userKey(user, suffix string) []byte {
	return []byte(user + "|" + suffix)
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Bytes int64  `json:"bytes"`
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			st := BucketStats{Name: name}
			err := b.ForEach(func(k, v []byte) error {
				st.Count++
				st.Bytes += int64(len(k) + len(v))
				return nil
			})
			if err != nil {
				return err
			}
			stats = append(stats, st)
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	known := false
	for _, b := range AllBuckets {
		known = known || b == name
	}
	if !known {
		return fmt.Errorf("unknown bucket %q (valid: %s)", name, strings.Join(AllBuckets, ", "))
	}
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Compact rewrites the database into a fresh file and swaps it in place,
// returning the file size before and after. bbolt never shrinks its file on
// delete, so this is the only way to reclaim space after ClearBucket.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	if fi, statErr := os.Stat(path); statErr == nil {
		before = fi.Size()
	}

	tmp := path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening %s: %w", tmp, err)
	}
	if err := bolt.Compact(dst, s.db, 64<<10); err != nil {
		dst.Close()
		os.Remove(tmp)
		return before, 0, fmt.Errorf("copying buckets: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}

	if err := s.db.Close(); err != nil {
		return before, 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		// Reopen the untouched original so the handle stays usable.
		if db, openErr := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second}); openErr == nil {
			s.db = db
		}
		return before, 0, fmt.Errorf("replacing %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening %s: %w", path, err)
	}
	s.db = db

	if fi, statErr := os.Stat(path); statErr == nil {
		after = fi.Size()
	}
	return before, after, nil
}
