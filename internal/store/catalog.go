package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/liftlog/internal/model"
)

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ─── Exercises ────────────────────────────────────────────────────────────────

// PutExercise adds ex to user's catalog, assigning an ID and CreatedAt.
// Names are unique per user, ignoring case; a clash is ErrExists.
func (s *Store) PutExercise(user string, ex model.Exercise) (model.Exercise, error) {
	if err := checkUser(user); err != nil {
		return ex, err
	}
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return ex, invalid("exercise name is required")
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(ex)
	if err != nil {
		return ex, fmt.Errorf("encoding exercise: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketExercises)
		key := userKey(user, nameKey(ex.Name))
		if bk.Get(key) != nil {
			return fmt.Errorf("exercise %q: %w", ex.Name, ErrExists)
		}
		return bk.Put(key, b)
	})
	return ex, err
}

// FindExercise looks an exercise up by name, ignoring case.
func (s *Store) FindExercise(user, name string) (model.Exercise, error) {
	var ex model.Exercise
	if err := checkUser(user); err != nil {
		return ex, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExercises).Get(userKey(user, nameKey(name)))
		if v == nil {
			return fmt.Errorf("exercise %q: %w", name, ErrNotFound)
		}
		return json.Unmarshal(v, &ex)
	})
	return ex, err
}

// ListExercises returns user's catalog sorted by name.
func (s *Store) ListExercises(user string) ([]model.Exercise, error) {
	out := []model.Exercise{}
	err := s.scan(bucketExercises, user, func(v []byte) error {
		var ex model.Exercise
		if err := json.Unmarshal(v, &ex); err != nil {
			return err
		}
		out = append(out, ex)
		return nil
	})
	return out, err
}

// DeleteExercise removes an exercise by name. Logged entries that reference
// it are left alone.
func (s *Store) DeleteExercise(user, name string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketExercises)
		key := userKey(user, nameKey(name))
		if bk.Get(key) == nil {
			return fmt.Errorf("exercise %q: %w", name, ErrNotFound)
		}
		return bk.Delete(key)
	})
}

// ─── Templates ────────────────────────────────────────────────────────────────

// PutTemplate saves tpl. A template without an ID is new and gets one; its
// name must not clash with another template (ErrExists). A template with an
// ID replaces the stored one.
func (s *Store) PutTemplate(user string, tpl model.Template) (model.Template, error) {
	if err := checkUser(user); err != nil {
		return tpl, err
	}
	tpl.Name = strings.TrimSpace(tpl.Name)
	if tpl.Name == "" {
		return tpl, invalid("template name is required")
	}
	for _, e := range tpl.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			return tpl, invalid("template exercise name is required")
		}
		if e.Sets < 0 || e.Reps < 0 || (e.Weight != nil && *e.Weight < 0) {
			return tpl, invalid("template exercise %q: sets, reps and weight must be non-negative", e.Name)
		}
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketTemplates)
		if tpl.ID == "" {
			if existing, err := findTemplate(bk, user, tpl.Name); err == nil {
				return fmt.Errorf("template %q (%s): %w", tpl.Name, existing.ID, ErrExists)
			}
			tpl.ID = uuid.NewString()
		}
		if tpl.CreatedAt.IsZero() {
			tpl.CreatedAt = time.Now().UTC()
		}
		b, err := json.Marshal(tpl)
		if err != nil {
			return fmt.Errorf("encoding template: %w", err)
		}
		return bk.Put(userKey(user, tpl.ID), b)
	})
	return tpl, err
}

// GetTemplate finds a template by ID or, failing that, by name.
func (s *Store) GetTemplate(user, ref string) (model.Template, error) {
	var tpl model.Template
	if err := checkUser(user); err != nil {
		return tpl, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		tpl, err = findTemplate(tx.Bucket(bucketTemplates), user, ref)
		return err
	})
	return tpl, err
}

// ListTemplates returns user's templates sorted by name.
func (s *Store) ListTemplates(user string) ([]model.Template, error) {
	out := []model.Template{}
	err := s.scan(bucketTemplates, user, func(v []byte) error {
		var tpl model.Template
		if err := json.Unmarshal(v, &tpl); err != nil {
			return err
		}
		out = append(out, tpl)
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return nameKey(out[i].Name) < nameKey(out[j].Name) })
	return out, err
}

// DeleteTemplate removes a template by ID or name.
func (s *Store) DeleteTemplate(user, ref string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketTemplates)
		tpl, err := findTemplate(bk, user, ref)
		if err != nil {
			return err
		}
		return bk.Delete(userKey(user, tpl.ID))
	})
}

func findTemplate(bk *bolt.Bucket, user, ref string) (model.Template, error) {
	var tpl model.Template
	if v := bk.Get(userKey(user, ref)); v != nil {
		return tpl, json.Unmarshal(v, &tpl)
	}
	prefix := userPrefix(user)
	c := bk.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var t model.Template
		if err := json.Unmarshal(v, &t); err != nil {
			return tpl, err
		}
		if nameKey(t.Name) == nameKey(ref) {
			return t, nil
		}
	}
	return tpl, fmt.Errorf("template %q: %w", ref, ErrNotFound)
}

// scan calls fn for every value under user's prefix in key order.
func (s *Store) scan(bucket []byte, user string, fn func(v []byte) error) error {
	if err := checkUser(user); err != nil {
		return err
	}
	prefix := userPrefix(user)
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(v); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
		}
		return nil
	})
}

// ─── Goals ────────────────────────────────────────────────────────────────────

// GetGoals returns user's goals. A user who never set any gets zero Goals.
func (s *Store) GetGoals(user string) (model.Goals, error) {
	var g model.Goals
	if err := checkUser(user); err != nil {
		return g, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketGoals).Get([]byte(user))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &g)
	})
	return g, err
}

// SetGoals replaces user's goals and stamps UpdatedAt.
func (s *Store) SetGoals(user string, g model.Goals) (model.Goals, error) {
	if err := checkUser(user); err != nil {
		return g, err
	}
	if g.TargetBodyweight != nil && *g.TargetBodyweight <= 0 {
		return g, invalid("target bodyweight must be positive, got %g", *g.TargetBodyweight)
	}
	if (g.DailyCalories != nil && *g.DailyCalories < 0) || (g.DailyProtein != nil && *g.DailyProtein < 0) {
		return g, invalid("daily calories and protein must be non-negative")
	}
	g.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(g)
	if err != nil {
		return g, fmt.Errorf("encoding goals: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGoals).Put([]byte(user), b)
	})
	return g, err
}
