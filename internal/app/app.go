// Package app wires together configuration, the store, the insight client
// and the series memo into a single Deps struct that commands and the HTTP
// server receive at runtime.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/derickschaefer/liftlog/internal/calendar"
	"github.com/derickschaefer/liftlog/internal/config"
	"github.com/derickschaefer/liftlog/internal/insight"
	"github.com/derickschaefer/liftlog/internal/series"
	"github.com/derickschaefer/liftlog/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store is nil until RequireStore succeeds; Memo is nil until EnableMemo.
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Insight *insight.Client
	Memo    *series.Memo
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) *Deps {
	client := insight.NewClient(
		cfg.InsightKey,
		cfg.InsightURL,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	return &Deps{
		Config:  cfg,
		Insight: client,
	}
}

// RequireStore opens the bbolt database at Config.DBPath. Calling it again
// is a no-op.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return errors.New("no database path configured (set db_path or LIFTLOG_DB_PATH)")
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = s
	return nil
}

// EnableMemo allocates the series memo from the cache settings. Only the
// long-running server enables it; one-shot commands prepare directly.
func (d *Deps) EnableMemo() *series.Memo {
	if d.Memo == nil {
		d.Memo = series.NewMemo(d.Config.CacheMB, d.Config.CacheTTL)
	}
	return d.Memo
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}

// Today returns the current calendar date in the configured timezone.
func (d *Deps) Today() (calendar.Date, error) {
	loc, err := d.Config.Location()
	if err != nil {
		return calendar.Date{}, err
	}
	return calendar.Today(loc), nil
}

// LoadSeries fetches the rows req needs from src and prepares them. When
// memo is non-nil the result is memoized and hit reports a cache answer.
func LoadSeries(ctx context.Context, src store.RowSource, memo *series.Memo, user string, req series.Request) (p series.Prepared, hit bool, err error) {
	req = req.Normalized()
	from, to := req.Bounds()
	rows, err := src.Logs(ctx, user, from, to)
	if err != nil {
		return series.Prepared{}, false, fmt.Errorf("loading logs: %w", err)
	}
	if memo == nil {
		return series.Prepare(rows, req), false, nil
	}
	p, hit = memo.Prepare(rows, req)
	return p, hit, nil
}
