package series

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coocood/freecache"

	"github.com/derickschaefer/liftlog/internal/model"
)

// Memo caches Prepare results keyed by a digest of every input: the rows
// and the whole Request. Identical inputs always map to the same entry and
// any change to rows produces a new key, so entries never need explicit
// invalidation; they simply age out after the TTL.
type Memo struct {
	cache *freecache.Cache
	ttl   int // seconds
}

type memoEntry struct {
	Prepared Prepared       `json:"prepared"`
	Rows     []model.LogRow `json:"rows"`
}

// NewMemo allocates a cache of sizeMB megabytes. freecache rejects single
// entries larger than 1/1024 of the cache; those results are computed but
// not stored.
func NewMemo(sizeMB int, ttl time.Duration) *Memo {
	if sizeMB < 1 {
		sizeMB = 1
	}
	return &Memo{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   int(ttl / time.Second),
	}
}

// Prepare returns the cached result for (rows, req) or computes and stores
// it. hit reports whether the cache answered.
func (m *Memo) Prepare(rows []model.LogRow, req Request) (p Prepared, hit bool) {
	req = req.Normalized()
	key, err := memoKey(rows, req)
	if err != nil {
		slog.Debug("series memo: key", "err", err)
		return Prepare(rows, req), false
	}

	if b, err := m.cache.Get(key); err == nil {
		var e memoEntry
		if err := json.Unmarshal(b, &e); err == nil {
			e.Prepared.Rows = e.Rows
			return e.Prepared, true
		}
		slog.Debug("series memo: corrupt entry dropped", "err", err)
		m.cache.Del(key)
	}

	p = Prepare(rows, req)
	b, err := json.Marshal(memoEntry{Prepared: p, Rows: p.Rows})
	if err == nil {
		err = m.cache.Set(key, b, m.ttl)
	}
	if err != nil {
		slog.Debug("series memo: not cached", "err", err, "bytes", len(b))
	}
	return p, false
}

// Stats returns hit and miss counts since creation.
func (m *Memo) Stats() (hits, misses int64) {
	return m.cache.HitCount(), m.cache.MissCount()
}

// Clear drops every entry.
func (m *Memo) Clear() {
	m.cache.Clear()
}

func memoKey(rows []model.LogRow, req Request) ([]byte, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	if err := enc.Encode(rows); err != nil {
		return nil, err
	}
	sum := h.Sum(nil)
	return []byte("prep:" + hex.EncodeToString(sum)), nil
}
