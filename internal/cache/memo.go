package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/periodize/internal/model"
)

// DatingMemo remembers the result of parsing a raw dating string.
// Museum exports repeat the same handful of dating strings across thousands
// of rows, so most rows are served from here.
type DatingMemo struct {
	cache *gocache.Cache
}

// NewDatingMemo creates a memo whose entries live for ttl (zero: forever)
func NewDatingMemo(ttl time.Duration) *DatingMemo {
	cleanup := 10 * time.Minute
	if ttl == 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &DatingMemo{cache: gocache.New(ttl, cleanup)}
}

// Get returns the stored result for raw
func (m *DatingMemo) Get(raw string) (model.Dating, bool) {
	val, found := m.cache.Get(raw)
	if !found {
		return model.Dating{}, false
	}
	d, ok := val.(model.Dating)
	return d, ok
}

// Put stores the result for raw
func (m *DatingMemo) Put(raw string, d model.Dating) {
	m.cache.SetDefault(raw, d)
}

// Len returns the number of memoized strings
func (m *DatingMemo) Len() int {
	return m.cache.ItemCount()
}

// Reset forgets every entry
func (m *DatingMemo) Reset() {
	m.cache.Flush()
}
