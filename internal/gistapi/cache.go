package gistapi

import (
	"sync"

	"github.com/google/go-github/v73/github"
	"golang.org/x/sync/singleflight"
)

// sessionCache holds the per-process full-tree cache for getGist, keyed by
// Gist ID. Concurrent fetches for the same ID deduplicate through the
// singleflight group; a successful mutation replaces the cached entry with
// the server-returned post-state instead of invalidating it, avoiding a
// refetch (spec.md §4.3).
type sessionCache struct {
	mu    sync.Mutex
	gists map[string]*github.Gist
	group singleflight.Group
}

func newSessionCache() *sessionCache {
	return &sessionCache{gists: make(map[string]*github.Gist)}
}

func (c *sessionCache) get(id string) (*github.Gist, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gists[id]

	return g, ok
}

func (c *sessionCache) set(id string, g *github.Gist) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gists[id] = g
}

func (c *sessionCache) evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.gists, id)
}

// fetchOnce deduplicates concurrent calls to fn for the same key to a
// single in-flight request, per spec.md §4.3's "concurrent calls for the
// same ID deduplicate to a single in-flight promise".
func (c *sessionCache) fetchOnce(id string, fn func() (*github.Gist, error)) (*github.Gist, error) {
	v, err, _ := c.group.Do(id, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}

	return v.(*github.Gist), nil
}
