package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/streamtube/backend/internal/models"
)

type profileEntry struct {
	profile models.ChannelProfile
	expires time.Time
}

// CachingChannelReader wraps a ChannelReader with a TTL-based in-memory
// cache. Profiles are cached per (username, viewer) pair because the
// isSubscribed flag depends on who is asking; subscriber counts may lag the
// datastore by at most the TTL. Expired entries are swept out once per TTL
// so the map does not accumulate stale keys.
type CachingChannelReader struct {
	base ChannelReader
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	items     map[string]profileEntry
	lastSweep time.Time
}

// NewCachingChannelReader returns a ChannelReader that caches profile
// lookups for the provided TTL.
func NewCachingChannelReader(base ChannelReader, ttl time.Duration) *CachingChannelReader {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingChannelReader{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]profileEntry),
	}
}

// ChannelProfile returns a cached profile when fresh, otherwise delegates to
// the underlying reader and stores the result.
func (c *CachingChannelReader) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	key := username + "\x00" + viewerID
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.profile, nil
	}

	profile, err := c.base.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	c.mu.Lock()
	c.items[key] = profileEntry{profile: profile, expires: now.Add(c.ttl)}
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
		c.lastSweep = now
	}
	c.mu.Unlock()

	return profile, nil
}

func (c *CachingChannelReader) sweepLocked(now time.Time) {
	for key, entry := range c.items {
		if !now.Before(entry.expires) {
			delete(c.items, key)
		}
	}
}

var _ ChannelReader = (*CachingChannelReader)(nil)
