package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farewatch/fare-service/internal/query"
)

const pagePrefix = "pages/"

// BuildPageKey builds the storage key for a rendered segment page
func BuildPageKey(seg query.Segment, url string) string {
	return fmt.Sprintf(pagePrefix+"%s-%s/%s/%s.txt", seg.Origin, seg.Destination, seg.DateString(), ComputeChecksum([]byte(url))[:16])
}

// PageCache stores the raw rendered text of segment pages. Entries older than
// MaxAge are treated as absent; a zero MaxAge never expires.
type PageCache struct {
	store  Storage
	maxAge time.Duration
	now    func() time.Time
}

// NewPageCache wraps a storage backend
func NewPageCache(store Storage, maxAge time.Duration) *PageCache {
	return &PageCache{store: store, maxAge: maxAge, now: time.Now}
}

// Load returns the cached text for a segment page, if present and fresh
func (c *PageCache) Load(ctx context.Context, seg query.Segment, url string) (string, bool, error) {
	key := BuildPageKey(seg, url)

	if c.maxAge > 0 {
		info, err := c.store.GetInfo(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if c.expired(info) {
			return "", false, nil
		}
	}

	content, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(content), true, nil
}

// MaxAge returns how long entries stay fresh; zero never expires
func (c *PageCache) MaxAge() time.Duration {
	return c.maxAge
}

func (c *PageCache) expired(info *FileInfo) bool {
	renderedAt := info.ModifiedAt
	if info.Metadata != nil && !info.Metadata.RenderedAt.IsZero() {
		renderedAt = info.Metadata.RenderedAt
	}
	return c.now().Sub(renderedAt) > c.maxAge
}

// Prune deletes expired pages and returns how many were removed. It is a
// no-op when entries never expire.
func (c *PageCache) Prune(ctx context.Context) (int, error) {
	if c.maxAge <= 0 {
		return 0, nil
	}
	keys, err := c.store.List(ctx, pagePrefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		info, err := c.store.GetInfo(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if !c.expired(info) {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Save stores the rendered text of a segment page
func (c *PageCache) Save(ctx context.Context, seg query.Segment, url, text string) error {
	return c.store.Put(ctx, BuildPageKey(seg, url), []byte(text), &Metadata{
		ContentType: "text/plain; charset=utf-8",
		SourceURL:   url,
		Route:       seg.Origin + "-" + seg.Destination,
		SearchDate:  seg.DateString(),
		RenderedAt:  c.now().UTC(),
		Length:      len(text),
	})
}
