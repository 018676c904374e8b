package cache

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// PageCache stores rendered pages by key. Implementations must be safe for concurrent use.
type PageCache interface {
	// Get returns the stored value and whether it was found and not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// PageKey derives a cache key from the content a page was rendered from,
// so a changed guide never hits a stale entry.
func PageKey(name string, source []byte) string {
	return "page:" + name + ":" + strconv.FormatUint(xxhash.Sum64(source), 16)
}
