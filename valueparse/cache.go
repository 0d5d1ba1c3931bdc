package valueparse

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// valueCacheSize mirrors the original parser's lru_cache(maxsize=1_000_000):
// individual scalar parses are expensive enough (date format probing, WKT
// recognition) that memoizing them across an entire sync run pays off.
const valueCacheSize = 1_000_000

// cacheKey identifies a memoized parseValue call. kind (see kindOf) keeps
// keys apart whose repr matches but whose value kinds differ. parseValue
// only receives normalized strings, so every key it builds carries kind 's';
// source values that normalize to the same string, such as int 0 and float
// 0.0 (both "0"), share one cache entry. opts is compared by
// pointer identity: every distinct parsing-options version is resolved once
// and reused, so pointer equality is a faithful proxy for value equality.
type cacheKey struct {
	opts *Options
	kind byte
	repr string
}

var (
	valueCache     *lru.Cache[cacheKey, map[ParsedType]any]
	valueCacheOnce sync.Once
)

func getValueCache() *lru.Cache[cacheKey, map[ParsedType]any] {
	valueCacheOnce.Do(func() {
		c, err := lru.New[cacheKey, map[ParsedType]any](valueCacheSize)
		if err != nil {
			// only size <= 0 can cause this, and valueCacheSize is a constant
			panic(fmt.Sprintf("valueparse: failed to build value cache: %v", err))
		}
		valueCache = c
	})
	return valueCache
}

func kindOf(value any) byte {
	switch value.(type) {
	case bool:
		return 'b'
	case int, int64, int32:
		return 'i'
	case float64, float32:
		return 'f'
	default:
		return 's'
	}
}
