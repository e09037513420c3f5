package calendar

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const zoneCacheSize = 256

type zoneEntry struct {
	loc *time.Location
	err error
}

// zoneCache memoizes time.LoadLocation, which reads the tz database on every
// call. Failed lookups are cached too.
type zoneCache struct {
	cache *lru.Cache[string, zoneEntry]
}

func newZoneCache(size int) *zoneCache {
	if size <= 0 {
		size = zoneCacheSize
	}
	cache, err := lru.New[string, zoneEntry](size)
	if err != nil {
		// lru.New only errors on non-positive size which we guard above.
		return &zoneCache{}
	}
	return &zoneCache{cache: cache}
}

func (z *zoneCache) load(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}
	if z.cache != nil {
		if e, ok := z.cache.Get(name); ok {
			return e.loc, e.err
		}
	}
	loc, err := time.LoadLocation(name)
	if z.cache != nil {
		z.cache.Add(name, zoneEntry{loc: loc, err: err})
	}
	return loc, err
}

var sharedZones = newZoneCache(zoneCacheSize)

// LoadZone resolves an IANA zone id, returning UTC for an empty id.
func LoadZone(name string) (*time.Location, error) {
	return sharedZones.load(name)
}
