package content

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dcrodman/rupeepatch/internal/xnb"
)

// Cache holds decoded replacement assets keyed by file name. Entries do not
// expire unless given a TTL.
type Cache struct {
	cacheInstance *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{cacheInstance: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

// Put sets a key/value pair in the cache with an optional duration. Passing 0 for
// ttl will cause the default expiration to be used and -1 will not set a ttl.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) {
	c.cacheInstance.Set(key, value, ttl)
}

// Get fetches a value from the cache, returning the value as well as whether
// or not the value was found (semantics similar to map).
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cacheInstance.Get(key)
}

// Len is the number of cached assets.
func (c *Cache) Len() int {
	return c.cacheInstance.ItemCount()
}

// assets loads replacement sprites (PNG) and sounds (WAV) from a directory,
// decoding each file at most once.
type assets struct {
	dir   string
	cache *Cache
}

func (a *assets) image(name string) (image.Image, error) {
	file := name + ".png"
	if v, ok := a.cache.Get(file); ok {
		return v.(image.Image), nil
	}
	f, err := os.Open(filepath.Join(a.dir, file))
	if err != nil {
		return nil, errors.Wrapf(err, "loading sprite %s", name)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding sprite %s", name)
	}
	a.cache.Put(file, img, gocache.NoExpiration)
	return img, nil
}

func (a *assets) sound(name string) (*xnb.PCM, error) {
	file := name + ".wav"
	if v, ok := a.cache.Get(file); ok {
		return v.(*xnb.PCM), nil
	}
	pcm, err := xnb.ReadWAVFile(filepath.Join(a.dir, file))
	if err != nil {
		return nil, errors.Wrapf(err, "loading sound %s", name)
	}
	a.cache.Put(file, pcm, gocache.NoExpiration)
	return pcm, nil
}
