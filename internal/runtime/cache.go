package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"

	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/internal/wsdl"
)

const cacheInvalidationChannel = "soapbridge:cache:clear"

// documentCache holds one loaded wsdl.Document per WSDL URL, coalescing
// concurrent loads of the same URL into a single fetch via singleflight, the
// design note that replaces the ad hoc per-request parsing a naive
// implementation would do on every call.
type documentCache struct {
	mu      sync.RWMutex
	entries map[string]*wsdl.Document
	group   singleflight.Group
	timeout time.Duration

	redis *redis.Client // nil when no REDIS_ADDR is configured
}

func newDocumentCache(timeout time.Duration, redisAddr, redisPassword string) *documentCache {
	c := &documentCache{
		entries: make(map[string]*wsdl.Document),
		timeout: timeout,
	}
	if redisAddr != "" {
		c.redis = redis.NewClient(&redis.Options{Addr: redisAddr, Password: redisPassword})
		go c.subscribeInvalidations()
	}
	return c
}

// get returns the cached document for url, loading it (once, even under
// concurrent callers) on a miss.
func (c *documentCache) get(url string) (*wsdl.Document, error) {
	c.mu.RLock()
	if doc, ok := c.entries[url]; ok {
		c.mu.RUnlock()
		return doc, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(url, func() (interface{}, error) {
		doc, err := wsdl.Load(url, c.timeout)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[url] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wsdl.Document), nil
}

// clear drops every cached document and, if Redis is configured, broadcasts
// the clear to every other process sharing this cache so a multi-instance
// deployment invalidates together rather than only locally.
func (c *documentCache) clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*wsdl.Document)
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if err := c.redis.Publish(ctx, cacheInvalidationChannel, "clear").Err(); err != nil {
		logger.Warnf("failed to broadcast cache invalidation: %v", err)
	}
}

func (c *documentCache) subscribeInvalidations() {
	sub := c.redis.Subscribe(context.Background(), cacheInvalidationChannel)
	defer sub.Close()
	ch := sub.Channel()
	for range ch {
		c.mu.Lock()
		c.entries = make(map[string]*wsdl.Document)
		c.mu.Unlock()
		logger.Infof("WSDL document cache cleared via cross-process invalidation")
	}
}
