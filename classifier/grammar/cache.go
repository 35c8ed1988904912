package grammar

import (
	"container/list"
	"sync"
)

// compileCacheCapacity is the minimum LRU size called for by the
// compiler's caching contract; rule catalogs routinely reuse a handful
// of grammar bodies across many rules, so a cold compile per rule would
// otherwise repeat work on every catalog load.
const compileCacheCapacity = 256

// No LRU implementation appears anywhere in the retrieved corpus, so
// this wraps container/list directly rather than reach for an
// unrelated dependency just to get one.
type lruCache struct {
	mu       sync.Mutex
	cap      int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key string
	val Matcher
	err error
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (Matcher, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return Matcher{}, nil, false
	}
	c.ll.MoveToFront(el)
	e := el.Value.(*cacheEntry)
	return e.val, e.err, true
}

func (c *lruCache) put(key string, val Matcher, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).val = val
		el.Value.(*cacheEntry).err = err
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, val: val, err: err})
	c.items[key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

var defaultCache = newLRUCache(compileCacheCapacity)

// CompileGrammar compiles a grammar expression into a Matcher, reusing a
// process-wide LRU cache keyed on the raw expression text. Safe for
// concurrent use by multiple scans sharing the same catalog.
func CompileGrammar(expr string) (Matcher, error) {
	if m, err, ok := defaultCache.get(expr); ok {
		return m, err
	}
	m, err := CompileExpr(expr)
	defaultCache.put(expr, m, err)
	return m, err
}
