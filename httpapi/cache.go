package httpapi

import (
	"container/list"
	"sync"

	"github.com/Skryldev/battlegw/domain/model"
)

// battleCache is the in-memory battle cache read by record_vote and
// written by generate_battle/record_vote, guarded by a single
// sync.RWMutex (spec.md §5). size == 0 means unbounded, matching the
// original's plain dict; a positive size evicts the least recently used
// entry once exceeded, hand-rolled on container/list since no example
// repo in the pack carries an LRU library.
type battleCache struct {
	mu       sync.RWMutex
	size     int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	uuid   string
	battle *model.Battle
}

func newBattleCache(size int) *battleCache {
	return &battleCache{
		size:    size,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *battleCache) Get(uuid string) (*model.Battle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[uuid]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).battle, true
}

func (c *battleCache) Put(uuid string, battle *model.Battle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[uuid]; ok {
		el.Value.(*cacheEntry).battle = battle
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{uuid: uuid, battle: battle})
	c.entries[uuid] = el
	if c.size > 0 && c.order.Len() > c.size {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).uuid)
		}
	}
}
