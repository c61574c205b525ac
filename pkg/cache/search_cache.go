package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// 默认配置，和客户端约定保持一致
const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 50
)

// Stats 缓存统计信息，ttl_ms以毫秒计
type Stats struct {
	Size    int   `json:"size"`
	TTLMs   int64 `json:"ttl_ms"`
	MaxSize int   `json:"max_size"`
}

// entry 缓存条目
type entry struct {
	key       string
	value     interface{}
	timestamp time.Time
}

// SearchCache 进程内搜索结果缓存
//
// 按(mode, 规范化query)作为键，固定容量，超出时淘汰最久未使用的条目。
// 过期在读取时惰性判断，没有后台清理。
type SearchCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]*list.Element
	order   *list.List // 队首是最近使用，队尾待淘汰
	now     func() time.Time
}

// NewSearchCache 创建搜索缓存
func NewSearchCache(ttl time.Duration, maxSize int) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &SearchCache{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// normalizeKey 规范化缓存键：mode分区 + 去空白小写后的query
func normalizeKey(mode, query string) string {
	return mode + ":" + strings.ToLower(strings.TrimSpace(query))
}

// Get 查询缓存，未命中或已过期返回nil
//
// 命中会刷新条目的最近使用位置，过期条目在此处直接移除。
func (c *SearchCache) Get(mode, query string) interface{} {
	key := normalizeKey(mode, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil
	}

	ent := elem.Value.(*entry)
	if c.now().Sub(ent.timestamp) > c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil
	}

	c.order.MoveToFront(elem)
	return ent.value
}

// Set 写入缓存，已存在则替换并刷新，容量满时先淘汰最久未使用的条目
func (c *SearchCache) Set(mode, query string, value interface{}) {
	key := normalizeKey(mode, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.timestamp = c.now()
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}

	elem := c.order.PushFront(&entry{
		key:       key,
		value:     value,
		timestamp: c.now(),
	})
	c.items[key] = elem
}

// Clear 清空缓存
func (c *SearchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Stats 返回缓存统计
func (c *SearchCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:    c.order.Len(),
		TTLMs:   c.ttl.Milliseconds(),
		MaxSize: c.maxSize,
	}
}
