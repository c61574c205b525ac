package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache 返回使用虚拟时钟的缓存
func newTestCache(ttl time.Duration, maxSize int) (*SearchCache, *time.Time) {
	c := NewSearchCache(ttl, maxSize)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)
	assert.Nil(t, c.Get("albums", "x"))
}

func TestSetGetNormalizesKey(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)

	c.Set("albums", "Beatles", "result")
	assert.Equal(t, "result", c.Get("albums", "beatles"))
	assert.Equal(t, "result", c.Get("albums", "  Beatles  "))
}

func TestModesDoNotCollide(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)

	c.Set("albums", "x", "album-result")
	c.Set("artists", "x", "artist-result")

	assert.Equal(t, "album-result", c.Get("albums", "x"))
	assert.Equal(t, "artist-result", c.Get("artists", "x"))
}

func TestExpiredEntryEvictedOnAccess(t *testing.T) {
	c, now := newTestCache(DefaultTTL, DefaultMaxSize)

	c.Set("albums", "beatles", "result")

	// TTL内命中
	*now = now.Add(DefaultTTL)
	assert.Equal(t, "result", c.Get("albums", "beatles"))

	// 超过TTL后返回nil并移除条目
	*now = now.Add(time.Millisecond)
	assert.Nil(t, c.Get("albums", "beatles"))
	assert.Equal(t, 0, c.Stats().Size)
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, 3)

	c.Set("albums", "a", 1)
	c.Set("albums", "b", 2)
	c.Set("albums", "c", 3)

	// 触碰a，保护它不被淘汰
	require.Equal(t, 1, c.Get("albums", "a"))

	// 插入第4个，淘汰最久未使用的b
	c.Set("albums", "d", 4)

	assert.Equal(t, 1, c.Get("albums", "a"))
	assert.Nil(t, c.Get("albums", "b"))
	assert.Equal(t, 3, c.Get("albums", "c"))
	assert.Equal(t, 4, c.Get("albums", "d"))
	assert.Equal(t, 3, c.Stats().Size)
}

func TestCapacityNeverExceeded(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)

	for i := 0; i < DefaultMaxSize*2; i++ {
		c.Set("albums", fmt.Sprintf("query-%d", i), i)
	}
	assert.Equal(t, DefaultMaxSize, c.Stats().Size)
}

func TestSetReplacesExistingKey(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, 2)

	c.Set("albums", "a", 1)
	c.Set("albums", "b", 2)
	c.Set("albums", "a", 10)

	// 替换不应触发淘汰
	assert.Equal(t, 10, c.Get("albums", "a"))
	assert.Equal(t, 2, c.Get("albums", "b"))
	assert.Equal(t, 2, c.Stats().Size)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)

	c.Set("albums", "a", 1)
	c.Set("artists", "b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	assert.Nil(t, c.Get("albums", "a"))
	assert.Nil(t, c.Get("artists", "b"))
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)
	c.Set("albums", "a", 1)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(300000), stats.TTLMs)
	assert.Equal(t, DefaultMaxSize, stats.MaxSize)
}

func TestStatsJSONShape(t *testing.T) {
	c, _ := newTestCache(DefaultTTL, DefaultMaxSize)

	payload, err := json.Marshal(c.Stats())
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":0,"ttl_ms":300000,"max_size":50}`, string(payload))
}
