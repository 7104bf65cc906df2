package kernel

import (
	"container/heap"
	"strconv"
	"strings"

	"github.com/DangMmo/vrp2e-alns/internal/problem"
)

// Cache is a bounded LRU memoizing SEEvaluate, keyed on (node id tuple,
// satellite id, start time). Eviction tracks least-recently-used via a
// container/heap min-heap ordered by a monotonic use counter. It is an
// optimization only: a correct solver never depends on what is or isn't
// cached.
type Cache struct {
	capacity int
	seq      int
	entries  map[string]*cacheEntry
	order    lruHeap
}

type cacheEntry struct {
	key      string
	ok       bool
	result   SEResult
	lastUsed int
	index    int
}

type lruHeap []*cacheEntry

func (h lruHeap) Len() int            { return len(h) }
func (h lruHeap) Less(i, j int) bool  { return h[i].lastUsed < h[j].lastUsed }
func (h lruHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *lruHeap) Push(x interface{}) {
	e := x.(*cacheEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *lruHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// NewCache builds an LRU cache bounded to capacity entries. A non-positive
// capacity disables caching (every lookup is a miss).
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
	}
}

func cacheKey(nodesID []int, satelliteID int, startTime float64) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(satelliteID))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(startTime, 'f', 6, 64))
	b.WriteByte('|')
	for i, id := range nodesID {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// EvaluateSE looks up (nodesID, satelliteID, startTime) in the cache,
// falling back to SEEvaluate and populating the cache on a miss.
func (c *Cache) EvaluateSE(nodesID []int, satelliteID int, startTime float64, p *problem.ProblemInstance) (bool, SEResult) {
	if c == nil || c.capacity <= 0 {
		return SEEvaluate(nodesID, startTime, p)
	}
	key := cacheKey(nodesID, satelliteID, startTime)
	if e, found := c.entries[key]; found {
		c.seq++
		e.lastUsed = c.seq
		heap.Fix(&c.order, e.index)
		return e.ok, e.result
	}

	ok, res := SEEvaluate(nodesID, startTime, p)

	if len(c.entries) >= c.capacity {
		oldest := heap.Pop(&c.order).(*cacheEntry)
		delete(c.entries, oldest.key)
	}
	c.seq++
	e := &cacheEntry{key: key, ok: ok, result: res, lastUsed: c.seq}
	c.entries[key] = e
	heap.Push(&c.order, e)
	return ok, res
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
