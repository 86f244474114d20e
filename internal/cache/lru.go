package cache

import (
	"errors"
	"math"
	"sync"
)

// ErrInvalidCapacity 表示构造缓存时容量不在 1..MaxCapacity 内。
var ErrInvalidCapacity = errors.New("cache capacity must be between 1 and MaxCapacity")

// MaxCapacity 受 arena 的 int32 下标限制。
const MaxCapacity = math.MaxInt32

const nilIndex int32 = -1

// maxPrealloc 限制构造时预留的槽位数，更大的容量随写入逐步增长。
const maxPrealloc = 1024

// node 是 arena 中的一条记录，prev/next 保存相邻节点的下标而非指针。
type node struct {
	key   string
	value []byte
	prev  int32
	next  int32
}

// EvictHook 在条目被淘汰后调用（锁外执行），可用于日志。
type EvictHook func(key string)

// Option 调整 LRU 的可选行为。
type Option func(*LRU)

// WithEvictHook 注册淘汰回调。
func WithEvictHook(hook EvictHook) Option {
	return func(c *LRU) {
		c.onEvict = hook
	}
}

// LRU 是线程安全的最近最少使用缓存，Get/Put 均为 O(1)。
//
// head 指向最近使用的节点，tail 指向最久未使用的节点。
type LRU struct {
	mu       sync.Mutex
	capacity int
	nodes    []node
	index    map[string]int32
	head     int32
	tail     int32

	hits      uint64
	misses    uint64
	evictions uint64

	onEvict EvictHook
}

// New 创建容量为 capacity 的缓存，容量在生命周期内不可变。
func New(capacity int, opts ...Option) (*LRU, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	hint := min(capacity, maxPrealloc)
	c := &LRU{
		capacity: capacity,
		nodes:    make([]node, 0, hint),
		index:    make(map[string]int32, hint),
		head:     nilIndex,
		tail:     nilIndex,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get 返回 key 对应的副本并将其提升为最近使用；未命中时不改变任何顺序状态。
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.moveToFront(idx)
	return cloneBytes(c.nodes[idx].value), true
}

// Put 写入或更新 key。已存在时替换值并提升；缓存已满时先淘汰尾部的一个条目。
func (c *LRU) Put(key string, value []byte) {
	evicted, didEvict := c.put(key, cloneBytes(value))
	if didEvict && c.onEvict != nil {
		c.onEvict(evicted)
	}
}

func (c *LRU) put(key string, value []byte) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.index[key]; ok {
		c.nodes[idx].value = value
		c.moveToFront(idx)
		return "", false
	}

	if len(c.index) < c.capacity {
		idx := int32(len(c.nodes))
		c.nodes = append(c.nodes, node{key: key, value: value, prev: nilIndex, next: nilIndex})
		c.pushFront(idx)
		c.index[key] = idx
		return "", false
	}

	// 满容量：复用尾节点所在的槽位。
	idx := c.tail
	evicted := c.nodes[idx].key
	c.unlink(idx)
	delete(c.index, evicted)
	c.evictions++

	c.nodes[idx] = node{key: key, value: value, prev: nilIndex, next: nilIndex}
	c.pushFront(idx)
	c.index[key] = idx
	return evicted, true
}

// Len 返回当前条目数。
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Capacity 返回构造时固定的容量。
func (c *LRU) Capacity() int {
	return c.capacity
}

// Keys 按最近使用到最久未使用的顺序返回所有键的快照，不影响顺序。
func (c *LRU) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.index))
	for idx := c.head; idx != nilIndex; idx = c.nodes[idx].next {
		keys = append(keys, c.nodes[idx].key)
	}
	return keys
}

func (c *LRU) moveToFront(idx int32) {
	if idx == c.head {
		return
	}
	c.unlink(idx)
	c.pushFront(idx)
}

func (c *LRU) pushFront(idx int32) {
	n := &c.nodes[idx]
	n.prev = nilIndex
	n.next = c.head
	if c.head != nilIndex {
		c.nodes[c.head].prev = idx
	}
	c.head = idx
	if c.tail == nilIndex {
		c.tail = idx
	}
}

func (c *LRU) unlink(idx int32) {
	n := &c.nodes[idx]
	if n.prev != nilIndex {
		c.nodes[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nilIndex {
		c.nodes[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nilIndex
	n.next = nilIndex
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
