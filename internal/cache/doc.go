// Package cache implements the bounded in-memory response cache shared by all
// connection workers. Entries are keyed by the normalized absolute URL and the
// cache holds at most a fixed number of them; when full, the least recently
// used entry is evicted. Nodes live in a dense arena addressed by int32 index
// so move-to-front and tail eviction stay O(1) without pointer cycles. A single
// mutex serializes every operation, which is fine because each one is O(1).
package cache
