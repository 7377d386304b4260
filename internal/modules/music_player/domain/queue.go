package domain

import (
	"math/rand"
	"time"
)

// Queue is a strict-FIFO track queue owned by a single player. Play order is
// insertion order: Pop and Peek operate on the head, Push appends, PushFront
// inserts at the head for "play next" semantics. The queue itself is not
// goroutine-safe; the owning player serializes access.
type Queue struct {
	items []*Item
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		items: make([]*Item, 0),
	}
}

// IsEmpty returns true if the queue has no items.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue) Len() int {
	return len(q.items)
}

// Peek returns the head of the queue without removing it, or nil if empty.
func (q *Queue) Peek() *Item {
	if q.IsEmpty() {
		return nil
	}
	return q.items[0]
}

// Pop removes and returns the head of the queue, or nil if empty.
func (q *Queue) Pop() *Item {
	if q.IsEmpty() {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// Push appends items in order. Pushing a flattened playlist preserves its
// internal order.
func (q *Queue) Push(items ...*Item) {
	q.items = append(q.items, items...)
}

// PushFront inserts items at the head, preserving their relative order, so a
// playlist pushed to the front plays in its original order as the very next
// items.
func (q *Queue) PushFront(items ...*Item) {
	q.items = append(items, q.items...)
}

// Clear removes all items.
func (q *Queue) Clear() {
	q.items = q.items[:0]
}

// Shuffle reorders all items with a uniform random permutation.
func (q *Queue) Shuffle() {
	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
}

// Items returns a copy of the queue contents for display and scanning.
func (q *Queue) Items() []*Item {
	result := make([]*Item, len(q.items))
	copy(result, q.items)
	return result
}

// DurationUntil sums the durations of all items strictly before the first
// occurrence of item. Returns 0 for the head item and the total queue
// duration if the item is not present.
func (q *Queue) DurationUntil(item *Item) time.Duration {
	var total time.Duration
	for _, it := range q.items {
		if it == item {
			break
		}
		total += it.Duration
	}
	return total
}

// Replace swaps old for replacement in place, preserving its position.
// Returns false if old is no longer in the queue.
func (q *Queue) Replace(old, replacement *Item) bool {
	for i, it := range q.items {
		if it == old {
			q.items[i] = replacement
			return true
		}
	}
	return false
}

// Remove deletes the first occurrence of item. Returns false if not present.
func (q *Queue) Remove(item *Item) bool {
	for i, it := range q.items {
		if it == item {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}
