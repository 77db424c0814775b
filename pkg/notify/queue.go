package notify

import (
	"context"
	"sync"
	"time"
)

// Kind of notification
type Kind string

const (
	KindShiftStarted   Kind = "shift_started"
	KindShiftCompleted Kind = "shift_completed"
)

// DefaultMaxPerRecipient bounds how many undelivered notifications are kept per recipient
const DefaultMaxPerRecipient = 100

// Notification is a message for a worker or coordinator
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ShiftID   string    `json:"shift_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue delivers notifications. Enqueue failures never roll back the caller's work.
type Queue interface {
	Enqueue(ctx context.Context, n Notification) error
	Drain(ctx context.Context, recipient string) ([]Notification, error)
}

// MemoryQueue keeps notifications in process memory until drained
type MemoryQueue struct {
	mu      sync.Mutex
	max     int
	pending map[string][]Notification
}

// NewMemoryQueue creates an in-memory queue. Oldest entries are dropped once
// a recipient has more than maxPerRecipient pending.
func NewMemoryQueue(maxPerRecipient int) *MemoryQueue {
	if maxPerRecipient <= 0 {
		maxPerRecipient = DefaultMaxPerRecipient
	}
	return &MemoryQueue{
		max:     maxPerRecipient,
		pending: make(map[string][]Notification),
	}
}

// Enqueue adds n to the recipient's pending list
func (q *MemoryQueue) Enqueue(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	list := append(q.pending[n.Recipient], n)
	if len(list) > q.max {
		list = list[len(list)-q.max:]
	}
	q.pending[n.Recipient] = list
	return nil
}

// Drain returns and removes every pending notification for recipient, oldest first
func (q *MemoryQueue) Drain(ctx context.Context, recipient string) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.pending[recipient]
	delete(q.pending, recipient)
	if list == nil {
		list = []Notification{}
	}
	return list, nil
}
