// Package notify is the app-wide notice channel: services publish short
// success, error and info messages and the UI or CLI subscribes to show them.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Level classifies a notice.
type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one dismissible message.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Bus fans notices out to subscribers. Slow subscribers miss notices
// rather than block publishers.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Notice
	nextID int
	buffer int
}

// NewBus creates a bus whose subscriptions buffer up to buffer notices.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{subs: make(map[int]chan Notice), buffer: buffer}
}

// Subscribe returns a channel of notices and a function that ends the
// subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Notice, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Notice, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers n to every subscriber.
func (b *Bus) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Publishf formats and publishes a notice.
func (b *Bus) Publishf(level Level, format string, args ...any) {
	b.Publish(Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}
