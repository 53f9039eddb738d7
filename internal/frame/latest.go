package frame

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Frame is a completed sweep captured for rendering.
type Frame struct {
	Seq        uint64     `json:"seq"`
	Session    uuid.UUID  `json:"session"`
	CapturedAt time.Time  `json:"captured_at"`
	Matrix     *Matrix    `json:"-"`
	Stats      SweepStats `json:"stats"`
}

// Latest is a single-slot mailbox holding the freshest Frame. Publishing
// overwrites any frame the consumer has not picked up yet; consumers always
// see the newest one.
type Latest struct {
	mu     sync.Mutex
	frame  Frame
	seq    uint64
	notify chan struct{}
}

// NewLatest returns an empty mailbox.
func NewLatest() *Latest {
	return &Latest{notify: make(chan struct{}, 1)}
}

// Publish stores f, assigning it the next sequence number, and returns the
// stored frame. It never blocks.
func (l *Latest) Publish(f Frame) Frame {
	l.mu.Lock()
	l.seq++
	f.Seq = l.seq
	l.frame = f
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
	return f
}

// Load returns the most recent frame and whether one has been published.
func (l *Latest) Load() (Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame, l.seq > 0
}

// Updated returns a channel that receives after each Publish. Several
// publishes between receives coalesce into one notification.
func (l *Latest) Updated() <-chan struct{} {
	return l.notify
}
