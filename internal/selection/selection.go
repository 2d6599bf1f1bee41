// Package selection implements the single-pointer click-delta interaction
// layer and the time-cursor broadcast that keeps a map viewport's highlight
// synchronized with pointer movement over a plot.
package selection

import (
	"fmt"
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// ClickDeltaResult is the annotated delta between two clicks in the same
// y-range bucket.
type ClickDeltaResult struct {
	Bucket         plotmodel.ExpectedPlotRange
	StartX, StartY float64
	EndX, EndY     float64
	DeltaX, DeltaY float64
}

// String renders the result the way the delta annotation is drawn on the
// plot: a compact "Δx=... Δy=..." label.
func (r ClickDeltaResult) String() string {
	return fmt.Sprintf("Δx=%.3f Δy=%.3f", r.DeltaX, r.DeltaY)
}

type pendingClick struct {
	bucket plotmodel.ExpectedPlotRange
	x, y   float64
}

// ClickDeltaTracker holds the single pending click of a click-delta
// interaction. It is reset on any non-shift click.
type ClickDeltaTracker struct {
	mu      sync.Mutex
	pending *pendingClick
}

// NewClickDeltaTracker returns an empty tracker.
func NewClickDeltaTracker() *ClickDeltaTracker {
	return &ClickDeltaTracker{}
}

// Click records a click at (x, y) within bucket. A non-shift click always
// resets the tracker to a fresh pending click and returns (nil, true). A
// shift-click either starts the pending click (first of a pair, returns
// (nil, false)), completes it when the bucket matches (returns the delta,
// clearing the pending state, (_, false)), or — when the bucket doesn't
// match the pending click's — restarts the pending click in the new bucket,
// since a delta across buckets is meaningless (returns (nil, false)).
func (t *ClickDeltaTracker) Click(shift bool, bucket plotmodel.ExpectedPlotRange, x, y float64) (*ClickDeltaResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !shift {
		t.pending = &pendingClick{bucket: bucket, x: x, y: y}
		return nil, true
	}

	if t.pending == nil || t.pending.bucket != bucket {
		t.pending = &pendingClick{bucket: bucket, x: x, y: y}
		return nil, false
	}

	start := *t.pending
	t.pending = nil
	return &ClickDeltaResult{
		Bucket: bucket,
		StartX: start.x, StartY: start.y,
		EndX: x, EndY: y,
		DeltaX: x - start.x, DeltaY: y - start.y,
	}, false
}

// Reset clears any pending click.
func (t *ClickDeltaTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
}

// cursorSub is one subscriber's delivery channel, matching the teacher's
// clientStream shape in internal/lidar/visualiser/publisher.go.
type cursorSub struct {
	id string
	ch chan float64
}

// CursorBroadcaster fans a single f64 timestamp out to every subscribed map
// viewport on pointer move. Slow subscribers are dropped, never blocked on.
type CursorBroadcaster struct {
	mu     sync.RWMutex
	subs   map[string]*cursorSub
	nextID int
}

// NewCursorBroadcaster returns an empty broadcaster.
func NewCursorBroadcaster() *CursorBroadcaster {
	return &CursorBroadcaster{subs: make(map[string]*cursorSub)}
}

// Subscribe registers a new receiver and returns its channel plus an
// unsubscribe function. The channel has a small buffer; a subscriber that
// falls behind has updates silently dropped rather than blocking Move.
func (b *CursorBroadcaster) Subscribe() (<-chan float64, func()) {
	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("cursor-%d", b.nextID)
	sub := &cursorSub{id: id, ch: make(chan float64, 4)}
	b.subs[id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
	return sub.ch, unsubscribe
}

// Move broadcasts timestampNs to every current subscriber.
func (b *CursorBroadcaster) Move(timestampNs float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- timestampNs:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *CursorBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
