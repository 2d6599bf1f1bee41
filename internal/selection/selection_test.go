package selection

import (
	"testing"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func TestClickDeltaTracksShiftClickPair(t *testing.T) {
	tr := NewClickDeltaTracker()

	result, reset := tr.Click(false, plotmodel.RangeThousands, 10, 20)
	if result != nil || !reset {
		t.Fatalf("expected non-shift click to reset with no result, got result=%v reset=%v", result, reset)
	}

	result, reset = tr.Click(true, plotmodel.RangeThousands, 30, 50)
	if result == nil {
		t.Fatal("expected a delta result from the second shift-click")
	}
	if reset {
		t.Fatal("shift-click completing a pair should not report reset")
	}
	if result.DeltaX != 20 || result.DeltaY != 30 {
		t.Fatalf("unexpected delta: %+v", result)
	}
}

func TestClickDeltaResetOnNonShiftClick(t *testing.T) {
	tr := NewClickDeltaTracker()
	tr.Click(false, plotmodel.RangeThousands, 0, 0)
	tr.Click(true, plotmodel.RangeThousands, 5, 5)

	// A following non-shift click discards the pending pair.
	result, reset := tr.Click(false, plotmodel.RangeThousands, 1, 1)
	if result != nil || !reset {
		t.Fatalf("expected reset with no result, got result=%v reset=%v", result, reset)
	}

	// A further shift-click now starts a fresh pair from the reset point.
	result, _ = tr.Click(true, plotmodel.RangeThousands, 4, 4)
	if result == nil || result.DeltaX != 3 || result.DeltaY != 3 {
		t.Fatalf("expected delta from new pair, got %+v", result)
	}
}

func TestClickDeltaIgnoresMismatchedBucket(t *testing.T) {
	tr := NewClickDeltaTracker()
	tr.Click(false, plotmodel.RangeThousands, 0, 0)

	result, reset := tr.Click(true, plotmodel.RangePercentage, 1, 1)
	if result != nil || reset {
		t.Fatalf("expected no result for a cross-bucket shift-click, got result=%v reset=%v", result, reset)
	}

	// The mismatched click becomes the new pending click, in its own bucket.
	result, _ = tr.Click(true, plotmodel.RangePercentage, 0.5, 0.6)
	if result == nil || result.Bucket != plotmodel.RangePercentage {
		t.Fatalf("expected a same-bucket delta to complete, got %+v", result)
	}
}

func TestCursorBroadcasterDeliversToSubscribers(t *testing.T) {
	b := NewCursorBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Move(42.0)
	select {
	case ts := <-ch:
		if ts != 42.0 {
			t.Fatalf("unexpected timestamp: %v", ts)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestCursorBroadcasterDropsOnFullSlowSubscriber(t *testing.T) {
	b := NewCursorBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	// Fill the subscriber's buffer without draining it.
	for i := 0; i < 100; i++ {
		b.Move(float64(i))
	}
	// Move must not block despite the full channel.
	if len(ch) == 0 {
		t.Fatal("expected the buffered channel to hold at least one value")
	}
}

func TestCursorBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewCursorBroadcaster()
	_, unsubscribe := b.Subscribe()
	unsubscribe()
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", b.SubscriberCount())
	}
	b.Move(1.0) // must not panic with no subscribers
}
