package mqttlive

import (
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// LiveBuffer is the append-only per-topic point store the plot assembler
// drains on each UI poll: a mapping from topic string to an
// insertion-ordered slice of points, per topic.
type LiveBuffer struct {
	mu     sync.Mutex
	byTopic map[string][]plotmodel.Point
	legend  map[string]string
}

// NewLiveBuffer constructs an empty LiveBuffer.
func NewLiveBuffer() *LiveBuffer {
	return &LiveBuffer{
		byTopic: make(map[string][]plotmodel.Point),
		legend:  make(map[string]string),
	}
}

// Append adds one point to its topic's series, preserving arrival order.
func (b *LiveBuffer) Append(item MqttTopicData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byTopic[item.Topic] = append(b.byTopic[item.Topic], item.Point)
	if item.Legend != "" {
		b.legend[item.Topic] = item.Legend
	}
}

// Drain performs a non-blocking drain of msgs, routing Data messages into
// their per-topic series and returning any ConnectionState transitions
// seen along the way (in arrival order). This is the "UI-poll step" that
// never blocks: callers invoke it once per frame.
func (b *LiveBuffer) Drain(msgs <-chan MqttMessage) []ConnectionState {
	var states []ConnectionState
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return states
			}
			switch msg.Kind {
			case MessageState:
				states = append(states, msg.State)
			case MessageData:
				for _, item := range msg.Data.Items() {
					b.Append(item)
				}
			}
		default:
			return states
		}
	}
}

// Topics returns every topic currently holding data.
func (b *LiveBuffer) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.byTopic))
	for t := range b.byTopic {
		out = append(out, t)
	}
	return out
}

// Points returns a copy of the ordered point series for topic.
func (b *LiveBuffer) Points(topic string) []plotmodel.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.byTopic[topic]
	out := make([]plotmodel.Point, len(src))
	copy(out, src)
	return out
}

// Legend returns the legend name recorded for topic, if any.
func (b *LiveBuffer) Legend(topic string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name, ok := b.legend[topic]
	return name, ok
}

// TotalPoints sums the point count across every topic, used to gate
// session persistence above the 100,000-point resource limit.
func (b *LiveBuffer) TotalPoints() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, pts := range b.byTopic {
		total += len(pts)
	}
	return total
}
