package mqttlive

import (
	"testing"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func TestLiveBufferAppendPreservesOrder(t *testing.T) {
	b := NewLiveBuffer()
	b.Append(MqttTopicData{Topic: "a", Point: plotmodel.Point{1, 10}})
	b.Append(MqttTopicData{Topic: "a", Point: plotmodel.Point{2, 20}})
	b.Append(MqttTopicData{Topic: "b", Point: plotmodel.Point{1, 100}})

	pts := b.Points("a")
	if len(pts) != 2 || pts[0].Y() != 10 || pts[1].Y() != 20 {
		t.Fatalf("unexpected points for topic a: %v", pts)
	}
	if len(b.Points("b")) != 1 {
		t.Fatalf("expected 1 point for topic b")
	}
}

func TestLiveBufferDrainRoutesStateAndData(t *testing.T) {
	ch := make(chan MqttMessage, 8)
	ch <- MqttMessage{Kind: MessageState, State: Connected}
	ch <- MqttMessage{Kind: MessageData, Data: MqttData{Single: &MqttTopicData{
		Topic: "sensors/temp", Point: plotmodel.Point{1, 21.5},
	}}}
	ch <- MqttMessage{Kind: MessageData, Data: MqttData{Batch: []MqttTopicData{
		{Topic: "sensors/temp", Point: plotmodel.Point{2, 21.6}},
		{Topic: "sensors/humidity", Point: plotmodel.Point{2, 55.0}},
	}}}
	ch <- MqttMessage{Kind: MessageState, State: Disconnected}

	b := NewLiveBuffer()
	states := b.Drain(ch)

	if len(states) != 2 || states[0] != Connected || states[1] != Disconnected {
		t.Fatalf("unexpected states: %v", states)
	}
	if len(b.Points("sensors/temp")) != 2 {
		t.Fatalf("expected 2 points for sensors/temp, got %d", len(b.Points("sensors/temp")))
	}
	if len(b.Points("sensors/humidity")) != 1 {
		t.Fatalf("expected 1 point for sensors/humidity")
	}
}

func TestLiveBufferDrainIsNonBlockingOnEmptyChannel(t *testing.T) {
	ch := make(chan MqttMessage)
	b := NewLiveBuffer()
	states := b.Drain(ch)
	if len(states) != 0 {
		t.Fatalf("expected no states from an empty channel, got %v", states)
	}
}

func TestLiveBufferTotalPoints(t *testing.T) {
	b := NewLiveBuffer()
	b.Append(MqttTopicData{Topic: "a", Point: plotmodel.Point{1, 1}})
	b.Append(MqttTopicData{Topic: "b", Point: plotmodel.Point{1, 1}})
	b.Append(MqttTopicData{Topic: "b", Point: plotmodel.Point{2, 2}})
	if b.TotalPoints() != 3 {
		t.Fatalf("expected 3 total points, got %d", b.TotalPoints())
	}
}
