package mqttlive

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
	"github.com/banshee-data/telemetry-plotter/internal/timeutil"
)

func TestWorkerConnectsSubscribesAndEmitsConnected(t *testing.T) {
	fc := &fakeClient{}
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	w := NewWorker(WorkerConfig{
		BrokerURL: "tcp://broker.local:1883",
		ClientID:  "test-client",
		Topics:    []string{"sensors/#"},
		Clock:     clock,
		newClient: func(WorkerConfig, mqtt.MessageHandler) mqttClient { return fc },
	}, 16)

	go w.Run()

	var gotConnected bool
	deadline := time.After(2 * time.Second)
	for !gotConnected {
		select {
		case msg := <-w.Messages():
			if msg.Kind == MessageState && msg.State == Connected {
				gotConnected = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for Connected state")
		}
	}

	if len(fc.subscribed) != 1 || fc.subscribed[0] != "sensors/#" {
		t.Fatalf("expected subscription to sensors/#, got %v", fc.subscribed)
	}

	w.Stop()
}

func TestWorkerParsesPublishedMessages(t *testing.T) {
	fc := &fakeClient{}
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	parser := func(topic string, payload []byte) (MqttData, bool) {
		if topic != "sensors/temp" {
			return MqttData{}, false
		}
		return MqttData{Single: &MqttTopicData{
			Topic:  topic,
			Legend: "Temperature",
			Point:  plotmodel.Point{1, 21.5},
		}}, true
	}

	w := NewWorker(WorkerConfig{
		BrokerURL: "tcp://broker.local:1883",
		ClientID:  "test-client",
		Topics:    []string{"sensors/#"},
		Parser:    parser,
		Clock:     clock,
		newClient: func(WorkerConfig, mqtt.MessageHandler) mqttClient { return fc },
	}, 16)

	go w.Run()

	deadline := time.After(2 * time.Second)
	for fc.onMsg == nil {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for subscription handler to be registered")
		default:
		}
	}

	fc.onMsg(nil, fakeMessage{topic: "sensors/temp", payload: []byte("21.5")})

	for {
		select {
		case msg := <-w.Messages():
			if msg.Kind == MessageData {
				items := msg.Data.Items()
				if len(items) != 1 || items[0].Topic != "sensors/temp" {
					t.Fatalf("unexpected data message: %+v", items)
				}
				w.Stop()
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for data message")
		}
	}
}

func TestWorkerUnknownTopicProducesNoMessage(t *testing.T) {
	parser := func(topic string, payload []byte) (MqttData, bool) { return MqttData{}, false }
	fc := &fakeClient{}
	w := NewWorker(WorkerConfig{
		BrokerURL: "tcp://broker.local:1883",
		Parser:    parser,
		Clock:     timeutil.NewMockClock(time.Unix(0, 0)),
		newClient: func(WorkerConfig, mqtt.MessageHandler) mqttClient { return fc },
	}, 4)
	go w.Run()

	deadline := time.After(2 * time.Second)
	for fc.onMsg == nil {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for handler registration")
		default:
		}
	}
	fc.onMsg(nil, fakeMessage{topic: "unknown/topic", payload: []byte("x")})
	w.Stop()

	select {
	case msg := <-w.Messages():
		if msg.Kind == MessageData {
			t.Fatal("expected no data message for an unparsed topic")
		}
	case <-time.After(200 * time.Millisecond):
	}
}
