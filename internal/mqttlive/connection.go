// Package mqttlive is the MQTT live-ingest concurrency core: a
// long-running worker that owns one broker connection, a bounded
// worker-to-UI channel of connection-state/data messages, and a shared
// stop flag the UI uses to tear the worker down. Built the same way the
// teacher's visualiser package owns its publisher goroutine and exposes
// state over channels rather than shared mutable fields
// (internal/lidar/visualiser/grpc_server.go's Publisher), using
// github.com/eclipse/paho.mqtt.golang for the wire protocol.
package mqttlive

import (
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
	"github.com/banshee-data/telemetry-plotter/internal/timeutil"
)

// ConnectionState is the worker's connection state machine.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

// String implements fmt.Stringer for log messages.
func (s ConnectionState) String() string {
	switch s {
	case Connected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// reconnectBackoff is the sleep after a disconnect or I/O error, to avoid
// reconnect storms.
const reconnectBackoff = 50 * time.Millisecond

// MqttTopicData is one decoded point (or batch member) attributed to a
// topic.
type MqttTopicData struct {
	Topic  string
	Legend string
	Point  plotmodel.Point
}

// MqttData is what a topic-specific packet parser produces: either a
// single point or a batch of them sharing the same topic/legend.
type MqttData struct {
	Single *MqttTopicData
	Batch  []MqttTopicData
}

// Items flattens Single/Batch into one slice for the live buffer to
// consume uniformly.
func (d MqttData) Items() []MqttTopicData {
	if d.Single != nil {
		return []MqttTopicData{*d.Single}
	}
	return d.Batch
}

// MqttMessageKind distinguishes a state transition from a data payload on
// the worker-to-UI channel.
type MqttMessageKind int

const (
	MessageState MqttMessageKind = iota
	MessageData
)

// MqttMessage is the sum type flowing worker → UI:
// ConnectionState(state) | Data(MqttData).
type MqttMessage struct {
	Kind  MqttMessageKind
	State ConnectionState
	Data  MqttData
}

// PacketParser decodes one Publish packet's payload into plot data.
// Unknown topics return (zero, false) and produce no point.
type PacketParser func(topic string, payload []byte) (MqttData, bool)

// mqttClient is the subset of paho.mqtt.golang's Client this package
// depends on, narrowed to an interface so tests can inject a fake broker
// connection instead of a real TCP client.
type mqttClient interface {
	Connect() mqtt.Token
	Disconnect(quiesceMs uint)
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	IsConnected() bool
}

// pahoClient adapts a *mqtt.Client (the concrete paho.mqtt.golang type)
// to the mqttClient interface. The concrete type already satisfies this
// interface structurally; the adapter exists purely to document the
// dependency boundary.
type pahoClient struct {
	mqtt.Client
}

func (c pahoClient) Connect() mqtt.Token { return c.Client.Connect() }
func (c pahoClient) Disconnect(quiesceMs uint) { c.Client.Disconnect(quiesceMs) }
func (c pahoClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return c.Client.Subscribe(topic, qos, callback)
}
func (c pahoClient) IsConnected() bool { return c.Client.IsConnected() }

// WorkerConfig parameterises a Worker.
type WorkerConfig struct {
	BrokerURL string // e.g. "tcp://host:1883" or "ws://host:1883/mqtt/"
	ClientID  string
	Topics    []string
	Parser    PacketParser
	Clock     timeutil.Clock

	// newClient constructs the underlying client; overridable in tests to
	// avoid a real network dial.
	newClient func(cfg WorkerConfig, onMsg mqtt.MessageHandler) mqttClient
}

// Worker owns a single broker connection and the channel that pushes
// decoded points to the UI, without blocking it.
type Worker struct {
	cfg    WorkerConfig
	out    chan MqttMessage
	stop   atomic.Bool
	client mqttClient
}

// NewWorker constructs a Worker with a bounded output channel of the
// given capacity (see config.TuningConfig.GetLiveBufferCapacity).
func NewWorker(cfg WorkerConfig, channelCapacity int) *Worker {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.newClient == nil {
		cfg.newClient = defaultNewClient
	}
	return &Worker{
		cfg: cfg,
		out: make(chan MqttMessage, channelCapacity),
	}
}

// Messages returns the channel the UI drains on each poll.
func (w *Worker) Messages() <-chan MqttMessage { return w.out }

// Stop signals the worker to tear down on its next loop iteration.
func (w *Worker) Stop() { w.stop.Store(true) }

func defaultNewClient(cfg WorkerConfig, onMsg mqtt.MessageHandler) mqttClient {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false) // reconnect is driven explicitly by Run's loop
	opts.SetDefaultPublishHandler(onMsg)
	return pahoClient{mqtt.NewClient(opts)}
}

func (w *Worker) send(msg MqttMessage) {
	select {
	case w.out <- msg:
	default:
		monitoring.Logf("mqttlive: output channel full, dropping a %v message", msg.Kind)
	}
}

// Run is the worker's event loop: connect, subscribe at QoS 0, and wait
// for the stop flag, reconnecting with a fixed backoff on any I/O error.
// On exit it disconnects and sends a final Disconnected state, per the
// teardown contract.
func (w *Worker) Run() {
	defer func() {
		if w.client != nil && w.client.IsConnected() {
			w.client.Disconnect(250)
		}
		w.send(MqttMessage{Kind: MessageState, State: Disconnected})
	}()

	onMsg := func(_ mqtt.Client, m mqtt.Message) {
		if w.cfg.Parser == nil {
			return
		}
		data, ok := w.cfg.Parser(m.Topic(), m.Payload())
		if !ok {
			return
		}
		w.send(MqttMessage{Kind: MessageData, Data: data})
	}

	for !w.stop.Load() {
		w.client = w.cfg.newClient(w.cfg, onMsg)
		token := w.client.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			monitoring.Logf("mqttlive: connect failed: %v", err)
			w.send(MqttMessage{Kind: MessageState, State: Disconnected})
			w.cfg.Clock.Sleep(reconnectBackoff)
			continue
		}

		w.send(MqttMessage{Kind: MessageState, State: Connected})
		for _, topic := range w.cfg.Topics {
			subToken := w.client.Subscribe(topic, 0, onMsg)
			subToken.Wait()
			if err := subToken.Error(); err != nil {
				monitoring.Logf("mqttlive: subscribe to %q failed: %v", topic, err)
			}
		}

		for w.client.IsConnected() && !w.stop.Load() {
			w.cfg.Clock.Sleep(10 * time.Millisecond)
		}

		if !w.stop.Load() {
			monitoring.Logf("mqttlive: connection lost, reconnecting in %v", reconnectBackoff)
			w.send(MqttMessage{Kind: MessageState, State: Disconnected})
			w.cfg.Clock.Sleep(reconnectBackoff)
		}
	}
}
