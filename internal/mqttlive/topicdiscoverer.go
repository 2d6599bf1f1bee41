package mqttlive

import (
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/timeutil"
)

// maxDiscovererErrors caps subscribe failures before the discoverer gives
// up. Run counts only the failures of its two initial subscriptions, so
// the cap is not reached in practice; a failed connect ends Run at once
// without being counted.
const maxDiscovererErrors = 50

// TopicDiscoverer is an independent worker subscribed to "#" and
// "$SYS/#" that forwards the topic of every message it receives; a topic
// seen again is forwarded again. Cancellation is cooperative via a shared
// stop flag, mirroring Worker.
type TopicDiscoverer struct {
	brokerURL string
	clientID  string

	topics    chan string
	stop      atomic.Bool
	newClient func(cfg WorkerConfig, onMsg mqtt.MessageHandler) mqttClient
	clock     timeutil.Clock
}

// NewTopicDiscoverer constructs a discoverer against brokerURL
// ("tcp://host:port", or "ws://host:port/mqtt/" as built by
// brokerURLForTransport).
func NewTopicDiscoverer(brokerURL, clientID string) *TopicDiscoverer {
	return &TopicDiscoverer{
		brokerURL: brokerURL,
		clientID:  clientID,
		topics:    make(chan string, 256),
		newClient: defaultNewClient,
		clock:     timeutil.RealClock{},
	}
}

// Topics returns the buffered channel (capacity 256) of discovered topic
// names; a topic that arrives while the channel is full is dropped and
// logged. The caller is responsible for deduplicating into its own
// discovered_topics / discovered_sys_topics sets.
func (d *TopicDiscoverer) Topics() <-chan string { return d.topics }

// Stop signals the discoverer to disconnect and exit on its next loop
// check.
func (d *TopicDiscoverer) Stop() { d.stop.Store(true) }

// Run connects once, subscribes to "#" and "$SYS/#" and forwards every
// topic seen until Stop is called or the connection drops. A failed
// connect ends Run at once; Run does not reconnect.
func (d *TopicDiscoverer) Run() {
	onMsg := func(_ mqtt.Client, m mqtt.Message) {
		select {
		case d.topics <- m.Topic():
		default:
			monitoring.Logf("mqttlive: topic discoverer channel full, dropping %q", m.Topic())
		}
	}

	cfg := WorkerConfig{BrokerURL: d.brokerURL, ClientID: d.clientID, newClient: d.newClient}
	client := cfg.newClient(cfg, onMsg)

	errCount := 0
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		monitoring.Logf("mqttlive: topic discoverer failed to connect: %v", err)
		return
	}
	defer client.Disconnect(250)

	for _, topic := range []string{"#", "$SYS/#"} {
		subToken := client.Subscribe(topic, 0, onMsg)
		subToken.Wait()
		if err := subToken.Error(); err != nil {
			errCount++
			monitoring.Logf("mqttlive: topic discoverer subscribe %q failed (%d/%d): %v", topic, errCount, maxDiscovererErrors, err)
			if errCount >= maxDiscovererErrors {
				monitoring.Logf("mqttlive: topic discoverer hit the consecutive-error ceiling, stopping")
				return
			}
		}
	}

	for !d.stop.Load() && client.IsConnected() {
		// All forwarding happens in onMsg; this loop only watches the stop
		// flag and connection health.
		d.clock.Sleep(10 * time.Millisecond)
	}
}

// brokerURLForTransport switches the scheme to ws://.../mqtt/ when the UI
// is running over WebSockets, per the transport-switch rule.
func brokerURLForTransport(hostPort string, useWebSocket bool) string {
	if useWebSocket {
		return "ws://" + strings.TrimPrefix(hostPort, "tcp://") + "/mqtt/"
	}
	if strings.HasPrefix(hostPort, "tcp://") || strings.HasPrefix(hostPort, "ws://") {
		return hostPort
	}
	return "tcp://" + hostPort
}
