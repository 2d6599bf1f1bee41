package mqttlive

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a minimal mqtt.Token usable from tests without a real
// broker connection.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool  { return true }
func (t *fakeToken) Done() <-chan struct{}           { return t.done }
func (t *fakeToken) Error() error                    { return t.err }

var _ mqtt.Token = (*fakeToken)(nil)

// fakeClient is a minimal mqttClient usable from tests: Connect always
// succeeds (or fails per connectErr), Subscribe records subscriptions,
// and the connection can be marked lost from the test.
type fakeClient struct {
	connectErr error
	connected  bool
	subscribed []string
	onMsg      mqtt.MessageHandler
}

func (c *fakeClient) Connect() mqtt.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return newFakeToken(c.connectErr)
}

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.subscribed = append(c.subscribed, topic)
	if callback != nil {
		c.onMsg = callback
	}
	return newFakeToken(nil)
}

func (c *fakeClient) IsConnected() bool { return c.connected }

// fakeMessage is a minimal mqtt.Message for delivering synthetic publishes
// to a handler under test.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var _ mqtt.Message = fakeMessage{}
