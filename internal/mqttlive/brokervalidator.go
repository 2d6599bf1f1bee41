package mqttlive

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/timeutil"
)

// BrokerStatusKind distinguishes the broker-reachability outcomes the UI
// can display.
type BrokerStatusKind int

const (
	BrokerStatusNone BrokerStatusKind = iota
	BrokerStatusReachable
	BrokerStatusUnreachable
	BrokerStatusReachableVersion
)

// BrokerStatus is the validator's output state:
// None | Reachable | Unreachable(reason) | ReachableVersion(v). Grounded
// directly on plotinator-mqtt's BrokerStatus enum.
type BrokerStatus struct {
	Kind    BrokerStatusKind
	Reason  string // set when Kind == BrokerStatusUnreachable
	Version string // set when Kind == BrokerStatusReachableVersion
}

// Reachable reports whether the broker answered, with or without a
// resolved version.
func (s BrokerStatus) Reachable() bool {
	return s.Kind == BrokerStatusReachable || s.Kind == BrokerStatusReachableVersion
}

// ValidatorStatus is the validator's own progress state machine:
// Inactive → Connecting → (Inactive | RetrievingVersion → Inactive).
type ValidatorStatus int

const (
	ValidatorInactive ValidatorStatus = iota
	ValidatorConnecting
	ValidatorRetrievingVersion
)

const (
	brokerProbeDebounce = 500 * time.Millisecond
	tcpConnectTimeout   = 2 * time.Second
	versionProbeTimeout = 2 * time.Second
)

// BrokerValidator debounces (host, port) input changes and, once settled,
// probes reachability and broker version on a background goroutine
// without blocking the caller. PollBrokerStatus is meant to be called
// once per UI frame, exactly like the original's poll_broker_status.
type BrokerValidator struct {
	mu sync.Mutex

	status            ValidatorStatus
	previousInput     string
	brokerStatus      BrokerStatus
	lastInputChangeAt time.Time
	hasLastChange     bool
	resultCh          chan BrokerStatus

	clock timeutil.Clock
}

// NewBrokerValidator constructs an idle validator.
func NewBrokerValidator(clock timeutil.Clock) *BrokerValidator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &BrokerValidator{clock: clock}
}

// Status returns the validator's current progress state.
func (v *BrokerValidator) Status() ValidatorStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// BrokerStatus returns the last known broker reachability result.
func (v *BrokerValidator) BrokerStatus() BrokerStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.brokerStatus
}

// PollBrokerStatus detects (host, port) changes, debounces 500ms of no
// further change, then spawns a background validation probe. It is safe
// to call on every frame.
func (v *BrokerValidator) PollBrokerStatus(host, port string) {
	v.mu.Lock()
	current := host + port
	if current != v.previousInput {
		v.previousInput = current
		v.lastInputChangeAt = v.clock.Now()
		v.hasLastChange = true
		v.brokerStatus = BrokerStatus{Kind: BrokerStatusNone}
	}

	if v.hasLastChange && v.clock.Since(v.lastInputChangeAt) >= brokerProbeDebounce && v.status == ValidatorInactive {
		v.hasLastChange = false
		v.status = ValidatorConnecting
		resultCh := make(chan BrokerStatus, 2)
		v.resultCh = resultCh
		v.mu.Unlock()

		go v.probe(host, port, resultCh)
		return
	}

	resultCh := v.resultCh
	v.mu.Unlock()

	if resultCh == nil {
		return
	}

	select {
	case result := <-resultCh:
		v.mu.Lock()
		v.brokerStatus = result
		switch result.Kind {
		case BrokerStatusReachable:
			v.status = ValidatorRetrievingVersion
		default:
			v.status = ValidatorInactive
			v.resultCh = nil
		}
		v.mu.Unlock()
	default:
	}
}

// validateFn and getVersionFn are package-level indirections over
// validateBroker/getBrokerVersion, overridable in tests so the debounce
// and state-machine logic can be exercised without a real TCP dial.
var validateFn = validateBroker
var getVersionFn = getBrokerVersion

func (v *BrokerValidator) probe(host, port string, resultCh chan<- BrokerStatus) {
	addr, err := validateFn(host, port)
	if err != nil {
		resultCh <- BrokerStatus{Kind: BrokerStatusUnreachable, Reason: err.Error()}
		return
	}
	resultCh <- BrokerStatus{Kind: BrokerStatusReachable}

	version, err := getVersionFn(addr)
	if err != nil {
		monitoring.Logf("mqttlive: failed to get broker version: %v", err)
		return
	}
	resultCh <- BrokerStatus{Kind: BrokerStatusReachableVersion, Version: version}
}

// validateBroker parses the port, resolves host:port via DNS (IPv6
// bracketing handled by net.JoinHostPort, the stdlib equivalent of the
// original's manual Ipv6Addr formatting), and attempts a TCP connect with
// a 2-second timeout against every resolved address.
func validateBroker(host, port string) (string, error) {
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("invalid port: %w", err)
	}

	addrStr := net.JoinHostPort(host, port)

	ips, err := net.LookupHost(host)
	if err != nil {
		return "", fmt.Errorf("DNS resolution failed: %w", err)
	}

	var lastErr error
	for _, ip := range ips {
		candidate := net.JoinHostPort(ip, port)
		conn, err := net.DialTimeout("tcp", candidate, tcpConnectTimeout)
		if err == nil {
			conn.Close()
			return addrStr, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return "", fmt.Errorf("no addresses found")
	}
	return "", fmt.Errorf("connection failed: %w", lastErr)
}

// getBrokerVersion opens a short-lived MQTT session against addr,
// subscribes to $SYS/broker/version at QoS 0, and waits up to 2 seconds
// for a publish.
func getBrokerVersion(addr string) (string, error) {
	clientID := "version-check-" + uuid.New().String()
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + addr).
		SetClientID(clientID).
		SetKeepAlive(5 * time.Second).
		SetConnectTimeout(tcpConnectTimeout)

	versionCh := make(chan string, 1)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		if m.Topic() == "$SYS/broker/version" {
			select {
			case versionCh <- string(m.Payload()):
			default:
			}
		}
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(tcpConnectTimeout) {
		return "", fmt.Errorf("timeout connecting for version probe")
	}
	if err := token.Error(); err != nil {
		return "", fmt.Errorf("connect failed: %w", err)
	}
	defer client.Disconnect(100)

	subToken := client.Subscribe("$SYS/broker/version", 0, nil)
	subToken.Wait()
	if err := subToken.Error(); err != nil {
		return "", fmt.Errorf("failed to subscribe to version topic: %w", err)
	}

	select {
	case version := <-versionCh:
		return version, nil
	case <-time.After(versionProbeTimeout):
		return "", fmt.Errorf("timeout waiting for broker version")
	}
}
