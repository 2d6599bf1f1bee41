// Command mqtt-probe is a headless harness for the broker-reachability and
// topic-discovery logic in internal/mqttlive: it polls BrokerValidator
// against host:port until a result settles, then, when the broker is
// reachable and -discover is set, runs TopicDiscoverer for a fixed window and prints every topic it sees.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/mqttlive"
	"github.com/banshee-data/telemetry-plotter/internal/timeutil"
	"github.com/banshee-data/telemetry-plotter/internal/version"
)

// Config holds the command-line configuration for one probe run.
type Config struct {
	Host           string
	Port           string
	DiscoverTopics bool
	DiscoverFor    time.Duration
	ClientID       string
	ShowVersion    bool
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("mqtt-probe", flag.ContinueOnError)
	cfg := Config{}
	addr := fs.String("addr", "", "broker address as host:port")
	fs.BoolVar(&cfg.DiscoverTopics, "discover", false, "after a reachable probe, also run topic discovery")
	fs.DurationVar(&cfg.DiscoverFor, "discover-for", 5*time.Second, "how long to run topic discovery")
	fs.StringVar(&cfg.ClientID, "client-id", "mqtt-probe", "MQTT client ID to use for discovery")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}
	if *addr == "" {
		return Config{}, fmt.Errorf("mqtt-probe: -addr is required")
	}
	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		return Config{}, fmt.Errorf("mqtt-probe: -addr must be host:port: %w", err)
	}
	cfg.Host, cfg.Port = host, port
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// pollInterval is how often run() calls PollBrokerStatus while waiting for
// the validator's debounce-then-probe cycle to settle.
const pollInterval = 50 * time.Millisecond

// pollTimeout bounds how long run() waits for a terminal broker status
// before giving up.
const pollTimeout = 10 * time.Second

func run(cfg Config, stdout *os.File) error {
	validator := mqttlive.NewBrokerValidator(timeutil.RealClock{})

	deadline := time.Now().Add(pollTimeout)
	var status mqttlive.BrokerStatus
	for time.Now().Before(deadline) {
		validator.PollBrokerStatus(cfg.Host, cfg.Port)
		status = validator.BrokerStatus()
		if status.Kind != mqttlive.BrokerStatusNone && validator.Status() == mqttlive.ValidatorInactive {
			break
		}
		time.Sleep(pollInterval)
	}

	switch status.Kind {
	case mqttlive.BrokerStatusUnreachable:
		fmt.Fprintf(stdout, "unreachable: %s\n", status.Reason)
		return nil
	case mqttlive.BrokerStatusReachableVersion:
		fmt.Fprintf(stdout, "reachable, broker version %s\n", status.Version)
	case mqttlive.BrokerStatusReachable:
		fmt.Fprintln(stdout, "reachable, broker version unknown")
	default:
		fmt.Fprintln(stdout, "no result within timeout")
		return nil
	}

	if !cfg.DiscoverTopics {
		return nil
	}

	return discoverTopics(cfg, stdout)
}

func discoverTopics(cfg Config, stdout *os.File) error {
	discoverer := mqttlive.NewTopicDiscoverer("tcp://"+net.JoinHostPort(cfg.Host, cfg.Port), cfg.ClientID)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DiscoverFor)
	defer cancel()

	go discoverer.Run()
	defer discoverer.Stop()

	seen := make(map[string]bool)
	for {
		select {
		case topic := <-discoverer.Topics():
			if !seen[topic] {
				seen[topic] = true
				fmt.Fprintln(stdout, topic)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
