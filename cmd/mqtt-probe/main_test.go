package main

import (
	"os"
	"testing"
	"time"
)

func TestParseFlagsRequiresAddr(t *testing.T) {
	if _, err := parseFlags(nil); err == nil {
		t.Fatal("expected an error when -addr is missing")
	}
}

func TestParseFlagsSplitsHostPort(t *testing.T) {
	cfg, err := parseFlags([]string{"-addr", "broker.example.com:1883"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Host != "broker.example.com" || cfg.Port != "1883" {
		t.Fatalf("unexpected host/port: %+v", cfg)
	}
	if cfg.DiscoverFor != 5*time.Second || cfg.ClientID != "mqtt-probe" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseFlagsRejectsMissingPort(t *testing.T) {
	if _, err := parseFlags([]string{"-addr", "broker.example.com"}); err == nil {
		t.Fatal("expected an error for an address with no port")
	}
}

func TestParseFlagsVersionSkipsRequiredFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-version"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !cfg.ShowVersion {
		t.Fatal("expected ShowVersion to be set")
	}
}

func TestRunReportsUnreachableBroker(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: "1"} // port 1 is reserved, expected closed
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	done := make(chan error, 1)
	go func() { done <- run(cfg, w) }()

	select {
	case err := <-done:
		w.Close()
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return within the probe timeout")
	}
}
