package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
environment: dev
server:
  port: 8080
logging:
  level: info
  format: console
  output: stdout
balanz:
  websocket_url: wss://example.com/ws
  api_url: https://example.com
  token: tok
  plazo: 1
strategy:
  asset:
    ticker: GGAL
    identifier: GGAL-0003-C-CT-ARS
  timeframe: 60
  min_length: 20
  sma_length: 15
  quantity: 10
portfolio:
  name: main
  liquid: 100000
fills:
  backend: sqlite
  sqlite:
    path: /tmp/fills.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Strategy.Asset.Ticker != "GGAL" {
		t.Errorf("ticker = %q, want GGAL", c.Strategy.Asset.Ticker)
	}
	if c.Strategy.Timeframe != 60 {
		t.Errorf("timeframe = %d, want 60", c.Strategy.Timeframe)
	}
}

func TestLoadRejectsShortTimeframe(t *testing.T) {
	bad := strings.Replace(validYAML, "timeframe: 60", "timeframe: 3", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for timeframe below 5")
	}
}

func TestLoadRejectsUnknownFillsBackend(t *testing.T) {
	bad := strings.Replace(validYAML, "backend: sqlite", "backend: carrier-pigeon", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for unknown fills backend")
	}
}

func TestLoadRejectsMissingToken(t *testing.T) {
	bad := strings.Replace(validYAML, "  token: tok\n", "", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLoadWithEnvOverridesToken(t *testing.T) {
	t.Setenv("BALANZ_TOKEN", "env-token")
	c, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if c.Balanz.Token != "env-token" {
		t.Errorf("token = %q, want env-token", c.Balanz.Token)
	}
}
