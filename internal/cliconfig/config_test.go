package cliconfig

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Pong != "nsd1" {
		t.Errorf("Pong = %q, want nsd1", cfg.Pong)
	}
	if cfg.Device != "" {
		t.Errorf("Device = %q, want empty (discover)", cfg.Device)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero baud", func(c *Config) { c.Baud = 0 }, "baud"},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, "read timeout"},
		{"zero reply timeout", func(c *Config) { c.ReplyTimeout = 0 }, "reply timeout"},
		{"short pong", func(c *Config) { c.Pong = "ns" }, "pong"},
		{"long pong", func(c *Config) { c.Pong = "nsd12" }, "pong"},
		{"negative max records", func(c *Config) { c.MaxRecords = -1 }, "max records"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"custom pong", func(c *Config) { c.Pong = "abcd" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSerialConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baud = 115200
	cfg.ReadTimeout = 250 * time.Millisecond

	sc := cfg.SerialConfig("/dev/ttyACM0")
	if sc.Device != "/dev/ttyACM0" {
		t.Errorf("Device = %q", sc.Device)
	}
	if sc.Baud != 115200 {
		t.Errorf("Baud = %d, want 115200", sc.Baud)
	}
	if sc.IdleTimeout != 250*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 250ms", sc.IdleTimeout)
	}
}
