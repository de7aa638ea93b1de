// Package serial opens the line to a Nightsky board and reads the short
// tokens it answers with.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is an open endpoint. Open returns one on a real line, MockPort
// simulates a board.
type Port interface {
	io.ReadWriteCloser

	// Flush drops bytes the board sent that nobody has read yet.
	Flush() error
}

// Opener opens the endpoint cfg describes.
type Opener func(cfg *Config) (Port, error)

// SettleDelay is how long the host waits after opening a port before
// talking to the board. Opening the line resets an Arduino-class board
// and its bootloader needs this long before the sketch listens.
const SettleDelay = 2 * time.Second

const (
	// DefaultBaud is the rate the Nightsky sketch sets up.
	DefaultBaud = 9600

	// DefaultIdleTimeout ends a Read when the line has been quiet this long.
	DefaultIdleTimeout = 100 * time.Millisecond
)

// Config describes how to open an endpoint.
type Config struct {
	// Device is the OS name of the endpoint: /dev/ttyACM0, COM3, ...
	Device string
	Baud   int

	// IdleTimeout bounds a single Read. When no byte arrives within it,
	// Read returns with nothing. Zero blocks until data arrives.
	IdleTimeout time.Duration
}

// DefaultConfig returns the line settings of a Nightsky board on device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// WithDevice returns a copy of c for another endpoint.
func (c *Config) WithDevice(device string) *Config {
	cp := *c
	cp.Device = device
	return &cp
}

func (c *Config) validate() error {
	switch {
	case c == nil:
		return errors.New("serial: nil config")
	case c.Device == "":
		return errors.New("serial: no device")
	case c.Baud <= 0:
		return errors.New("serial: baud must be positive")
	case c.IdleTimeout < 0:
		return errors.New("serial: negative idle timeout")
	}
	return nil
}
