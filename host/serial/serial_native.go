package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// linePort is a Port on an OS serial device. tarm's Port already has the
// Read, Write, Close and Flush the interface asks for.
type linePort struct {
	*serial.Port
	device string
}

var _ Opener = Open

// Open opens the endpoint cfg names.
func Open(cfg *Config) (Port, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.IdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &linePort{Port: p, device: cfg.Device}, nil
}

func (p *linePort) String() string {
	return p.device
}
