// Package device finds Nightsky boards among the serial endpoints of the
// host.
package device

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nightsky/host/serial"
	"nightsky/protocol"
)

// Prober checks single endpoints with the ping/pong exchange.
type Prober struct {
	open     serial.Opener
	base     *serial.Config
	pong     []byte
	timeout  time.Duration
	parallel bool
	log      zerolog.Logger

	// sleep waits out the settle delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Prober.
type Option func(*Prober)

// WithOpener replaces the serial opener.
func WithOpener(open serial.Opener) Option {
	return func(p *Prober) { p.open = open }
}

// WithSerialConfig sets the line settings used for every probe. The
// device field is overwritten per candidate.
func WithSerialConfig(cfg *serial.Config) Option {
	return func(p *Prober) { p.base = cfg }
}

// WithPong sets the token a compatible board answers ping with.
func WithPong(token string) Option {
	return func(p *Prober) { p.pong = []byte(token) }
}

// WithReplyTimeout bounds the wait for the pong.
func WithReplyTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// WithParallel probes all candidates at once instead of one by one.
func WithParallel(parallel bool) Option {
	return func(p *Prober) { p.parallel = parallel }
}

// WithLogger sets the logger. Probe failures are logged at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Prober) { p.log = log }
}

// NewProber returns a prober with the production opener and a 2 s reply
// timeout.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		open:    serial.Open,
		base:    serial.DefaultConfig(""),
		pong:    []byte(protocol.TokenPong),
		timeout: 2 * time.Second,
		log:     zerolog.Nop(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe reports whether a compatible board answers on device. Busy,
// missing, silent and foreign devices all yield false. The endpoint is
// closed before Probe returns.
func (p *Prober) Probe(ctx context.Context, device string) bool {
	log := p.log.With().Str("device", device).Logger()

	release, err := serial.Acquire(device)
	if err != nil {
		log.Debug().Err(err).Msg("probe skipped")
		return false
	}
	defer release()

	port, err := p.open(p.base.WithDevice(device))
	if err != nil {
		log.Debug().Err(err).Msg("probe open failed")
		return false
	}
	defer port.Close()

	if err := p.sleep(ctx, serial.SettleDelay); err != nil {
		return false
	}

	if err := serial.WriteAll(port, []byte(protocol.TokenPing)); err != nil {
		log.Debug().Err(err).Msg("probe write failed")
		return false
	}

	reply, err := serial.ReadToken(port, protocol.TokenSize, p.timeout)
	if err != nil {
		log.Debug().Err(err).Msg("probe read failed")
		return false
	}
	if !bytes.Equal(reply, p.pong) {
		log.Debug().Bytes("reply", reply).Msg("probe reply mismatch")
		return false
	}

	log.Debug().Msg("board found")
	return true
}

// Discover probes candidates and returns those hosting a compatible
// board, in candidate order.
func (p *Prober) Discover(ctx context.Context, candidates []string) []string {
	if p.parallel {
		return p.discoverParallel(ctx, candidates)
	}

	var found []string
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if p.Probe(ctx, c) {
			found = append(found, c)
		}
	}
	return found
}

func (p *Prober) discoverParallel(ctx context.Context, candidates []string) []string {
	ok := make([]bool, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c string) {
			defer wg.Done()
			ok[i] = p.Probe(ctx, c)
		}(i, c)
	}
	wg.Wait()

	var found []string
	for i, c := range candidates {
		if ok[i] {
			found = append(found, c)
		}
	}
	return found
}

// Discover enumerates the platform's candidate endpoints and probes them.
func Discover(ctx context.Context, opts ...Option) ([]string, error) {
	candidates, err := serial.Candidates()
	if err != nil {
		return nil, err
	}
	return NewProber(opts...).Discover(ctx, candidates), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
