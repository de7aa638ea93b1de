// Package upload drives the Nightsky upload protocol: a helo handshake,
// one acknowledged write per compressed record, and an end handshake.
//
// A Session is one attempt. It owns its serial port from open to close,
// reports progress on a channel and never retries; to try again, discover
// the board again and create a new Session.
//
//	s := upload.New("/dev/ttyACM0", upload.WithLogger(log))
//	done := s.Start(ctx, protocol.EncodeClip(c))
//	for ev := range s.Events() {
//	    fmt.Println(ev)
//	}
//	err := <-done
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nightsky/fault"
	"nightsky/host/serial"
	"nightsky/protocol"
)

// ErrSessionUsed is returned when Run is called on a session that has
// already run.
var ErrSessionUsed = errors.New("upload: session already used")

var (
	tokenHelo = []byte(protocol.TokenHelo)
	tokenOK   = []byte(protocol.TokenOK)
	tokenDone = []byte(protocol.TokenDone)
)

// Session is a single upload attempt against one endpoint.
type Session struct {
	id     string
	device string

	open       serial.Opener
	cfg        *serial.Config
	timeout    time.Duration
	maxRecords int
	log        zerolog.Logger

	// sleep waits out the settle delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	aborted atomic.Bool
	used    atomic.Bool
	events  chan Event
}

// Option configures a Session.
type Option func(*Session)

// WithOpener replaces the serial opener.
func WithOpener(open serial.Opener) Option {
	return func(s *Session) { s.open = open }
}

// WithSerialConfig sets the line settings. The device field is replaced
// by the session's device.
func WithSerialConfig(cfg *serial.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithReplyTimeout bounds every single reply read. A stalled board is
// detected at the next read, not by an overall deadline.
func WithReplyTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithMaxRecords rejects uploads longer than n records before anything
// is sent. Zero leaves the check to the board.
func WithMaxRecords(n int) Option {
	return func(s *Session) { s.maxRecords = n }
}

// WithEventBuffer sets the capacity of the event channel. Events that do
// not fit are dropped.
func WithEventBuffer(n int) Option {
	return func(s *Session) { s.events = make(chan Event, n) }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New returns an idle session for device.
func New(device string, opts ...Option) *Session {
	s := &Session{
		id:      uuid.New().String(),
		device:  device,
		open:    serial.Open,
		cfg:     serial.DefaultConfig(device),
		timeout: 2 * time.Second,
		log:     zerolog.Nop(),
		sleep:   sleepContext,
		events:  make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id).Str("device", device).Logger()
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Device returns the endpoint the session talks to.
func (s *Session) Device() string {
	return s.device
}

// Events returns the progress channel. It is closed when Run returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Abort asks the session to stop. The driver notices it before the
// handshake and before each record, then runs the end handshake. Safe to
// call from any goroutine, any number of times.
func (s *Session) Abort() {
	s.aborted.Store(true)
}

// Aborted reports whether Abort has been called.
func (s *Session) Aborted() bool {
	return s.aborted.Load()
}

// Start runs the session on its own goroutine. The returned channel
// yields Run's result once.
func (s *Session) Start(ctx context.Context, records []protocol.Record) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, records)
	}()
	return done
}

// Run performs the upload and blocks until the port is closed.
// Cancelling ctx has the same effect as Abort.
//
// Errors are *fault.Error values for protocol conditions
// (CommunicationFault, PayloadTooLarge, Aborted), possibly joined with a
// failed end handshake, or wrapped I/O errors.
func (s *Session) Run(ctx context.Context, records []protocol.Record) (err error) {
	if !s.used.CompareAndSwap(false, true) {
		return ErrSessionUsed
	}
	defer close(s.events)

	total := len(records)
	defer func() {
		s.emit(Event{Phase: PhaseClosed, Total: total, Err: err})
		if err != nil {
			s.log.Warn().Err(err).Msg("upload failed")
		} else {
			s.log.Info().Int("records", total).Msg("upload complete")
		}
	}()

	if s.maxRecords > 0 && total > s.maxRecords {
		return fault.TooLarge("preflight", s.maxRecords)
	}

	stop := context.AfterFunc(ctx, s.Abort)
	defer stop()

	s.emit(Event{Phase: PhaseHandshaking, Total: total})

	release, err := serial.Acquire(s.device)
	if err != nil {
		return err
	}
	defer release()

	port, err := s.open(s.cfg.WithDevice(s.device))
	if err != nil {
		return fmt.Errorf("open %s: %w", s.device, err)
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("close failed")
		}
	}()

	if err := s.handshake(ctx, port); err != nil {
		if fault.KindOf(err) == fault.Aborted {
			s.log.Info().Int("sent", 0).Msg("abort acknowledged")
			s.emit(Event{Phase: PhaseHandshaking, Total: total, Aborted: true})
		}
		return err
	}

	sent, abortSeen, streamErr := s.stream(ctx, port, records)
	if streamErr != nil && !isProtocolFault(streamErr) {
		// The line itself failed; an end handshake cannot succeed.
		return streamErr
	}

	s.emit(Event{Phase: PhaseEnding, Index: sent, Total: total, Aborted: abortSeen})
	endErr := s.end(port)

	switch {
	case streamErr != nil && endErr != nil:
		return errors.Join(streamErr, endErr)
	case streamErr != nil:
		return streamErr
	case abortSeen:
		if endErr != nil {
			return errors.Join(fault.Abort("stream", sent), endErr)
		}
		return fault.Abort("stream", sent)
	default:
		return endErr
	}
}

func (s *Session) handshake(ctx context.Context, port serial.Port) error {
	if err := s.sleep(ctx, serial.SettleDelay); err != nil || ctx.Err() != nil {
		s.Abort()
	}
	if s.aborted.Load() {
		return fault.Abort("handshake", 0)
	}

	if err := port.Flush(); err != nil {
		s.log.Debug().Err(err).Msg("flush failed")
	}

	reply, err := s.exchange(port, tokenHelo)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if !bytes.Equal(reply, tokenHelo) {
		return fault.Communication("handshake", tokenHelo, reply)
	}

	s.log.Debug().Msg("handshake complete")
	return nil
}

// stream sends records until all are acknowledged, the board refuses
// one, or an abort is noticed. It returns the number of acknowledged
// records.
func (s *Session) stream(ctx context.Context, port serial.Port, records []protocol.Record) (sent int, aborted bool, err error) {
	total := len(records)
	s.emit(Event{Phase: PhaseStreaming, Total: total})

	for i, rec := range records {
		if ctx.Err() != nil {
			s.Abort()
		}
		if s.aborted.Load() {
			s.log.Info().Int("sent", sent).Msg("abort acknowledged")
			return sent, true, nil
		}

		reply, err := s.exchange(port, rec[:])
		if err != nil {
			return sent, false, fmt.Errorf("record %d: %w", i, err)
		}

		switch {
		case bytes.Equal(reply, tokenOK):
			sent++
			s.emit(Event{Phase: PhaseStreaming, Index: sent, Total: total})
		case bytes.Equal(reply, tokenDone):
			return sent, false, fault.TooLarge("stream", i)
		default:
			return sent, false, fault.Communication("stream", tokenOK, reply)
		}
	}
	return sent, false, nil
}

func (s *Session) end(port serial.Port) error {
	reply, err := s.exchange(port, protocol.EndOfStream)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if !bytes.Equal(reply, tokenDone) {
		return fault.Communication("end", tokenDone, reply)
	}
	return nil
}

// exchange writes req and reads one reply token.
func (s *Session) exchange(port serial.Port, req []byte) ([]byte, error) {
	if err := serial.WriteAll(port, req); err != nil {
		return nil, err
	}
	return serial.ReadToken(port, protocol.TokenSize, s.timeout, tokenOK)
}

// emit never blocks the driver; events that do not fit are dropped.
func (s *Session) emit(e Event) {
	e.Session = s.id
	select {
	case s.events <- e:
	default:
		s.log.Debug().Stringer("phase", e.Phase).Msg("event dropped")
	}
}

func isProtocolFault(err error) bool {
	var fe *fault.Error
	return errors.As(err, &fe)
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
