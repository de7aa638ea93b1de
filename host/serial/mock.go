package serial

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// Responder decides what a simulated board sends back after each write.
// It receives the bytes of one Write call and returns the reply, or nil
// to stay silent.
type Responder func(written []byte) []byte

// MockPort is an in-memory Port for tests. Every Write is recorded and
// passed to the Responder; the reply becomes readable. Reads with nothing
// pending behave like an idle line: they return 0 bytes and io.EOF.
type MockPort struct {
	mu        sync.Mutex
	respond   Responder
	pending   bytes.Buffer
	writes    [][]byte
	closed    int
	flushes   int
	writeErr  error
	idleSleep time.Duration
}

// NewMockPort returns a mock driven by respond.
func NewMockPort(respond Responder) *MockPort {
	return &MockPort{respond: respond, idleSleep: time.Millisecond}
}

// NewScriptedPort returns a mock that answers the i-th write with
// replies[i]. Writes past the end of the script get no reply.
func NewScriptedPort(replies ...[]byte) *MockPort {
	i := 0
	return NewMockPort(func([]byte) []byte {
		if i >= len(replies) {
			return nil
		}
		r := replies[i]
		i++
		return r
	})
}

// FailWrites makes every following Write return err.
func (m *MockPort) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Read returns pending reply bytes.
func (m *MockPort) Read(b []byte) (int, error) {
	m.mu.Lock()
	if m.closed > 0 {
		m.mu.Unlock()
		return 0, errors.New("mock: port closed")
	}
	if m.pending.Len() == 0 {
		m.mu.Unlock()
		time.Sleep(m.idleSleep)
		return 0, io.EOF
	}
	defer m.mu.Unlock()
	return m.pending.Read(b)
}

// Write records b and queues the responder's reply. The responder runs
// without the port lock held, so it may call back into the port.
func (m *MockPort) Write(b []byte) (int, error) {
	m.mu.Lock()
	if m.closed > 0 {
		m.mu.Unlock()
		return 0, errors.New("mock: port closed")
	}
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return 0, err
	}
	m.writes = append(m.writes, append([]byte(nil), b...))
	respond := m.respond
	m.mu.Unlock()

	if respond == nil {
		return len(b), nil
	}
	if reply := respond(b); reply != nil {
		m.mu.Lock()
		m.pending.Write(reply)
		m.mu.Unlock()
	}
	return len(b), nil
}

// Close marks the port closed. Every call is counted.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Flush drops pending reply bytes.
func (m *MockPort) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	m.pending.Reset()
	return nil
}

// Writes returns a copy of every Write so far.
func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// CloseCount returns how many times Close was called.
func (m *MockPort) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Opener returns an Opener that always hands out m.
func (m *MockPort) Opener() Opener {
	return func(*Config) (Port, error) {
		return m, nil
	}
}
