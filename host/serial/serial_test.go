package serial

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestCandidatesForPlatform(t *testing.T) {
	glob := func(pattern string) ([]string, error) {
		switch pattern {
		case "/dev/tty[A-Za-z]*":
			return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil
		case "/dev/tty.*":
			return []string{"/dev/tty.usbmodem1"}, nil
		}
		return nil, nil
	}

	linux, err := candidatesFor("linux", glob)
	if err != nil {
		t.Fatal(err)
	}
	if len(linux) != 2 || linux[0] != "/dev/ttyACM0" {
		t.Errorf("linux candidates = %v", linux)
	}

	darwin, err := candidatesFor("darwin", glob)
	if err != nil {
		t.Fatal(err)
	}
	if len(darwin) != 1 || darwin[0] != "/dev/tty.usbmodem1" {
		t.Errorf("darwin candidates = %v", darwin)
	}

	windows, err := candidatesFor("windows", glob)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 256 || windows[0] != "COM1" || windows[255] != "COM256" {
		t.Errorf("windows candidates: got %d, first %q", len(windows), windows[0])
	}

	if _, err := candidatesFor("plan9", glob); err == nil {
		t.Errorf("Expected unsupported platform error")
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	release, err := Acquire("/dev/ttyTEST0")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Acquire("/dev/ttyTEST0"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for second acquire, got %v", err)
	}

	other, err := Acquire("/dev/ttyTEST1")
	if err != nil {
		t.Errorf("Different endpoint should be free: %v", err)
	} else {
		other()
	}

	release()
	release() // idempotent

	again, err := Acquire("/dev/ttyTEST0")
	if err != nil {
		t.Fatalf("Endpoint should be free after release: %v", err)
	}
	again()
}

func TestReadTokenComplete(t *testing.T) {
	p := NewScriptedPort([]byte("helo"))
	if err := WriteAll(p, []byte("helo")); err != nil {
		t.Fatal(err)
	}

	got, err := ReadToken(p, 4, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "helo" {
		t.Errorf("ReadToken = %q, want helo", got)
	}
}

func TestReadTokenShortReplyStopsWhenIdle(t *testing.T) {
	p := NewScriptedPort([]byte("ok"))
	if err := WriteAll(p, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	got, err := ReadToken(p, 4, 5*time.Second, []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ok" {
		t.Errorf("ReadToken = %q, want ok", got)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Short reply should not wait for the full timeout")
	}
}

func TestReadTokenTimeout(t *testing.T) {
	p := NewScriptedPort()

	start := time.Now()
	got, err := ReadToken(p, 4, 30*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty reply, got %q", got)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Errorf("ReadToken returned before the timeout")
	}
}

// chunkReader hands out one chunk per Read. A nil chunk is an idle read.
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(b []byte) (int, error) {
	if len(r.chunks) == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	c := r.chunks[0]
	r.chunks = r.chunks[1:]
	if c == nil {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	return copy(b, c), nil
}

func TestReadTokenAssemblesSplitToken(t *testing.T) {
	r := &chunkReader{chunks: [][]byte{[]byte("he"), nil, nil, nil, []byte("lo")}}

	got, err := ReadToken(r, 4, time.Second, []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "helo" {
		t.Errorf("ReadToken = %q, want helo", got)
	}
}

func TestReadTokenPartialReplyWaitsForTimeout(t *testing.T) {
	r := &chunkReader{chunks: [][]byte{[]byte("do")}}

	start := time.Now()
	got, err := ReadToken(r, 4, 50*time.Millisecond, []byte("ok"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "do" {
		t.Errorf("ReadToken = %q, want do", got)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Errorf("An incomplete reply should wait for the timeout")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestReadTokenIOError(t *testing.T) {
	if _, err := ReadToken(failingReader{}, 4, time.Second); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected I/O error, got %v", err)
	}
}

func TestMockPortRecordsTraffic(t *testing.T) {
	p := NewMockPort(func(b []byte) []byte {
		return bytes.ToUpper(b)
	})

	if err := WriteAll(p, []byte("ping")); err != nil {
		t.Fatal(err)
	}
	got, _ := ReadToken(p, 4, time.Second)
	if string(got) != "PING" {
		t.Errorf("reply = %q", got)
	}

	if err := WriteAll(p, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, _ := ReadToken(p, 4, 10*time.Millisecond); len(got) != 0 {
		t.Errorf("Flush should drop pending bytes, got %q", got)
	}

	if n := len(p.Writes()); n != 2 {
		t.Errorf("Expected 2 writes recorded, got %d", n)
	}

	p.Close()
	if p.CloseCount() != 1 {
		t.Errorf("CloseCount = %d", p.CloseCount())
	}
	if _, err := p.Write([]byte("late")); err == nil {
		t.Errorf("Write after close should fail")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Baud != 9600 {
		t.Errorf("Baud = %d, want 9600", cfg.Baud)
	}
	if cfg.IdleTimeout != 100*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 100ms", cfg.IdleTimeout)
	}

	other := cfg.WithDevice("COM3")
	if other.Device != "COM3" || cfg.Device != "/dev/ttyACM0" {
		t.Errorf("WithDevice must copy: %q %q", other.Device, cfg.Device)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"default", DefaultConfig("/dev/ttyACM0"), false},
		{"blocking reads", &Config{Device: "COM3", Baud: 9600}, false},
		{"nil", nil, true},
		{"no device", DefaultConfig(""), true},
		{"zero baud", &Config{Device: "COM3"}, true},
		{"negative idle", &Config{Device: "COM3", Baud: 9600, IdleTimeout: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	if _, err := Open(DefaultConfig("")); err == nil {
		t.Errorf("Expected Open to refuse an empty device")
	}
}
