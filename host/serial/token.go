package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// WriteAll writes b in full or returns an error
func WriteAll(p io.Writer, b []byte) error {
	n, err := p.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(b))
	}
	return nil
}

// ReadToken reads a reply of at most n bytes.
//
// It returns when n bytes have arrived or when timeout expires. A board
// may answer with a token shorter than n (such as "ok"); once the bytes
// read so far equal one of the complete tokens and the line goes idle,
// ReadToken returns without waiting for the timeout. Any other partial
// reply keeps reading, so a token split by a pause longer than the
// port's idle timeout is still assembled.
//
// A short or empty result is not an error: the caller compares the bytes
// against the token it expects. Only real I/O failures are returned.
func ReadToken(p io.Reader, n int, timeout time.Duration, complete ...[]byte) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(timeout)

	for got < n {
		k, err := p.Read(buf[got:])
		got += k

		if err != nil && !errors.Is(err, io.EOF) {
			return buf[:got], err
		}
		if got >= n {
			break
		}
		if k == 0 && isComplete(buf[:got], complete) {
			break
		}
		if !time.Now().Before(deadline) {
			break
		}
	}

	return buf[:got], nil
}

func isComplete(b []byte, tokens [][]byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, t := range tokens {
		if bytes.Equal(b, t) {
			return true
		}
	}
	return false
}
