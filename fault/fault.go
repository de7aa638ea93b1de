// Package fault defines the error kinds shared by the clip model, the
// codec and the upload transport.
//
// Every domain failure is a *Error tagged with a Kind. Callers branch on
// the kind with errors.Is against the package sentinels, or with KindOf:
//
//	if errors.Is(err, fault.ErrOutOfBounds) {
//	    return // end of clip, nothing to do
//	}
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind int

const (
	KindUnknown Kind = iota

	// CommunicationFault: the device answered with something other than
	// the expected token. Carries Expected and Actual.
	CommunicationFault

	// PayloadTooLarge: the device reported its buffer full ("done")
	// while records were still being streamed.
	PayloadTooLarge

	// OutOfBounds: a frame or star index outside the valid range.
	OutOfBounds

	// MissingDestination: a clip was saved with no known path.
	MissingDestination

	// Aborted: the upload was cancelled by its owner.
	Aborted
)

func (k Kind) String() string {
	switch k {
	case CommunicationFault:
		return "communication fault"
	case PayloadTooLarge:
		return "payload too large"
	case OutOfBounds:
		return "out of bounds"
	case MissingDestination:
		return "missing destination"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Error is a tagged domain error. Only the fields relevant to Kind are set.
type Error struct {
	Kind Kind

	// Op names the operation that failed (e.g. "handshake", "set active").
	Op string

	// Expected and Actual hold the raw reply tokens of a CommunicationFault.
	Expected []byte
	Actual   []byte

	// Index is the offending frame/star index, or the record index for
	// PayloadTooLarge and the number of records sent for Aborted.
	Index int

	// Limit is the exclusive upper bound for OutOfBounds.
	Limit int
}

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrCommunication      = &Error{Kind: CommunicationFault}
	ErrPayloadTooLarge    = &Error{Kind: PayloadTooLarge}
	ErrOutOfBounds        = &Error{Kind: OutOfBounds}
	ErrMissingDestination = &Error{Kind: MissingDestination}
	ErrAborted            = &Error{Kind: Aborted}
)

func (e *Error) Error() string {
	switch e.Kind {
	case CommunicationFault:
		return fmt.Sprintf("%s: %s: expected %q, got %q", e.Op, e.Kind, e.Expected, e.Actual)
	case PayloadTooLarge:
		return fmt.Sprintf("%s: compressed clip too long (device full at record %d)", e.Op, e.Index)
	case OutOfBounds:
		return fmt.Sprintf("%s: index %d out of bounds [0, %d)", e.Op, e.Index, e.Limit)
	case MissingDestination:
		return fmt.Sprintf("%s: missing file path", e.Op)
	case Aborted:
		return fmt.Sprintf("%s: aborted after %d records", e.Op, e.Index)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Communication returns a CommunicationFault for op.
func Communication(op string, expected, actual []byte) *Error {
	return &Error{
		Kind:     CommunicationFault,
		Op:       op,
		Expected: append([]byte(nil), expected...),
		Actual:   append([]byte(nil), actual...),
	}
}

// TooLarge returns a PayloadTooLarge raised while sending record index.
func TooLarge(op string, index int) *Error {
	return &Error{Kind: PayloadTooLarge, Op: op, Index: index}
}

// OutOfRange returns an OutOfBounds error for index against [0, limit).
func OutOfRange(op string, index, limit int) *Error {
	return &Error{Kind: OutOfBounds, Op: op, Index: index, Limit: limit}
}

// NoDestination returns a MissingDestination error.
func NoDestination(op string) *Error {
	return &Error{Kind: MissingDestination, Op: op}
}

// Abort returns an Aborted error after sent records.
func Abort(op string, sent int) *Error {
	return &Error{Kind: Aborted, Op: op, Index: sent}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsOutOfBounds is shorthand for the routine boundary check done by
// navigation callers.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, ErrOutOfBounds)
}
