package upload

import "fmt"

// Phase is a state of the upload protocol.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHandshaking
	PhaseStreaming
	PhaseEnding
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHandshaking:
		return "handshaking"
	case PhaseStreaming:
		return "streaming"
	case PhaseEnding:
		return "ending"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Event reports session progress to observers.
type Event struct {
	// Session is the ID of the session that emitted the event.
	Session string

	Phase Phase

	// Index is the number of records acknowledged so far, Total the
	// number of records in the upload.
	Index int
	Total int

	// Aborted is set on the first event after the driver noticed an
	// abort request.
	Aborted bool

	// Err is set on the PhaseClosed event of a failed session.
	Err error
}

func (e Event) String() string {
	s := e.Phase.String()
	if e.Phase == PhaseStreaming {
		s = fmt.Sprintf("%s %d/%d", s, e.Index, e.Total)
	}
	if e.Aborted {
		s += " (abort acknowledged)"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
