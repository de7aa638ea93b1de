package clip

import (
	"fmt"

	"nightsky/fault"
)

// NumStars is the number of controllable outputs on a Nightsky board.
const NumStars = 30

// MaskLimit is one past the largest valid frame mask (2^30).
const MaskLimit = 1 << NumStars

// Frame is one on/off snapshot across all stars. It is a value type:
// assigning a Frame copies it.
type Frame [NumStars]bool

// FrameFromStates builds a frame from a persisted star vector, which must
// hold exactly NumStars entries.
func FrameFromStates(states []bool) (Frame, error) {
	var f Frame
	if len(states) != NumStars {
		return f, fmt.Errorf("frame has %d stars, want %d", len(states), NumStars)
	}
	copy(f[:], states)
	return f, nil
}

// FrameFromMask is the inverse of Mask. Bits above the 30 mask bits are
// ignored.
func FrameFromMask(mask uint32) Frame {
	var f Frame
	for i := range f {
		f[i] = mask&(1<<(NumStars-1-i)) != 0
	}
	return f
}

// Mask packs the frame into 30 bits. Star 0 is the most significant bit,
// star 29 the least significant.
func (f Frame) Mask() uint32 {
	var mask uint32
	for i, on := range f {
		if on {
			mask |= 1 << (NumStars - 1 - i)
		}
	}
	return mask
}

// Star returns the state of star id.
func (f *Frame) Star(id int) (bool, error) {
	if id < 0 || id >= NumStars {
		return false, fault.OutOfRange("star", id, NumStars)
	}
	return f[id], nil
}

// SetStar sets star id on or off.
func (f *Frame) SetStar(id int, on bool) error {
	if id < 0 || id >= NumStars {
		return fault.OutOfRange("set star", id, NumStars)
	}
	f[id] = on
	return nil
}

// ToggleStar flips star id.
func (f *Frame) ToggleStar(id int) error {
	if id < 0 || id >= NumStars {
		return fault.OutOfRange("toggle star", id, NumStars)
	}
	f[id] = !f[id]
	return nil
}

// States returns the frame as a slice, as stored in clip documents.
func (f Frame) States() []bool {
	return append([]bool(nil), f[:]...)
}

// OnCount returns the number of lit stars.
func (f Frame) OnCount() int {
	n := 0
	for _, on := range f {
		if on {
			n++
		}
	}
	return n
}

// String renders the frame as 30 characters, '*' for on and '.' for off.
func (f Frame) String() string {
	b := make([]byte, NumStars)
	for i, on := range f {
		if on {
			b[i] = '*'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}
