// Package clip models a Nightsky animation: an ordered list of frames
// plus the cursor an editor works on.
//
// A Clip is not safe for concurrent use. Editing and uploading must not
// overlap; encode the clip (protocol.EncodeClip) before handing the
// records to an upload session.
package clip

import (
	"nightsky/fault"
)

// Clip is an animation sequence. The zero value is an empty clip with no
// active frame; use New.
type Clip struct {
	frames []Frame

	// active is the cursor: 0 <= active < len(frames), or -1 when empty.
	active int

	// path is where the clip was loaded from or last saved to.
	path string
}

// New returns an empty clip.
func New() *Clip {
	return &Clip{active: -1}
}

// NewWithFrames returns a clip holding n all-off frames with the cursor
// on the first one.
func NewWithFrames(n int) *Clip {
	c := New()
	for i := 0; i < n; i++ {
		c.Append()
	}
	if n > 0 {
		c.active = 0
	}
	return c
}

// Len returns the number of frames.
func (c *Clip) Len() int {
	return len(c.frames)
}

// Active returns the index of the active frame, or -1 if the clip is empty.
func (c *Clip) Active() int {
	return c.active
}

// Path returns the file path associated with the clip, if any.
func (c *Clip) Path() string {
	return c.path
}

// SetPath associates the clip with a file path.
func (c *Clip) SetPath(path string) {
	c.path = path
}

// Frame returns a copy of frame i.
func (c *Clip) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(c.frames) {
		return Frame{}, fault.OutOfRange("frame", i, len(c.frames))
	}
	return c.frames[i], nil
}

// Frames returns a copy of all frames in order.
func (c *Clip) Frames() []Frame {
	return append([]Frame(nil), c.frames...)
}

// Masks returns the 30-bit mask of every frame in order.
func (c *Clip) Masks() []uint32 {
	masks := make([]uint32, len(c.frames))
	for i, f := range c.frames {
		masks[i] = f.Mask()
	}
	return masks
}

// ==== Navigation ====

// SetActive moves the cursor to frame id.
func (c *Clip) SetActive(id int) error {
	if id < 0 || id >= len(c.frames) {
		return fault.OutOfRange("set active", id, len(c.frames))
	}
	c.active = id
	return nil
}

// Next moves the cursor forward. At the last frame it returns an
// OutOfBounds error and leaves the cursor where it is.
func (c *Clip) Next() error {
	return c.SetActive(c.active + 1)
}

// Prev moves the cursor back. At the first frame it returns an
// OutOfBounds error and leaves the cursor where it is.
func (c *Clip) Prev() error {
	return c.SetActive(c.active - 1)
}

// ==== Frame management ====

// Append adds an all-off frame at the end. The cursor only moves if the
// clip was empty.
func (c *Clip) Append() {
	c.frames = append(c.frames, Frame{})
	if c.active < 0 {
		c.active = 0
	}
}

// Insert adds an all-off frame at pos, 0 <= pos <= Len(). Later frames
// shift back; the cursor index is unchanged.
func (c *Clip) Insert(pos int) error {
	if pos < 0 || pos > len(c.frames) {
		return fault.OutOfRange("insert", pos, len(c.frames)+1)
	}
	c.frames = append(c.frames, Frame{})
	copy(c.frames[pos+1:], c.frames[pos:])
	c.frames[pos] = Frame{}
	if c.active < 0 {
		c.active = 0
	}
	return nil
}

// Remove deletes frame id. Removing a frame at or before the cursor
// moves the cursor back by one, never below 0. Removing the last
// remaining frame leaves a single all-off frame in its place, so a clip
// with frames never becomes empty through Remove.
func (c *Clip) Remove(id int) error {
	if id < 0 || id >= len(c.frames) {
		return fault.OutOfRange("remove", id, len(c.frames))
	}

	if id <= c.active {
		c.active--
	}
	c.frames = append(c.frames[:id], c.frames[id+1:]...)

	if len(c.frames) == 0 {
		c.frames = append(c.frames, Frame{})
	}
	if c.active < 0 {
		c.active = 0
	}
	return nil
}

// Duplicate inserts a copy of the active frame directly after it. It is a
// no-op on an empty clip. The cursor stays on the original.
func (c *Clip) Duplicate() {
	if len(c.frames) == 0 {
		return
	}
	dup := c.frames[c.active]
	pos := c.active + 1
	c.frames = append(c.frames, Frame{})
	copy(c.frames[pos+1:], c.frames[pos:])
	c.frames[pos] = dup
}

// Move relocates the active frame to newPos, clamped into
// [0, Len()-1]. The cursor follows the frame.
func (c *Clip) Move(newPos int) {
	if len(c.frames) == 0 {
		return
	}
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(c.frames)-1 {
		newPos = len(c.frames) - 1
	}

	f := c.frames[c.active]
	c.frames = append(c.frames[:c.active], c.frames[c.active+1:]...)
	c.frames = append(c.frames, Frame{})
	copy(c.frames[newPos+1:], c.frames[newPos:])
	c.frames[newPos] = f
	c.active = newPos
}

// MoveUp moves the active frame one position towards the start.
func (c *Clip) MoveUp() {
	c.Move(c.active - 1)
}

// MoveDown moves the active frame one position towards the end.
func (c *Clip) MoveDown() {
	c.Move(c.active + 1)
}

// ==== Star editing on the active frame ====

func (c *Clip) activeFrame(op string) (*Frame, error) {
	if len(c.frames) == 0 {
		return nil, fault.OutOfRange(op, c.active, 0)
	}
	return &c.frames[c.active], nil
}

// Star returns the state of star id in the active frame.
func (c *Clip) Star(id int) (bool, error) {
	f, err := c.activeFrame("star")
	if err != nil {
		return false, err
	}
	return f.Star(id)
}

// SetStar sets star id in the active frame.
func (c *Clip) SetStar(id int, on bool) error {
	f, err := c.activeFrame("set star")
	if err != nil {
		return err
	}
	return f.SetStar(id, on)
}

// ToggleStar flips star id in the active frame.
func (c *Clip) ToggleStar(id int) error {
	f, err := c.activeFrame("toggle star")
	if err != nil {
		return err
	}
	return f.ToggleStar(id)
}
