package protocol

import (
	"errors"
	"fmt"

	"nightsky/clip"
)

var (
	// ErrMaskRange is returned by Pack for masks that do not fit 30 bits.
	ErrMaskRange = errors.New("protocol: mask exceeds 30 bits")

	// ErrRunLength is returned by Pack for run counts outside [1, MaxRun].
	ErrRunLength = errors.New("protocol: run length out of range")
)

// Record is one compressed wire unit: a star mask and the number of
// consecutive frames that show it, packed as mask|run<<30 and stored
// least-significant byte first.
type Record [RecordSize]byte

// Pack builds a record. Counts that do not fit the 10 run bits are
// rejected rather than truncated.
func Pack(mask uint32, run int) (Record, error) {
	var r Record
	if mask >= MaskLimit {
		return r, fmt.Errorf("%w: %#x", ErrMaskRange, mask)
	}
	if run < 1 || run > MaxRun {
		return r, fmt.Errorf("%w: %d (max %d)", ErrRunLength, run, MaxRun)
	}

	packed := uint64(mask) | uint64(run)<<RunShift
	for i := range r {
		r[i] = byte(packed >> (8 * i))
	}
	return r, nil
}

func (r Record) value() uint64 {
	var v uint64
	for i := range r {
		v |= uint64(r[i]) << (8 * i)
	}
	return v
}

// Mask returns the 30-bit star mask.
func (r Record) Mask() uint32 {
	return uint32(r.value() & (MaskLimit - 1))
}

// Run returns how many consecutive frames the mask is shown for.
func (r Record) Run() int {
	return int(r.value() >> RunShift)
}

func (r Record) String() string {
	return fmt.Sprintf("mask=%#08x run=%d", r.Mask(), r.Run())
}

// Encode collapses consecutive identical masks into records.
//
// Every run is emitted, including the one still open when the input
// ends. Runs longer than MaxRun continue in another record with the same
// mask. Masks must be below MaskLimit; higher bits are discarded.
func Encode(masks []uint32) []Record {
	var records []Record

	current := noMask
	run := 0

	emit := func() {
		if run == 0 {
			return
		}
		// Both arguments are in range here, Pack cannot fail.
		r, _ := Pack(current, run)
		records = append(records, r)
	}

	for _, m := range masks {
		m &= MaskLimit - 1
		if m == current && run < MaxRun {
			run++
			continue
		}
		emit()
		current = m
		run = 1
	}
	emit()

	return records
}

// Decode expands records back into one mask per frame.
func Decode(records []Record) []uint32 {
	var masks []uint32
	for _, r := range records {
		m := r.Mask()
		for i := 0; i < r.Run(); i++ {
			masks = append(masks, m)
		}
	}
	return masks
}

// EncodeClip compresses every frame of c in order.
func EncodeClip(c *clip.Clip) []Record {
	return Encode(c.Masks())
}

// DecodeFrames expands records into frames.
func DecodeFrames(records []Record) []clip.Frame {
	masks := Decode(records)
	frames := make([]clip.Frame, len(masks))
	for i, m := range masks {
		frames[i] = clip.FrameFromMask(m)
	}
	return frames
}

// Marshal concatenates records as they are sent on the wire.
func Marshal(records []Record) []byte {
	out := make([]byte, 0, len(records)*RecordSize)
	for _, r := range records {
		out = append(out, r[:]...)
	}
	return out
}

// Unmarshal splits wire bytes into records. A record with a zero run
// count cannot be produced by Encode and is rejected.
func Unmarshal(data []byte) ([]Record, error) {
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("record data length %d is not a multiple of %d", len(data), RecordSize)
	}

	records := make([]Record, 0, len(data)/RecordSize)
	for off := 0; off < len(data); off += RecordSize {
		var r Record
		copy(r[:], data[off:off+RecordSize])
		if r.Run() == 0 {
			return nil, fmt.Errorf("record %d: %w: 0", off/RecordSize, ErrRunLength)
		}
		records = append(records, r)
	}
	return records, nil
}
