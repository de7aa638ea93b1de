package clip

import (
	"errors"
	"math/rand"
	"testing"

	"nightsky/fault"
)

// randomClip builds a clip of n frames with random star states and a
// random cursor.
func randomClip(r *rand.Rand, n int) *Clip {
	c := NewWithFrames(n)
	for i := range c.frames {
		c.frames[i] = FrameFromMask(uint32(r.Int63n(MaskLimit)))
	}
	if n > 0 {
		c.active = r.Intn(n)
	}
	return c
}

func TestNewClipIsEmpty(t *testing.T) {
	c := New()
	if c.Len() != 0 {
		t.Errorf("Expected empty clip, got %d frames", c.Len())
	}
	if c.Active() != -1 {
		t.Errorf("Expected no active frame, got %d", c.Active())
	}
	if err := c.ToggleStar(0); !fault.IsOutOfBounds(err) {
		t.Errorf("Expected out of bounds toggling on empty clip, got %v", err)
	}
}

func TestInsert(t *testing.T) {
	c := NewWithFrames(3)
	c.frames[1][4] = true
	if err := c.SetActive(2); err != nil {
		t.Fatal(err)
	}

	if err := c.Insert(1); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("Expected 4 frames, got %d", c.Len())
	}
	if c.frames[1].OnCount() != 0 {
		t.Errorf("Inserted frame should be all off")
	}
	if !c.frames[2][4] {
		t.Errorf("Frame after insert position should have shifted")
	}
	if c.Active() != 2 {
		t.Errorf("Insert must not move the cursor, got %d", c.Active())
	}

	if err := c.Insert(c.Len()); err != nil {
		t.Errorf("Insert at end should succeed: %v", err)
	}
	if err := c.Insert(c.Len() + 1); !fault.IsOutOfBounds(err) {
		t.Errorf("Expected out of bounds past the end, got %v", err)
	}
	if err := c.Insert(-1); !fault.IsOutOfBounds(err) {
		t.Errorf("Expected out of bounds for negative position, got %v", err)
	}
}

func TestInsertIntoEmptyClipSetsCursor(t *testing.T) {
	c := New()
	if err := c.Insert(0); err != nil {
		t.Fatal(err)
	}
	if c.Active() != 0 {
		t.Errorf("Expected cursor 0 after first insert, got %d", c.Active())
	}
}

func TestInsertThenRemoveRestoresContent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 8; n++ {
		for pos := 0; pos <= n; pos++ {
			c := randomClip(r, n)
			before := c.Frames()

			if err := c.Insert(pos); err != nil {
				t.Fatalf("n=%d pos=%d: insert: %v", n, pos, err)
			}
			if err := c.Remove(pos); err != nil {
				t.Fatalf("n=%d pos=%d: remove: %v", n, pos, err)
			}

			after := c.Frames()
			if n == 0 {
				// Removing the only frame refills the clip.
				if len(after) != 1 || after[0] != (Frame{}) {
					t.Errorf("n=0: expected single blank frame, got %v", after)
				}
				continue
			}
			if len(after) != len(before) {
				t.Fatalf("n=%d pos=%d: length %d, want %d", n, pos, len(after), len(before))
			}
			for i := range before {
				if before[i] != after[i] {
					t.Errorf("n=%d pos=%d: frame %d changed", n, pos, i)
				}
			}
		}
	}
}

func TestRemoveCursor(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		active     int
		remove     int
		wantActive int
		wantLen    int
	}{
		{"after cursor", 5, 2, 4, 2, 4},
		{"at cursor", 5, 2, 2, 1, 4},
		{"before cursor", 5, 2, 0, 1, 4},
		{"at first frame clamps", 5, 0, 0, 0, 4},
		{"last frame of two", 2, 1, 1, 0, 1},
		{"only frame refills", 1, 0, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWithFrames(tt.frames)
			c.active = tt.active
			if err := c.Remove(tt.remove); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if c.Active() != tt.wantActive {
				t.Errorf("Active() = %d, want %d", c.Active(), tt.wantActive)
			}
			if c.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", c.Len(), tt.wantLen)
			}
		})
	}
}

func TestRemoveKeepsCursorInRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 1 + r.Intn(10)
		c := randomClip(r, n)
		id := r.Intn(n)
		prev := c.Active()

		if err := c.Remove(id); err != nil {
			t.Fatal(err)
		}
		if c.Active() < 0 || c.Active() >= c.Len() {
			t.Fatalf("cursor %d outside [0, %d)", c.Active(), c.Len())
		}
		if id <= prev {
			want := prev - 1
			if want < 0 {
				want = 0
			}
			if c.Active() != want {
				t.Fatalf("removing %d with cursor %d: got %d, want %d", id, prev, c.Active(), want)
			}
		}
	}
}

func TestRemoveOutOfBounds(t *testing.T) {
	c := NewWithFrames(2)
	for _, id := range []int{-1, 2, 10} {
		err := c.Remove(id)
		var fe *fault.Error
		if !errors.As(err, &fe) || fe.Kind != fault.OutOfBounds {
			t.Errorf("Remove(%d): expected OutOfBounds, got %v", id, err)
			continue
		}
		if fe.Index != id || fe.Limit != 2 {
			t.Errorf("Remove(%d): unexpected payload index=%d limit=%d", id, fe.Index, fe.Limit)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Failed removes must not change the clip")
	}
}

func TestDuplicateIsDeepCopy(t *testing.T) {
	c := NewWithFrames(2)
	if err := c.SetStar(3, true); err != nil {
		t.Fatal(err)
	}

	c.Duplicate()
	if c.Len() != 3 {
		t.Fatalf("Expected 3 frames, got %d", c.Len())
	}
	if c.frames[1] != c.frames[0] {
		t.Errorf("Duplicate should equal the original")
	}
	if c.Active() != 0 {
		t.Errorf("Cursor should stay on the original, got %d", c.Active())
	}

	if err := c.ToggleStar(3); err != nil {
		t.Fatal(err)
	}
	if !c.frames[1][3] {
		t.Errorf("Editing the original must not change the copy")
	}

	New().Duplicate() // no-op, must not panic
}

func TestMoveClamps(t *testing.T) {
	tests := []struct {
		name   string
		active int
		to     int
		want   int
	}{
		{"forward", 0, 2, 2},
		{"backward", 3, 1, 1},
		{"past end", 1, 99, 3},
		{"before start", 2, -5, 0},
		{"in place", 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWithFrames(4)
			for i := range c.frames {
				c.frames[i][i] = true
			}
			c.active = tt.active
			moved := c.frames[tt.active]

			c.Move(tt.to)
			if c.Active() != tt.want {
				t.Errorf("Active() = %d, want %d", c.Active(), tt.want)
			}
			if c.frames[tt.want] != moved {
				t.Errorf("Moved frame not at position %d", tt.want)
			}
			if c.Len() != 4 {
				t.Errorf("Move changed length to %d", c.Len())
			}
		})
	}
}

func TestMoveUpDownAtEnds(t *testing.T) {
	c := NewWithFrames(3)
	c.MoveUp()
	if c.Active() != 0 {
		t.Errorf("MoveUp at start should stay at 0, got %d", c.Active())
	}
	c.active = 2
	c.MoveDown()
	if c.Active() != 2 {
		t.Errorf("MoveDown at end should stay at 2, got %d", c.Active())
	}

	New().Move(3) // no-op on empty clip
}

func TestNavigation(t *testing.T) {
	c := NewWithFrames(3)

	if err := c.Prev(); !fault.IsOutOfBounds(err) {
		t.Errorf("Prev at start: expected out of bounds, got %v", err)
	}
	if err := c.Next(); err != nil {
		t.Errorf("Next: %v", err)
	}
	if err := c.Next(); err != nil {
		t.Errorf("Next: %v", err)
	}
	if err := c.Next(); !fault.IsOutOfBounds(err) {
		t.Errorf("Next at end: expected out of bounds, got %v", err)
	}
	if c.Active() != 2 {
		t.Errorf("Failed navigation must not move the cursor, got %d", c.Active())
	}
	if err := c.SetActive(3); !fault.IsOutOfBounds(err) {
		t.Errorf("SetActive(3): expected out of bounds, got %v", err)
	}
}

func TestStarOperations(t *testing.T) {
	c := NewWithFrames(1)

	if err := c.SetStar(29, true); err != nil {
		t.Fatal(err)
	}
	on, err := c.Star(29)
	if err != nil || !on {
		t.Errorf("Star(29) = %v, %v; want true", on, err)
	}
	if err := c.ToggleStar(29); err != nil {
		t.Fatal(err)
	}
	if on, _ := c.Star(29); on {
		t.Errorf("Toggle should turn star 29 off")
	}

	for _, id := range []int{-1, NumStars} {
		if err := c.SetStar(id, true); !fault.IsOutOfBounds(err) {
			t.Errorf("SetStar(%d): expected out of bounds, got %v", id, err)
		}
		if err := c.ToggleStar(id); !fault.IsOutOfBounds(err) {
			t.Errorf("ToggleStar(%d): expected out of bounds, got %v", id, err)
		}
	}
}
