package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nightsky/clip"
	"nightsky/fault"
)

// editor applies line commands to a clip.
type editor struct {
	clip  *clip.Clip
	out   io.Writer
	dirty bool

	// quitArmed is set after a quit refused because of unsaved changes.
	quitArmed bool
}

func newEditor(c *clip.Clip, out io.Writer) *editor {
	return &editor{clip: c, out: out}
}

// run reads commands from in until EOF or quit. With prompt set it
// behaves as an interactive session: errors are printed and the loop
// goes on. Otherwise the first error stops it.
func (e *editor) run(in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(e.out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		quit, err := e.exec(scanner.Text())
		if err != nil {
			if !prompt {
				return err
			}
			fmt.Fprintf(e.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line and reports whether the editor should stop.
func (e *editor) exec(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]
	if cmd != "quit" && cmd != "exit" && cmd != "q" {
		e.quitArmed = false
	}

	switch cmd {
	case "quit", "exit", "q":
		if e.dirty && !e.quitArmed {
			e.quitArmed = true
			fmt.Fprintln(e.out, "Unsaved changes; save first or quit again to discard.")
			return false, nil
		}
		return true, nil

	case "help", "?":
		printHelp(e.out)

	case "show", "ls":
		printClip(e.out, e.clip)

	case "frame", "f":
		return false, e.printActive()

	case "next", "n":
		return false, e.navigate(e.clip.Next(), "last")

	case "prev", "p":
		return false, e.navigate(e.clip.Prev(), "first")

	case "goto", "g":
		id, err := intArg(args, 0, "goto <frame>")
		if err != nil {
			return false, err
		}
		return false, e.clip.SetActive(id)

	case "append", "a":
		e.clip.Append()
		e.changed()

	case "insert", "i":
		pos, err := optIntArg(args, e.clip.Active()+1, "insert [pos]")
		if err != nil {
			return false, err
		}
		if err := e.clip.Insert(pos); err != nil {
			return false, err
		}
		e.changed()

	case "remove", "rm":
		id, err := optIntArg(args, e.clip.Active(), "remove [frame]")
		if err != nil {
			return false, err
		}
		if err := e.clip.Remove(id); err != nil {
			return false, err
		}
		e.changed()

	case "dup", "d":
		e.clip.Duplicate()
		e.changed()

	case "move", "mv":
		pos, err := intArg(args, 0, "move <pos>")
		if err != nil {
			return false, err
		}
		e.clip.Move(pos)
		e.changed()

	case "up":
		e.clip.MoveUp()
		e.changed()

	case "down":
		e.clip.MoveDown()
		e.changed()

	case "toggle", "t", "on", "off":
		return false, e.stars(cmd, args)

	case "clear", "fill":
		for id := 0; id < clip.NumStars; id++ {
			if err := e.clip.SetStar(id, cmd == "fill"); err != nil {
				return false, err
			}
		}
		e.changed()

	case "save", "w":
		path := ""
		if len(args) > 0 {
			path = clip.EnsureExtension(args[0])
		}
		if err := e.clip.Save(path); err != nil {
			return false, err
		}
		e.dirty = false
		fmt.Fprintf(e.out, "Saved %s\n", e.clip.Path())

	default:
		return false, fmt.Errorf("unknown command %q (type 'help')", cmd)
	}

	return false, nil
}

func (e *editor) changed() {
	e.dirty = true
}

// navigate turns running off either end of the clip into a no-op.
func (e *editor) navigate(err error, end string) error {
	if fault.IsOutOfBounds(err) {
		fmt.Fprintf(e.out, "Already at the %s frame.\n", end)
		return nil
	}
	return err
}

func (e *editor) stars(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <star>...", cmd)
	}
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid star %q", a)
		}
		switch cmd {
		case "on":
			err = e.clip.SetStar(id, true)
		case "off":
			err = e.clip.SetStar(id, false)
		default:
			err = e.clip.ToggleStar(id)
		}
		if err != nil {
			return err
		}
		e.changed()
	}
	return nil
}

func (e *editor) printActive() error {
	f, err := e.clip.Frame(e.clip.Active())
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Frame %d/%d\n", e.clip.Active(), e.clip.Len())
	for id, on := range f.States() {
		state := "off"
		if on {
			state = "on"
		}
		fmt.Fprintf(e.out, "  star %2d: %s\n", id, state)
	}
	return nil
}

func printClip(out io.Writer, c *clip.Clip) {
	if c.Len() == 0 {
		fmt.Fprintln(out, "(empty clip)")
		return
	}
	for i, f := range c.Frames() {
		marker := " "
		if i == c.Active() {
			marker = ">"
		}
		fmt.Fprintf(out, "%s %4d  %s  %2d on\n", marker, i, f, f.OnCount())
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  show                 - List all frames")
	fmt.Fprintln(out, "  frame                - Show stars of the active frame")
	fmt.Fprintln(out, "  next, prev           - Move the cursor")
	fmt.Fprintln(out, "  goto <frame>         - Select a frame")
	fmt.Fprintln(out, "  append               - Add a blank frame at the end")
	fmt.Fprintln(out, "  insert [pos]         - Insert a blank frame (default: after the active one)")
	fmt.Fprintln(out, "  remove [frame]       - Delete a frame (default: the active one)")
	fmt.Fprintln(out, "  dup                  - Duplicate the active frame")
	fmt.Fprintln(out, "  move <pos>, up, down - Reorder the active frame")
	fmt.Fprintln(out, "  toggle|on|off <star> - Change stars of the active frame")
	fmt.Fprintln(out, "  clear, fill          - Switch all stars off or on")
	fmt.Fprintln(out, "  save [path]          - Write the clip")
	fmt.Fprintln(out, "  quit                 - Leave the editor")
}

func intArg(args []string, i int, usage string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	return v, nil
}

func optIntArg(args []string, def int, usage string) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	return intArg(args, 0, usage)
}
