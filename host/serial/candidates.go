package serial

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Candidates lists the endpoints that could host a Nightsky board on
// this platform. Nothing is opened; discovery probes each one.
func Candidates() ([]string, error) {
	return candidatesFor(runtime.GOOS, filepath.Glob)
}

func candidatesFor(goos string, glob func(string) ([]string, error)) ([]string, error) {
	var patterns []string

	switch {
	case goos == "windows":
		ports := make([]string, 0, 256)
		for i := 1; i <= 256; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
		return ports, nil

	case goos == "linux", strings.HasPrefix(goos, "cygwin"):
		// The bracket excludes the controlling terminal /dev/tty itself
		patterns = []string{"/dev/tty[A-Za-z]*"}

	case goos == "darwin":
		patterns = []string{"/dev/tty.*"}

	default:
		return nil, fmt.Errorf("unsupported platform %q", goos)
	}

	var ports []string
	for _, p := range patterns {
		matches, err := glob(p)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
		ports = append(ports, matches...)
	}
	sort.Strings(ports)
	return ports, nil
}
