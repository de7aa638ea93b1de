package serial

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned by Acquire when another session or probe owns the
// endpoint.
var ErrBusy = errors.New("serial: endpoint busy")

var (
	locksMu sync.Mutex
	locks   = map[string]struct{}{}
)

// Acquire claims exclusive use of device within this process. The
// returned release func is idempotent.
func Acquire(device string) (release func(), err error) {
	locksMu.Lock()
	defer locksMu.Unlock()

	if _, held := locks[device]; held {
		return nil, fmt.Errorf("%w: %s", ErrBusy, device)
	}
	locks[device] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			locksMu.Lock()
			delete(locks, device)
			locksMu.Unlock()
		})
	}, nil
}
