package uploadlib

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/achterblog/fzpwuploader/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery.
// If wg is non-nil, it's decremented on completion (normal or panic).
// Panics are logged with stack traces; onPanic, if non-nil, gets the
// recovered value.
func safeGo(l logger.Logger, wg *sync.WaitGroup, name string, onPanic func(r interface{}), fn func()) {
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		defer func() {
			if r := recover(); r != nil {
				logger.OrNop(l).Error("PANIC [%s]: %v\n%s", name, r, debug.Stack())
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}

// safeCall runs fn on the calling goroutine and turns a panic into an
// error.
func safeCall(l logger.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.OrNop(l).Error("PANIC [%s]: %v\n%s", name, r, debug.Stack())
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}
