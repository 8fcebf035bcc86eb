package logger

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

// DefaultBufferSize is the capacity of the in-memory log kept for
// "fzpwup upload --show-log".
const DefaultBufferSize = 1024 * 1024

// BufferLogger keeps the most recent log output in memory. When the buffer
// exceeds its capacity the oldest lines are dropped.
type BufferLogger struct {
	mu    sync.Mutex
	buf   []byte
	max   int
	debug bool
	now   func() time.Time
}

// NewBufferLogger creates a BufferLogger holding at most max bytes.
// A max of zero or less uses DefaultBufferSize.
func NewBufferLogger(max int, debug bool) *BufferLogger {
	if max <= 0 {
		max = DefaultBufferSize
	}
	return &BufferLogger{max: max, debug: debug, now: time.Now}
}

func (b *BufferLogger) write(level, format string, args []interface{}) {
	line := fmt.Sprintf("%s %s - %s\n", b.now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, line...)
	if over := len(b.buf) - b.max; over > 0 {
		cut := over
		// keep whole lines where possible
		if i := bytes.IndexByte(b.buf[over:], '\n'); i >= 0 && over+i+1 < len(b.buf) {
			cut = over + i + 1
		}
		b.buf = append(b.buf[:0], b.buf[cut:]...)
	}
}

func (b *BufferLogger) Debug(format string, args ...interface{}) {
	if b.debug {
		b.write("DEBUG", format, args)
	}
}

func (b *BufferLogger) Info(format string, args ...interface{}) {
	b.write("INFO", format, args)
}

func (b *BufferLogger) Warning(format string, args ...interface{}) {
	b.write("WARN", format, args)
}

func (b *BufferLogger) Error(format string, args ...interface{}) {
	b.write("ERROR", format, args)
}

// String returns the buffered log text.
func (b *BufferLogger) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// Reset empties the buffer.
func (b *BufferLogger) Reset() {
	b.mu.Lock()
	b.buf = b.buf[:0]
	b.mu.Unlock()
}

func (b *BufferLogger) Close() error {
	return nil
}

var _ Logger = (*BufferLogger)(nil)
