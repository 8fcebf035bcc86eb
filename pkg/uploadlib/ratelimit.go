package uploadlib

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// rateLimitedReader throttles an upload body with a token bucket holding
// at most one second worth of bytes. The bucket starts empty.
type rateLimitedReader struct {
	io.ReadCloser
	limit int64 // bytes per second

	mu       sync.Mutex
	lastRead time.Time
	tokens   int64
	sleep    func(time.Duration)
}

func withRateLimit(rc io.ReadCloser, limit int64) io.ReadCloser {
	if limit <= 0 {
		return rc
	}
	return &rateLimitedReader{
		ReadCloser: rc,
		limit:      limit,
		lastRead:   time.Now(),
		sleep:      time.Sleep,
	}
}

func (r *rateLimitedReader) refill() {
	now := time.Now()
	r.tokens += int64(float64(r.limit) * now.Sub(r.lastRead).Seconds())
	r.lastRead = now
	if r.tokens > r.limit {
		r.tokens = r.limit
	}
}

func (r *rateLimitedReader) Read(b []byte) (int, error) {
	r.mu.Lock()
	r.refill()
	want := min(int64(len(b)), r.limit)
	if r.tokens < want {
		wait := time.Duration(float64(time.Second) * float64(want-r.tokens) / float64(r.limit))
		r.mu.Unlock()
		r.sleep(wait)
		r.mu.Lock()
		r.refill()
	}
	size := want
	if r.tokens > 0 && size > r.tokens {
		size = r.tokens
	}
	size = max(size, 1)
	r.mu.Unlock()

	n, err := r.ReadCloser.Read(b[:size])

	r.mu.Lock()
	r.tokens -= int64(n)
	r.mu.Unlock()
	return n, err
}

// ParseRate parses a bandwidth limit such as "512KB", "1.5MiB" or "100000"
// into bytes per second. "0" and "" mean unlimited.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/s"), "ps")
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit %q: %w", s, err)
	}
	return int64(n), nil
}
