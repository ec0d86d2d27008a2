package sandbox

import (
	"bytes"
	"sync"
)

// collector is an io.Writer keeping a rolling tail of what was written,
// plus accurate totals even after early data has been trimmed away. Stdout
// and stderr share one collector, so it must tolerate concurrent writes.
type collector struct {
	mu       sync.Mutex
	buf      []byte
	max      int
	newlines int
	total    int64
	partial  bool // last byte seen was not a newline
}

func newCollector(max int) *collector {
	return &collector{max: max}
}

func (c *collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total += int64(len(p))
	c.newlines += bytes.Count(p, []byte{'\n'})
	if len(p) > 0 {
		c.partial = p[len(p)-1] != '\n'
	}

	c.buf = append(c.buf, p...)
	if len(c.buf) > c.max {
		trimmed := make([]byte, c.max)
		copy(trimmed, c.buf[len(c.buf)-c.max:])
		c.buf = trimmed
	}
	return len(p), nil
}

func (c *collector) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf...)
}

// totalLines counts every line ever written, an unterminated final line
// included.
func (c *collector) totalLines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.newlines
	if c.partial {
		n++
	}
	return n
}
