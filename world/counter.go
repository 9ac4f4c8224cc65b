package world

import "go.uber.org/atomic"

// Counter hands out monotonically increasing indices for debug identity of produced values.
// Indices never carry ordering semantics.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next index.
func (c *Counter) Next() int64 {
	return c.n.Inc() - 1
}

// Peek returns the index Next would hand out.
func (c *Counter) Peek() int64 {
	return c.n.Load()
}
