package iobuf

import "sync"

// pool recycles Buffers sized for a single request frame, avoiding a fresh
// allocation and grow/compact dance on every pipelined request.
var pool = sync.Pool{
	New: func() interface{} {
		return New(DefaultCapacity, DefaultPrepend)
	},
}

// Get returns a Buffer from the pool, already reset to empty.
func Get() *Buffer {
	return pool.Get().(*Buffer)
}

// Put resets b and returns it to the pool. Callers must not use b
// afterwards.
func Put(b *Buffer) {
	b.Reset()
	pool.Put(b)
}

// Reset discards all readable/writable content, restoring both cursors to
// the prepend reserve, same as RetrieveAll — named separately so pool
// recycling reads as a distinct lifecycle step from ordinary consumption.
func (b *Buffer) Reset() {
	b.RetrieveAll()
}
