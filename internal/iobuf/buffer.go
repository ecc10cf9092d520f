// Package iobuf implements the growable byte arena used to assemble and
// parse Dubbo frames: a single owned byte slice with a small prepend
// reserve at the front so a frame header can be written after its body is
// already encoded, without a copy.
package iobuf

import (
	"encoding/binary"
	"io"
)

const (
	// DefaultCapacity is the initial size of the readable+writable region.
	DefaultCapacity = 1024
	// DefaultPrepend is the reserve kept at the front of the buffer for
	// headers that are only known once their body has been encoded. Sized
	// to the Dubbo frame header (16 bytes) so pooled Buffers never need a
	// realloc just to make room for Prepend.
	DefaultPrepend = 16

	// auxReadSize is the size of the on-stack auxiliary region used by
	// ReadFrom's vectored read, so a single syscall can absorb a response
	// larger than the buffer's current writable tail.
	auxReadSize = 65536
)

// Buffer is a single-owner growable byte arena. It is never safe to share
// across concurrent readers and writers; callers that need concurrent
// access must synchronize externally.
type Buffer struct {
	data  []byte
	rIdx  int
	wIdx  int
	pSize int // prepend reserve carried across grow/compact
}

// New creates a Buffer with the given initial capacity and prepend reserve.
func New(capacity, prepend int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if prepend < 0 {
		prepend = 0
	}
	b := &Buffer{
		data:  make([]byte, capacity+prepend),
		pSize: prepend,
	}
	b.rIdx = prepend
	b.wIdx = prepend
	return b
}

// NewDefault creates a Buffer with the package defaults (1024 capacity,
// 16-byte prepend reserve).
func NewDefault() *Buffer {
	return New(DefaultCapacity, DefaultPrepend)
}

// Readable returns the number of bytes available to read.
func (b *Buffer) Readable() int { return b.wIdx - b.rIdx }

// Writable returns the number of bytes that can be appended without growing.
func (b *Buffer) Writable() int { return len(b.data) - b.wIdx }

// Prependable returns the number of bytes available in front of the
// readable region, i.e. how much Prepend can write without panicking.
func (b *Buffer) Prependable() int { return b.rIdx }

// Cap returns the total backing array size.
func (b *Buffer) Cap() int { return len(b.data) }

// Peek returns the readable region without consuming it. The returned
// slice aliases the buffer's backing array and is only valid until the
// next mutating call.
func (b *Buffer) Peek() []byte { return b.data[b.rIdx:b.wIdx] }

// PeekN returns a read-only view of exactly n bytes of the readable region,
// without copying them. It panics if n exceeds what is currently readable — a programmer
// precondition, per the buffer's contract.
func (b *Buffer) PeekN(n int) []byte {
	if n > b.Readable() {
		panic("iobuf: PeekN beyond readable region")
	}
	return b.data[b.rIdx : b.rIdx+n]
}

// Retrieve consumes len bytes from the front of the readable region. When
// all readable bytes have been consumed, both cursors reset to the
// prepend reserve so prependable space is restored.
func (b *Buffer) Retrieve(n int) {
	if n > b.Readable() {
		panic("iobuf: Retrieve beyond readable region")
	}
	if n < b.Readable() {
		b.rIdx += n
	} else {
		b.RetrieveAll()
	}
}

// RetrieveAll discards the entire readable region.
func (b *Buffer) RetrieveAll() {
	b.rIdx = b.pSize
	b.wIdx = b.pSize
}

// EnsureWritable guarantees Writable() >= n, compacting or growing the
// backing array as needed. Compaction (memmove the readable region back to
// the prepend reserve) is preferred whenever the buffer's total free space
// already suffices; otherwise the array is reallocated.
func (b *Buffer) EnsureWritable(n int) {
	if b.Writable() >= n {
		return
	}
	b.makeSpace(n)
}

func (b *Buffer) makeSpace(n int) {
	readable := b.Readable()
	freeSpace := b.Prependable() + b.Writable() - b.pSize
	if freeSpace < n {
		newCap := b.wIdx + n
		nbuf := make([]byte, newCap)
		copy(nbuf[b.pSize:], b.Peek())
		b.data = nbuf
	} else {
		copy(b.data[b.pSize:], b.Peek())
	}
	b.rIdx = b.pSize
	b.wIdx = b.pSize + readable
}

// Append copies data to the write cursor, growing or compacting first if
// necessary, and advances the write cursor.
func (b *Buffer) Append(data []byte) {
	b.EnsureWritable(len(data))
	copy(b.data[b.wIdx:], data)
	b.wIdx += len(data)
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(v byte) {
	b.EnsureWritable(1)
	b.data[b.wIdx] = v
	b.wIdx++
}

// Prepend requires Prependable() >= len(data); it rewinds the read cursor
// and writes data into the freed gap. Used by the framer to write the
// 16-byte header after the body has already been encoded.
func (b *Buffer) Prepend(data []byte) {
	if len(data) > b.Prependable() {
		panic("iobuf: Prepend exceeds prependable region")
	}
	b.rIdx -= len(data)
	copy(b.data[b.rIdx:], data)
}

// BeginWrite returns a slice of the writable tail, for encoders that write
// directly into the buffer and then call CommitWrite.
func (b *Buffer) BeginWrite() []byte { return b.data[b.wIdx:] }

// CommitWrite advances the write cursor by n, after a direct write into the
// slice returned by BeginWrite.
func (b *Buffer) CommitWrite(n int) {
	if n > b.Writable() {
		panic("iobuf: CommitWrite beyond writable region")
	}
	b.wIdx += n
}

// --- numeric helpers, network byte order ---

func (b *Buffer) AppendUint16(v uint16) {
	b.EnsureWritable(2)
	binary.BigEndian.PutUint16(b.data[b.wIdx:], v)
	b.wIdx += 2
}

func (b *Buffer) AppendUint32(v uint32) {
	b.EnsureWritable(4)
	binary.BigEndian.PutUint32(b.data[b.wIdx:], v)
	b.wIdx += 4
}

func (b *Buffer) AppendUint64(v uint64) {
	b.EnsureWritable(8)
	binary.BigEndian.PutUint64(b.data[b.wIdx:], v)
	b.wIdx += 8
}

func (b *Buffer) PrependByte(v byte) {
	b.Prepend([]byte{v})
}

func (b *Buffer) PrependUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.Prepend(tmp[:])
}

func (b *Buffer) PrependUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.Prepend(tmp[:])
}

func (b *Buffer) PrependUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.Prepend(tmp[:])
}

func (b *Buffer) PeekByte() byte {
	if b.Readable() < 1 {
		panic("iobuf: PeekByte on empty buffer")
	}
	return b.data[b.rIdx]
}

func (b *Buffer) PeekUint16() uint16 {
	if b.Readable() < 2 {
		panic("iobuf: PeekUint16 beyond readable region")
	}
	return binary.BigEndian.Uint16(b.data[b.rIdx:])
}

func (b *Buffer) PeekUint32() uint32 {
	if b.Readable() < 4 {
		panic("iobuf: PeekUint32 beyond readable region")
	}
	return binary.BigEndian.Uint32(b.data[b.rIdx:])
}

func (b *Buffer) PeekInt64() int64 {
	if b.Readable() < 8 {
		panic("iobuf: PeekInt64 beyond readable region")
	}
	return int64(binary.BigEndian.Uint64(b.data[b.rIdx:]))
}

func (b *Buffer) ReadByte() byte {
	v := b.PeekByte()
	b.Retrieve(1)
	return v
}

func (b *Buffer) ReadUint16() uint16 {
	v := b.PeekUint16()
	b.Retrieve(2)
	return v
}

func (b *Buffer) ReadUint32() uint32 {
	v := b.PeekUint32()
	b.Retrieve(4)
	return v
}

func (b *Buffer) ReadInt64() int64 {
	v := b.PeekInt64()
	b.Retrieve(8)
	return v
}

// ReadFrom fills the buffer's writable tail from r. When r supports a real
// vectored read (see buffer_unix.go), a single readv(2) fills both the
// buffer's writable tail and a 64 KiB on-stack auxiliary region, so one
// syscall suffices for most responses. Otherwise it falls back to a plain
// two-step Read: fill the writable tail, and if that tail was entirely
// consumed (more data may be pending), do one more Read into the auxiliary
// region and Append the overflow, growing the buffer if needed.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	if b.Writable() == 0 {
		b.EnsureWritable(DefaultCapacity)
	}
	if mainN, auxBuf, err := tryReadv(r, b.BeginWrite()); mainN >= 0 {
		if mainN > 0 {
			b.CommitWrite(mainN)
		}
		if len(auxBuf) > 0 {
			b.Append(auxBuf)
		}
		return int64(mainN + len(auxBuf)), err
	}
	return b.readFromPlain(r)
}

func (b *Buffer) readFromPlain(r io.Reader) (int64, error) {
	writable := b.Writable()
	n, err := r.Read(b.BeginWrite())
	if n > 0 {
		b.CommitWrite(n)
	}
	if err != nil {
		return int64(n), err
	}
	if n < writable {
		// writable tail was not exactly saturated; one syscall sufficed.
		return int64(n), nil
	}
	var aux [auxReadSize]byte
	extra, err2 := r.Read(aux[:])
	if extra > 0 {
		b.Append(aux[:extra])
	}
	if err2 != nil && err2 != io.EOF {
		return int64(n + extra), err2
	}
	return int64(n + extra), nil
}

