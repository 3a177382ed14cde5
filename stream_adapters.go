package entropy8

import (
	"errors"
	"io"

	"github.com/absfs/absfs"
)

// fileVtable adapts an absfs.File to the stream contract. *os.File satisfies
// absfs.File, so the same adapter covers plain OS files and every AbsFs
// implementation (memfs included, which the tests lean on).
var fileVtable = StreamVtable{
	Read: func(ctx any, buf []byte) int {
		n, err := ctx.(absfs.File).Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n
			}
			return -1
		}
		return n
	},
	Write: func(ctx any, buf []byte) int {
		n, err := ctx.(absfs.File).Write(buf)
		if err != nil {
			return -1
		}
		return n
	},
	Seek: func(ctx any, offset int64, origin int) int64 {
		pos, err := ctx.(absfs.File).Seek(offset, origin)
		if err != nil {
			return -1
		}
		return pos
	},
	Flush: func(ctx any) int {
		if ctx.(absfs.File).Sync() != nil {
			return -1
		}
		return 0
	},
	Close: func(ctx any) int {
		if ctx.(absfs.File).Close() != nil {
			return -1
		}
		return 0
	},
}

// NewFileStream wraps an open absfs.File as a Stream. Destroying the stream
// closes the file.
func NewFileStream(f absfs.File) (*Stream, error) {
	if f == nil {
		return nil, fail("stream_create", KindInvalidArg, nil)
	}
	return NewStream(&fileVtable, f)
}

// Buffer is a growable in-memory byte store with a cursor, the usual test
// double behind a Stream.
type Buffer struct {
	data []byte
	pos  int64
}

// NewBuffer returns a Buffer pre-seeded with b. The slice is used directly,
// not copied.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the current contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of stored bytes.
func (b *Buffer) Len() int { return len(b.data) }

var bufferVtable = StreamVtable{
	Read: func(ctx any, buf []byte) int {
		b := ctx.(*Buffer)
		if b.pos >= int64(len(b.data)) {
			return 0
		}
		n := copy(buf, b.data[b.pos:])
		b.pos += int64(n)
		return n
	},
	Write: func(ctx any, buf []byte) int {
		b := ctx.(*Buffer)
		end := b.pos + int64(len(buf))
		if end > int64(len(b.data)) {
			grown := make([]byte, end)
			copy(grown, b.data)
			b.data = grown
		}
		copy(b.data[b.pos:end], buf)
		b.pos = end
		return len(buf)
	},
	Seek: func(ctx any, offset int64, origin int) int64 {
		b := ctx.(*Buffer)
		var next int64
		switch origin {
		case SeekStart:
			next = offset
		case SeekCurrent:
			next = b.pos + offset
		case SeekEnd:
			next = int64(len(b.data)) + offset
		default:
			return -1
		}
		if next < 0 {
			return -1
		}
		b.pos = next
		return next
	},
}

// NewBufferStream wraps a Buffer as a seekable Stream. The buffer outlives
// the stream; Destroy leaves its contents intact.
func NewBufferStream(b *Buffer) (*Stream, error) {
	if b == nil {
		return nil, fail("stream_create", KindInvalidArg, nil)
	}
	return NewStream(&bufferVtable, b)
}
