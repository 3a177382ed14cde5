package entropy8

// Seek origins accepted by Stream.Seek, matching the values loose
// integrations pass through the callback layer.
const (
	SeekStart   = 0 // absolute offset
	SeekCurrent = 1 // relative to the current position
	SeekEnd     = 2 // relative to end of stream
)

// ReadFn reads up to len(buf) bytes into buf. It returns the number of bytes
// read, 0 on EOF, or a negative count on error.
type ReadFn func(ctx any, buf []byte) int

// WriteFn writes len(buf) bytes from buf. It returns the number of bytes
// written, or a negative count on error.
type WriteFn func(ctx any, buf []byte) int

// SeekFn moves the stream position to offset relative to origin (SeekStart,
// SeekCurrent or SeekEnd). It returns the new absolute position, or a
// negative value on error.
type SeekFn func(ctx any, offset int64, origin int) int64

// FlushFn forces buffered writes out. It returns 0 on success, negative on
// error. Optional.
type FlushFn func(ctx any) int

// CloseFn releases the context. Called exactly once, by Destroy. Optional.
type CloseFn func(ctx any) int

// StreamVtable names the five behaviors of a byte stream. Read, Write and
// Seek are mandatory; Flush and Close may be nil.
type StreamVtable struct {
	Read  ReadFn
	Write WriteFn
	Seek  SeekFn
	Flush FlushFn
	Close CloseFn
}

// Stream is a polymorphic byte stream: a vtable plus a caller-owned context.
// The engine never assumes a file system behind it; tests drive archives
// with in-memory buffers and front-ends inject platform sources.
//
// The context is borrowed, not owned. The single ownership action the engine
// takes is invoking Close exactly once through Destroy.
type Stream struct {
	vtable *StreamVtable
	ctx    any
	closed bool
}

// NewStream installs the vtable/context pair. It fails with KindInvalidArg
// when any of the three mandatory callbacks is nil.
func NewStream(vtable *StreamVtable, ctx any) (*Stream, error) {
	if vtable == nil || vtable.Read == nil || vtable.Write == nil || vtable.Seek == nil {
		return nil, fail("stream_create", KindInvalidArg, nil)
	}
	return &Stream{vtable: vtable, ctx: ctx}, nil
}

// Destroy calls the close callback if present and clears the stream.
// Idempotent; safe on a zero-value Stream.
func (s *Stream) Destroy() {
	if s == nil || s.closed {
		return
	}
	if s.vtable != nil && s.vtable.Close != nil {
		s.vtable.Close(s.ctx)
	}
	s.vtable = nil
	s.ctx = nil
	s.closed = true
}

// Read reads up to len(buf) bytes. Callers must loop to drain: a short read
// is not an error.
func (s *Stream) Read(buf []byte) int {
	if s == nil || s.vtable == nil || s.vtable.Read == nil || buf == nil {
		return -1
	}
	return s.vtable.Read(s.ctx, buf)
}

// Write writes len(buf) bytes and returns the count written.
func (s *Stream) Write(buf []byte) int {
	if s == nil || s.vtable == nil || s.vtable.Write == nil || buf == nil {
		return -1
	}
	return s.vtable.Write(s.ctx, buf)
}

// Seek repositions the stream and returns the new absolute offset.
func (s *Stream) Seek(offset int64, origin int) int64 {
	if s == nil || s.vtable == nil || s.vtable.Seek == nil {
		return -1
	}
	return s.vtable.Seek(s.ctx, offset, origin)
}

// Flush is a no-op when the vtable does not provide one.
func (s *Stream) Flush() int {
	if s == nil || s.vtable == nil || s.vtable.Flush == nil {
		return 0
	}
	return s.vtable.Flush(s.ctx)
}

// readFull drains exactly len(buf) bytes from the stream, looping over short
// reads. Returns false on error or premature EOF.
func (s *Stream) readFull(buf []byte) bool {
	total := 0
	for total < len(buf) {
		n := s.Read(buf[total:])
		if n <= 0 {
			return false
		}
		total += n
	}
	return true
}

// writeFull writes all of buf, treating a short write as an error.
func (s *Stream) writeFull(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	return s.Write(buf) == len(buf)
}
