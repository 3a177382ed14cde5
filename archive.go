package entropy8

// Archive format v1 (unencrypted):
//
//	magic "E8A1" (4 bytes) | compressed data blocks | directory | dir_size(4)
//
// Archive format v1, encrypted:
//
//	magic "E8AE" (4 bytes) | salt(16) | iv(16) |
//	AES-256-CBC{ compressed data blocks | directory | dir_size(4) }
//
// The whole payload after magic+salt+iv is encrypted as one blob; the key is
// PBKDF2-HMAC-SHA-256 (100k iterations) of the password. Entry data offsets
// are relative to the payload region (the byte after the magic for plain
// archives, the start of the decrypted plaintext for encrypted ones), so
// readers uniformly consume payload[offset : offset+compressed_size].

// Mode tags an archive handle as writing or reading.
type Mode uint8

const (
	// ModeWrite accepts Add and finalizes on Close.
	ModeWrite Mode = iota
	// ModeRead accepts Extract, Count and Entry.
	ModeRead
)

var (
	magicV1  = [4]byte{'E', '8', 'A', '1'}
	magicEnc = [4]byte{'E', '8', 'A', 'E'}
)

const (
	// addBufSize is the chunk size used to drain content streams.
	addBufSize = 256 * 1024

	// maxPathLen is the longest logical path the directory can record.
	// Longer paths are truncated at write time.
	maxPathLen = 65535

	// DefaultCodec and DefaultLevel apply when Add is called without an
	// explicit codec choice.
	DefaultCodec = CodecZstd
	DefaultLevel = 3
)

// ProgressFunc reports operation progress as (current, total) byte counts.
// Returning non-zero aborts the operation with an io-class failure.
type ProgressFunc func(current, total uint64) int

// entry is one directory record.
type entry struct {
	path             string
	uncompressedSize uint64
	dataOffset       uint64 // relative to the payload data region
	compressedSize   uint32
	codecID          Codec
}

// EntryInfo is the public view of a directory record.
type EntryInfo struct {
	Path             string
	UncompressedSize uint64
	CompressedSize   uint32
	Codec            Codec
}

// Archive is a mode-tagged handle over a caller-provided stream. A handle is
// single-goroutine; distinct handles over independent streams are safe to
// use concurrently.
type Archive struct {
	stream    *Stream
	mode      Mode
	encrypted bool
	password  []byte
	entries   []entry

	// Write+encrypted: data and directory accumulate here and are encrypted
	// on finalize. Read+encrypted: the decrypted payload.
	memBuf []byte

	// Write+unencrypted: payload bytes written so far, i.e. the next entry's
	// data offset.
	dataPos uint64

	pool      *workerPool
	finalized bool
	closed    bool
}

// Create starts a new archive on stream, which must be writable and
// seekable. A non-empty password makes the archive AES-256-CBC encrypted.
// The 4-byte magic is written immediately.
func Create(stream *Stream, password string) (*Archive, error) {
	InitCodecs()
	if stream == nil {
		return nil, fail("create", KindInvalidArg, nil)
	}

	a := &Archive{stream: stream, mode: ModeWrite, pool: newWorkerPool()}
	magic := magicV1
	if password != "" {
		a.encrypted = true
		a.password = []byte(password)
		magic = magicEnc
	}

	if !stream.writeFull(magic[:]) {
		return nil, fail("create", KindIO, nil)
	}
	return a, nil
}

// Open loads an existing archive from stream, which must be readable and
// seekable. Encrypted archives require the password used at creation; a
// wrong password is indistinguishable from corruption and reports a format
// failure.
func Open(stream *Stream, password string) (*Archive, error) {
	InitCodecs()
	if stream == nil {
		return nil, fail("open", KindInvalidArg, nil)
	}

	a := &Archive{stream: stream, mode: ModeRead, password: []byte(password)}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the archive. Write-mode handles are finalized first; the
// underlying stream is destroyed, which invokes the caller's close callback
// exactly once. Idempotent.
func (a *Archive) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true

	var err error
	if a.mode == ModeWrite && !a.finalized {
		err = a.finalize()
	}
	a.stream.Destroy()
	return err
}

// Count returns the number of entries. Zero on a nil handle.
func (a *Archive) Count() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Entry returns the directory record at index, in add order.
func (a *Archive) Entry(index int) (EntryInfo, error) {
	if a == nil {
		return EntryInfo{}, fail("entry", KindInvalidArg, nil)
	}
	if index < 0 || index >= len(a.entries) {
		return EntryInfo{}, fail("entry", KindNotFound, nil)
	}
	e := a.entries[index]
	return EntryInfo{
		Path:             e.path,
		UncompressedSize: e.uncompressedSize,
		CompressedSize:   e.compressedSize,
		Codec:            e.codecID,
	}, nil
}

// Mode reports whether the handle writes or reads.
func (a *Archive) Mode() Mode { return a.mode }

// Encrypted reports whether the archive payload is password protected.
func (a *Archive) Encrypted() bool { return a.encrypted }
