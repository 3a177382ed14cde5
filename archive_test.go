package entropy8

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"os"
	"strings"
	"testing"

	"github.com/absfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArchive builds an archive in memory from (path, data, codec, level)
// specs and returns the raw bytes.
func writeArchive(t *testing.T, password string, items []AddItem) []byte {
	t.Helper()
	buf := NewBuffer(nil)
	out, err := NewBufferStream(buf)
	require.NoError(t, err)

	ar, err := Create(out, password)
	require.NoError(t, err)
	for _, it := range items {
		require.NoError(t, ar.AddWith(it.Path, it.Content, nil, it.Codec, it.Level))
	}
	require.NoError(t, ar.Close())
	return buf.Bytes()
}

func contentOf(t *testing.T, data []byte) *Stream {
	t.Helper()
	s, err := NewBufferStream(NewBuffer(data))
	require.NoError(t, err)
	return s
}

func openArchive(t *testing.T, raw []byte, password string) *Archive {
	t.Helper()
	s, err := NewBufferStream(NewBuffer(raw))
	require.NoError(t, err)
	ar, err := Open(s, password)
	require.NoError(t, err)
	return ar
}

func extractEntry(t *testing.T, ar *Archive, index int) []byte {
	t.Helper()
	buf := NewBuffer(nil)
	out, err := NewBufferStream(buf)
	require.NoError(t, err)
	require.NoError(t, ar.Extract(index, out, nil))
	return buf.Bytes()
}

func TestEmptyArchiveLayout(t *testing.T) {
	raw := writeArchive(t, "", nil)

	// "E8A1" + num_entries(=0) + dir_size(=4)
	want := []byte{'E', '8', 'A', '1', 0, 0, 0, 0, 4, 0, 0, 0}
	require.Equal(t, want, raw)

	ar := openArchive(t, raw, "")
	defer ar.Close()
	assert.Equal(t, 0, ar.Count())
	assert.False(t, ar.Encrypted())
}

func TestSingleStoreEntryLayout(t *testing.T) {
	raw := writeArchive(t, "", []AddItem{
		{Path: "hello.txt", Content: contentOf(t, []byte("hi")), Codec: CodecStore},
	})

	assert.Equal(t, []byte("E8A1"), raw[:4])
	assert.Equal(t, []byte("hi"), raw[4:6])

	dirSize := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	dirStart := len(raw) - 4 - int(dirSize)
	assert.Equal(t, 6, dirStart, "directory should start right after the data block")

	dir := raw[dirStart : len(raw)-4]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(dir[:4]))
	assert.Equal(t, uint16(len("hello.txt")), binary.LittleEndian.Uint16(dir[4:6]))
	assert.Equal(t, "hello.txt", string(dir[6:15]))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(dir[15:23]))  // uncompressed
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(dir[23:31])) // payload-relative offset
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(dir[31:35])) // compressed
	assert.Equal(t, byte(CodecStore), dir[35])

	ar := openArchive(t, raw, "")
	defer ar.Close()
	require.Equal(t, 1, ar.Count())
	assert.Equal(t, []byte("hi"), extractEntry(t, ar, 0))
}

func TestZstdShrinksZeros(t *testing.T) {
	plain := make([]byte, 1<<20)
	raw := writeArchive(t, "", []AddItem{
		{Path: "zeros.bin", Content: contentOf(t, plain), Codec: CodecZstd, Level: 3},
	})

	ar := openArchive(t, raw, "")
	defer ar.Close()

	e, err := ar.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, CodecZstd, e.Codec)
	assert.Less(t, e.CompressedSize, uint32(1024))
	assert.Equal(t, uint64(len(plain)), e.UncompressedSize)
	assert.Equal(t, plain, extractEntry(t, ar, 0))
}

func TestIncompressibleFallsBackToStore(t *testing.T) {
	plain := make([]byte, 64*1024)
	_, err := rand.Read(plain)
	require.NoError(t, err)

	raw := writeArchive(t, "", []AddItem{
		{Path: "noise.bin", Content: contentOf(t, plain), Codec: CodecLZ4, Level: 1},
	})

	ar := openArchive(t, raw, "")
	defer ar.Close()

	e, err := ar.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, CodecStore, e.Codec)
	assert.Equal(t, uint32(64*1024), e.CompressedSize)
	assert.Equal(t, plain, extractEntry(t, ar, 0))
}

func TestRoundTripAllCodecs(t *testing.T) {
	text := bytes.Repeat([]byte("round trip payload "), 1000)
	items := []AddItem{
		{Path: "a/store", Content: contentOf(t, text), Codec: CodecStore},
		{Path: "b/lz4", Content: contentOf(t, text), Codec: CodecLZ4, Level: 1},
		{Path: "c/lzma", Content: contentOf(t, text), Codec: CodecLZMA, Level: 6},
		{Path: "d/zstd", Content: contentOf(t, text), Codec: CodecZstd, Level: 3},
		{Path: "empty", Content: contentOf(t, nil), Codec: CodecZstd, Level: 3},
	}
	raw := writeArchive(t, "", items)

	ar := openArchive(t, raw, "")
	defer ar.Close()
	require.Equal(t, len(items), ar.Count())

	for i, it := range items {
		e, err := ar.Entry(i)
		require.NoError(t, err)
		assert.Equal(t, it.Path, e.Path, "directory keeps add order")
		if i < 4 {
			assert.Equal(t, text, extractEntry(t, ar, i))
		} else {
			assert.Empty(t, extractEntry(t, ar, i))
		}
	}
}

func TestDuplicatePathsPermitted(t *testing.T) {
	raw := writeArchive(t, "", []AddItem{
		{Path: "same", Content: contentOf(t, []byte("one")), Codec: CodecStore},
		{Path: "same", Content: contentOf(t, []byte("two")), Codec: CodecStore},
	})

	ar := openArchive(t, raw, "")
	defer ar.Close()
	require.Equal(t, 2, ar.Count())
	assert.Equal(t, []byte("one"), extractEntry(t, ar, 0))
	assert.Equal(t, []byte("two"), extractEntry(t, ar, 1))
}

func TestEncryptedRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	raw := writeArchive(t, "correct horse", []AddItem{
		{Path: "a", Content: contentOf(t, []byte("alpha")), Codec: CodecStore},
		{Path: "b", Content: contentOf(t, []byte("beta")), Codec: CodecStore},
	})

	assert.Equal(t, []byte("E8AE"), raw[:4])

	ar := openArchive(t, raw, "correct horse")
	defer ar.Close()
	assert.True(t, ar.Encrypted())
	require.Equal(t, 2, ar.Count())
	assert.Equal(t, []byte("alpha"), extractEntry(t, ar, 0))
	assert.Equal(t, []byte("beta"), extractEntry(t, ar, 1))
}

func TestEncryptedWrongPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	raw := writeArchive(t, "correct horse", []AddItem{
		{Path: "a", Content: contentOf(t, []byte("alpha")), Codec: CodecStore},
	})

	s, err := NewBufferStream(NewBuffer(raw))
	require.NoError(t, err)
	_, err = Open(s, "wrong")
	assert.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, KindFormat, LastError())

	s2, err := NewBufferStream(NewBuffer(raw))
	require.NoError(t, err)
	_, err = Open(s2, "")
	assert.ErrorIs(t, err, ErrInvalidArg, "encrypted archive without a password")
}

func TestEncryptedCompressedEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	text := bytes.Repeat([]byte("sealed and squeezed "), 2000)
	raw := writeArchive(t, "pw", []AddItem{
		{Path: "x", Content: contentOf(t, text), Codec: CodecZstd, Level: 3},
	})

	ar := openArchive(t, raw, "pw")
	defer ar.Close()
	e, err := ar.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, CodecZstd, e.Codec)
	assert.Equal(t, text, extractEntry(t, ar, 0))
}

func TestTruncatedArchiveRejected(t *testing.T) {
	raw := writeArchive(t, "", []AddItem{
		{Path: "f", Content: contentOf(t, []byte("payload")), Codec: CodecStore},
	})

	s, err := NewBufferStream(NewBuffer(raw[:len(raw)-1]))
	require.NoError(t, err)
	_, err = Open(s, "")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestWrongMagicRejected(t *testing.T) {
	s, err := NewBufferStream(NewBuffer([]byte("PK\x03\x04 not ours, plus padding")))
	require.NoError(t, err)
	_, err = Open(s, "")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestExtractIndexOutOfRange(t *testing.T) {
	raw := writeArchive(t, "", []AddItem{
		{Path: "only", Content: contentOf(t, []byte("x")), Codec: CodecStore},
	})
	ar := openArchive(t, raw, "")
	defer ar.Close()

	out, err := NewBufferStream(NewBuffer(nil))
	require.NoError(t, err)
	err = ar.Extract(1, out, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, LastError())

	_, err = ar.Entry(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressCallbacks(t *testing.T) {
	data := []byte("progress payload")

	var addCalls []uint64
	buf := NewBuffer(nil)
	out, err := NewBufferStream(buf)
	require.NoError(t, err)
	ar, err := Create(out, "")
	require.NoError(t, err)
	err = ar.AddWith("f", contentOf(t, data), func(cur, total uint64) int {
		addCalls = append(addCalls, cur, total)
		return 0
	}, CodecStore, 0)
	require.NoError(t, err)
	require.NoError(t, ar.Close())

	assert.Equal(t, []uint64{uint64(len(data)), uint64(len(data))}, addCalls)

	ra := openArchive(t, buf.Bytes(), "")
	defer ra.Close()
	var extCalls int
	dst, err := NewBufferStream(NewBuffer(nil))
	require.NoError(t, err)
	require.NoError(t, ra.Extract(0, dst, func(cur, total uint64) int {
		extCalls++
		return 0
	}))
	assert.Equal(t, 1, extCalls)
}

func TestProgressAbortDiscardsEntry(t *testing.T) {
	buf := NewBuffer(nil)
	out, err := NewBufferStream(buf)
	require.NoError(t, err)
	ar, err := Create(out, "")
	require.NoError(t, err)

	err = ar.AddWith("doomed", contentOf(t, []byte("data")), func(cur, total uint64) int {
		return 1
	}, CodecStore, 0)
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, 0, ar.Count(), "aborted add must not record an entry")
	require.NoError(t, ar.Close())

	ra := openArchive(t, buf.Bytes(), "")
	defer ra.Close()
	assert.Equal(t, 0, ra.Count())
}

func TestAddAllMatchesSequential(t *testing.T) {
	payloads := [][]byte{
		bytes.Repeat([]byte("first "), 500),
		bytes.Repeat([]byte("second "), 700),
		bytes.Repeat([]byte("third "), 300),
		make([]byte, 2048),
	}

	batch := func(useAddAll bool) []byte {
		buf := NewBuffer(nil)
		out, err := NewBufferStream(buf)
		require.NoError(t, err)
		ar, err := Create(out, "")
		require.NoError(t, err)

		items := make([]AddItem, len(payloads))
		for i, p := range payloads {
			items[i] = AddItem{
				Path:    strings.Repeat("x", i+1),
				Content: contentOf(t, p),
				Codec:   CodecZstd,
				Level:   3,
			}
		}
		if useAddAll {
			require.NoError(t, ar.AddAll(items, nil))
		} else {
			for _, it := range items {
				require.NoError(t, ar.AddWith(it.Path, it.Content, nil, it.Codec, it.Level))
			}
		}
		require.NoError(t, ar.Close())
		return buf.Bytes()
	}

	assert.Equal(t, batch(false), batch(true),
		"AddAll must serialize identically to sequential adds")
}

func TestAddAfterCloseRejected(t *testing.T) {
	out, err := NewBufferStream(NewBuffer(nil))
	require.NoError(t, err)
	ar, err := Create(out, "")
	require.NoError(t, err)
	require.NoError(t, ar.Close())

	err = ar.Add("late", contentOf(t, []byte("x")), nil)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestAddOnReadHandleRejected(t *testing.T) {
	raw := writeArchive(t, "", nil)
	ar := openArchive(t, raw, "")
	defer ar.Close()

	err := ar.Add("nope", contentOf(t, []byte("x")), nil)
	assert.ErrorIs(t, err, ErrInvalidArg)

	out, err := NewBufferStream(NewBuffer(nil))
	require.NoError(t, err)

	wa, err := Create(out, "")
	require.NoError(t, err)
	defer wa.Close()
	err = wa.Extract(0, out, nil)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestLongPathTruncatedAtWrite(t *testing.T) {
	long := strings.Repeat("p", maxPathLen+100)
	raw := writeArchive(t, "", []AddItem{
		{Path: long, Content: contentOf(t, []byte("x")), Codec: CodecStore},
	})

	ar := openArchive(t, raw, "")
	defer ar.Close()
	e, err := ar.Entry(0)
	require.NoError(t, err)
	assert.Len(t, e.Path, maxPathLen)
}

func TestInvalidCodecArgument(t *testing.T) {
	out, err := NewBufferStream(NewBuffer(nil))
	require.NoError(t, err)
	ar, err := Create(out, "")
	require.NoError(t, err)
	defer ar.Close()

	err = ar.AddWith("f", contentOf(t, []byte("x")), nil, Codec(9), 0)
	assert.ErrorIs(t, err, ErrInvalidArg)
	assert.Equal(t, KindInvalidArg, LastError())
}

// The engine never assumes a file system, but it must work over one: full
// write/read cycle through memfs-backed file streams.
func TestArchiveOverMemfs(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)

	f, err := fs.OpenFile("/backup.e8", os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	out, err := NewFileStream(f)
	require.NoError(t, err)

	ar, err := Create(out, "")
	require.NoError(t, err)
	data := bytes.Repeat([]byte("filesystem bytes "), 400)
	require.NoError(t, ar.AddWith("fs.txt", contentOf(t, data), nil, CodecLZ4, 1))
	require.NoError(t, ar.Close())

	rf, err := fs.OpenFile("/backup.e8", os.O_RDONLY, 0)
	require.NoError(t, err)
	in, err := NewFileStream(rf)
	require.NoError(t, err)

	ra, err := Open(in, "")
	require.NoError(t, err)
	defer ra.Close()
	assert.Equal(t, data, extractEntry(t, ra, 0))
}
