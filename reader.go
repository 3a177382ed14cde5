package entropy8

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	errSizeMismatch = errors.New("decompressed size mismatch")
	errEntryTooBig  = errors.New("entry too large to buffer")
)

// load inspects the magic, decrypts the payload when needed, and parses the
// trailer directory. Runs once, from Open.
func (a *Archive) load() error {
	if a.stream.Seek(0, SeekStart) != 0 {
		return fail("open", KindIO, nil)
	}
	var magic [4]byte
	if !a.stream.readFull(magic[:]) {
		return fail("open", KindFormat, nil)
	}

	switch magic {
	case magicEnc:
		a.encrypted = true
		return a.loadEncrypted()
	case magicV1:
		return a.loadPlain()
	default:
		return fail("open", KindFormat, nil)
	}
}

// loadEncrypted reads the whole tail into memory, decrypts it, and parses
// the directory from the plaintext. Bad padding, a wrong password, and
// truncation are indistinguishable and all report format.
func (a *Archive) loadEncrypted() error {
	if len(a.password) == 0 {
		return fail("open", KindInvalidArg, nil)
	}

	fileEnd := a.stream.Seek(0, SeekEnd)
	if fileEnd < int64(4+saltSize+ivSize+aesBlockSize) {
		return fail("open", KindFormat, nil)
	}

	blob := make([]byte, fileEnd-4)
	if a.stream.Seek(4, SeekStart) != 4 || !a.stream.readFull(blob) {
		return fail("open", KindIO, nil)
	}

	plain, err := decryptPayload(a.password, blob)
	if err != nil {
		return fail("open", KindFormat, err)
	}
	a.memBuf = plain

	if len(plain) < 8 {
		return fail("open", KindFormat, nil)
	}
	dirSize := binary.LittleEndian.Uint32(plain[len(plain)-4:])
	if dirSize == 0 || uint64(dirSize) > uint64(len(plain)-4) {
		return fail("open", KindFormat, nil)
	}
	dirStart := uint64(len(plain)) - 4 - uint64(dirSize)

	entries, err := parseDirectory(plain[dirStart:uint64(len(plain))-4], dirStart)
	if err != nil {
		return err
	}
	a.entries = entries
	return nil
}

// loadPlain locates the trailer by seeking, then reads the directory from
// the stream. The payload region spans [4, dir_start).
func (a *Archive) loadPlain() error {
	fileEnd := a.stream.Seek(0, SeekEnd)
	if fileEnd < 12 {
		return fail("open", KindFormat, nil)
	}

	if a.stream.Seek(fileEnd-4, SeekStart) != fileEnd-4 {
		return fail("open", KindIO, nil)
	}
	var trailer [4]byte
	if !a.stream.readFull(trailer[:]) {
		return fail("open", KindFormat, nil)
	}
	dirSize := binary.LittleEndian.Uint32(trailer[:])
	if dirSize == 0 || int64(dirSize) > fileEnd-8 {
		return fail("open", KindFormat, nil)
	}

	dirStart := fileEnd - 4 - int64(dirSize)
	if dirStart < 4 {
		return fail("open", KindFormat, nil)
	}
	if a.stream.Seek(dirStart, SeekStart) != dirStart {
		return fail("open", KindIO, nil)
	}

	dir := make([]byte, dirSize)
	if !a.stream.readFull(dir) {
		return fail("open", KindFormat, nil)
	}

	entries, err := parseDirectory(dir, uint64(dirStart-4))
	if err != nil {
		return err
	}
	a.entries = entries
	return nil
}

// parseDirectory decodes directory records from dir and validates each
// entry's geometry against the payload region [0, payloadLen). Any overrun
// or malformed record reports format.
func parseDirectory(dir []byte, payloadLen uint64) ([]entry, error) {
	r := bytes.NewReader(dir)

	var num uint32
	if err := binary.Read(r, binary.LittleEndian, &num); err != nil {
		return nil, fail("open", KindFormat, err)
	}

	entries := make([]entry, 0, min(int(num), 4096))
	for i := uint32(0); i < num; i++ {
		var e entry

		var pathLen uint16
		if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
			return nil, fail("open", KindFormat, err)
		}
		if pathLen > 0 {
			p := make([]byte, pathLen)
			if _, err := io.ReadFull(r, p); err != nil {
				return nil, fail("open", KindFormat, err)
			}
			e.path = string(p)
		}

		if err := binary.Read(r, binary.LittleEndian, &e.uncompressedSize); err != nil {
			return nil, fail("open", KindFormat, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &e.dataOffset); err != nil {
			return nil, fail("open", KindFormat, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &e.compressedSize); err != nil {
			return nil, fail("open", KindFormat, err)
		}
		var cid byte
		if err := binary.Read(r, binary.LittleEndian, &cid); err != nil {
			return nil, fail("open", KindFormat, err)
		}
		if cid >= codecCount {
			return nil, fail("open", KindFormat, nil)
		}
		e.codecID = Codec(cid)

		if e.codecID == CodecStore && uint64(e.compressedSize) != e.uncompressedSize {
			return nil, fail("open", KindFormat, nil)
		}
		if e.dataOffset > payloadLen || uint64(e.compressedSize) > payloadLen-e.dataOffset {
			return nil, fail("open", KindFormat, nil)
		}

		entries = append(entries, e)
	}
	return entries, nil
}

// Extract decompresses the entry at index and writes the plaintext bytes to
// out. Progress, if non-nil, fires once on completion; a non-zero return
// aborts with an io failure, leaving unspecified bytes in out.
func (a *Archive) Extract(index int, out *Stream, progress ProgressFunc) error {
	if a == nil || out == nil {
		return fail("extract", KindInvalidArg, nil)
	}
	if a.mode != ModeRead {
		return fail("extract", KindInvalidArg, nil)
	}
	if index < 0 || index >= len(a.entries) {
		return fail("extract", KindNotFound, nil)
	}
	e := a.entries[index]

	comp := make([]byte, e.compressedSize)
	if a.encrypted {
		copy(comp, a.memBuf[e.dataOffset:e.dataOffset+uint64(e.compressedSize)])
	} else {
		pos := int64(4 + e.dataOffset)
		if a.stream.Seek(pos, SeekStart) != pos {
			return fail("extract", KindIO, nil)
		}
		if !a.stream.readFull(comp) {
			return fail("extract", KindIO, nil)
		}
	}

	plain, err := decompressEntry(comp, e)
	if errors.Is(err, errEntryTooBig) {
		return fail("extract", KindMemory, err)
	}
	if err != nil {
		return fail("extract", KindFormat, err)
	}

	if !out.writeFull(plain) {
		return fail("extract", KindIO, nil)
	}
	if progress != nil && progress(e.uncompressedSize, e.uncompressedSize) != 0 {
		return fail("extract", KindIO, nil)
	}
	return nil
}

// decompressEntry expands the block through the entry's codec and insists on
// the recorded uncompressed size.
func decompressEntry(comp []byte, e entry) ([]byte, error) {
	cv := GetCodec(e.codecID)
	if cv == nil || cv.ID == CodecStore || cv.Decompress == nil {
		return comp, nil
	}
	if e.uncompressedSize > math.MaxInt {
		return nil, errEntryTooBig
	}
	plain, err := cv.Decompress(comp, int(e.uncompressedSize))
	if err != nil {
		return nil, err
	}
	if uint64(len(plain)) != e.uncompressedSize {
		return nil, errSizeMismatch
	}
	return plain, nil
}
