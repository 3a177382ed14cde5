package entropy8

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Add appends one entry under the default codec (zstd, level 3). The content
// stream is drained to EOF; progress, if non-nil, is invoked once with
// (size, size) after the entry's block has been appended.
func (a *Archive) Add(path string, content *Stream, progress ProgressFunc) error {
	return a.AddWith(path, content, progress, DefaultCodec, DefaultLevel)
}

// AddWith is Add with an explicit codec and level. If the codec fails or
// does not strictly shrink the input, the entry is re-tagged as store and
// the raw bytes are kept.
func (a *Archive) AddWith(path string, content *Stream, progress ProgressFunc, codec Codec, level int) error {
	if a == nil || content == nil {
		return fail("add", KindInvalidArg, nil)
	}
	if a.mode != ModeWrite || a.finalized {
		return fail("add", KindInvalidArg, nil)
	}
	if int(codec) >= codecCount {
		return fail("add", KindInvalidArg, nil)
	}

	raw, ok := drainStream(content)
	if !ok {
		return fail("add", KindIO, nil)
	}

	comp, used := compressEntry(raw, codec, level)
	if uint64(len(comp)) > math.MaxUint32 {
		return fail("add", KindUnsupported, nil)
	}

	return a.appendEntry(path, raw, comp, used, progress)
}

// drainStream reads the whole content stream into memory in 256 KiB chunks.
func drainStream(content *Stream) ([]byte, bool) {
	var raw []byte
	buf := make([]byte, addBufSize)
	for {
		n := content.Read(buf)
		if n < 0 {
			return nil, false
		}
		if n == 0 {
			return raw, true
		}
		raw = append(raw, buf[:n]...)
	}
}

// compressEntry runs the requested codec over raw. Any codec failure, and
// any result that is not strictly smaller than the input, falls back to
// store semantics.
func compressEntry(raw []byte, codec Codec, level int) ([]byte, Codec) {
	cv := GetCodec(codec)
	if cv == nil {
		cv = GetCodec(CodecStore)
	}
	if cv.ID == CodecStore || cv.Compress == nil {
		return raw, CodecStore
	}
	comp, err := cv.Compress(raw, level)
	if err != nil || len(comp) >= len(raw) {
		return raw, CodecStore
	}
	return comp, cv.ID
}

// appendEntry writes the compressed block to the payload (stream or memory
// buffer), fires the progress callback, and records the directory entry. On
// a progress abort the entry is not recorded.
func (a *Archive) appendEntry(path string, raw, comp []byte, used Codec, progress ProgressFunc) error {
	rawSize := uint64(len(raw))

	var offset uint64
	if a.encrypted {
		offset = uint64(len(a.memBuf))
		a.memBuf = append(a.memBuf, comp...)
	} else {
		offset = a.dataPos
		if !a.stream.writeFull(comp) {
			return fail("add", KindIO, nil)
		}
		a.dataPos += uint64(len(comp))
	}

	if progress != nil && progress(rawSize, rawSize) != 0 {
		return fail("add", KindIO, nil)
	}

	a.entries = append(a.entries, entry{
		path:             path,
		uncompressedSize: rawSize,
		dataOffset:       offset,
		compressedSize:   uint32(len(comp)),
		codecID:          used,
	})
	return nil
}

// serializeDirectory renders the directory: num_entries(4) followed by one
// record per entry, all little-endian. Paths longer than 65535 bytes are
// truncated here, at write time.
func (a *Archive) serializeDirectory() []byte {
	var buf bytes.Buffer
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], uint32(len(a.entries)))
	buf.Write(scratch[:4])

	for _, e := range a.entries {
		p := e.path
		if len(p) > maxPathLen {
			p = p[:maxPathLen]
		}
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(p)))
		buf.Write(scratch[:2])
		buf.WriteString(p)

		binary.LittleEndian.PutUint64(scratch[:8], e.uncompressedSize)
		buf.Write(scratch[:8])
		binary.LittleEndian.PutUint64(scratch[:8], e.dataOffset)
		buf.Write(scratch[:8])
		binary.LittleEndian.PutUint32(scratch[:4], e.compressedSize)
		buf.Write(scratch[:4])
		buf.WriteByte(byte(e.codecID))
	}
	return buf.Bytes()
}

// finalize emits the directory and trailer. For encrypted archives the
// accumulated payload is encrypted as one blob and written after the magic.
func (a *Archive) finalize() error {
	if a.mode != ModeWrite {
		return fail("finalize", KindInvalidArg, nil)
	}
	if a.finalized {
		return nil
	}
	a.finalized = true

	dir := a.serializeDirectory()
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], uint32(len(dir)))

	if a.encrypted {
		a.memBuf = append(a.memBuf, dir...)
		a.memBuf = append(a.memBuf, trailer[:]...)

		blob, err := encryptPayload(a.password, a.memBuf)
		if err != nil {
			return fail("finalize", KindIO, err)
		}
		if !a.stream.writeFull(blob) {
			return fail("finalize", KindIO, nil)
		}
	} else {
		if !a.stream.writeFull(dir) || !a.stream.writeFull(trailer[:]) {
			return fail("finalize", KindIO, nil)
		}
	}

	if a.stream.Flush() < 0 {
		return fail("finalize", KindIO, nil)
	}
	return nil
}
