package entropy8

import (
	"errors"
	"strings"
	"sync"
)

// Codec identifies a compression algorithm. The identifiers are written to
// disk per entry and are stable across releases.
type Codec uint8

const (
	// CodecStore copies bytes verbatim.
	CodecStore Codec = 0
	// CodecLZ4 is fast compression with a moderate ratio.
	CodecLZ4 Codec = 1
	// CodecLZMA is high ratio, slower.
	CodecLZMA Codec = 2
	// CodecZstd balances speed and ratio; the default for new entries.
	CodecZstd Codec = 3

	codecCount = 4
)

// String returns the registered codec name, or "unknown".
func (c Codec) String() string {
	if v := GetCodec(c); v != nil {
		return v.Name
	}
	return "unknown"
}

var errNotCompressible = errors.New("codec produced no output")

// CompressFn compresses src at the given level. It returns an error on
// failure; a result that is not smaller than src is returned without an
// error. The writer treats every error, and every result that is not
// strictly smaller than the input, as a store fallback.
type CompressFn func(src []byte, level int) ([]byte, error)

// DecompressFn expands src into exactly dstSize bytes.
type DecompressFn func(src []byte, dstSize int) ([]byte, error)

// BoundFn returns a destination capacity that is safe for any input of the
// given size.
type BoundFn func(srcSize int) int

// CodecVtable describes one registered codec. Nil function slots mean
// pass-through (store semantics).
type CodecVtable struct {
	ID         Codec
	Name       string // ASCII display name: "store", "lz4", "lzma", "zstd"
	Compress   CompressFn
	Decompress DecompressFn
	Bound      BoundFn
}

var (
	codecMu   sync.Mutex
	codecOnce sync.Once
	codecs    [codecCount]*CodecVtable
)

var storeVtable = CodecVtable{
	ID:   CodecStore,
	Name: "store",
	Compress: func(src []byte, level int) ([]byte, error) {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	},
	Decompress: func(src []byte, dstSize int) ([]byte, error) {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	},
	Bound: func(srcSize int) int { return srcSize },
}

// RegisterCodec installs a codec under its identifier. Identifiers outside
// the table range are rejected.
func RegisterCodec(vtable *CodecVtable) error {
	if vtable == nil || int(vtable.ID) >= codecCount {
		return fail("codec_register", KindInvalidArg, nil)
	}
	codecMu.Lock()
	codecs[vtable.ID] = vtable
	codecMu.Unlock()
	return nil
}

// InitCodecs registers the built-in codecs. Idempotent; every lookup routes
// through it so explicit initialization is optional.
func InitCodecs() {
	codecOnce.Do(func() {
		RegisterCodec(&storeVtable)
		RegisterCodec(&lz4Vtable)
		RegisterCodec(&lzmaVtable)
		RegisterCodec(&zstdVtable)
	})
}

// GetCodec returns the codec registered under id, or nil.
func GetCodec(id Codec) *CodecVtable {
	InitCodecs()
	if int(id) >= codecCount {
		return nil
	}
	codecMu.Lock()
	defer codecMu.Unlock()
	return codecs[id]
}

// FindCodec looks a codec up by name, case-insensitive ASCII.
func FindCodec(name string) *CodecVtable {
	InitCodecs()
	codecMu.Lock()
	defer codecMu.Unlock()
	for _, v := range codecs {
		if v != nil && strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}
