package entropy8

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	zstdMinLevel     = 1
	zstdMaxLevel     = 22
	zstdDefaultLevel = 3
)

func zstdClampLevel(level int) int {
	if level < zstdMinLevel {
		return zstdDefaultLevel
	}
	if level > zstdMaxLevel {
		return zstdMaxLevel
	}
	return level
}

// zstdBound is ZSTD_COMPRESSBOUND: src + src/256, plus a small-block margin.
func zstdBound(srcSize int) int {
	margin := 0
	if srcSize < 128<<10 {
		margin = ((128 << 10) - srcSize) >> 11
	}
	return srcSize + srcSize>>8 + margin
}

var zstdVtable = CodecVtable{
	ID:   CodecZstd,
	Name: "zstd",
	Compress: func(src []byte, level int) ([]byte, error) {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdClampLevel(level))),
			zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(src, make([]byte, 0, zstdBound(len(src)))), nil
	},
	Decompress: func(src []byte, dstSize int) ([]byte, error) {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		dst, err := dec.DecodeAll(src, make([]byte, 0, dstSize))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return dst, nil
	},
	Bound: zstdBound,
}
