package entropy8

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4MaxInput mirrors LZ4_MAX_INPUT_SIZE: the block format addresses at most
// ~2 GiB of input. Larger inputs fail compression and fall back to store.
const lz4MaxInput = 0x7E000000

// hcLevels maps levels 2..9+ onto the high-compression variant. The upstream
// C codec clamps at HC level 12; the Go block API tops out at Level9.
var hcLevels = []lz4.CompressionLevel{
	lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

var lz4Vtable = CodecVtable{
	ID:   CodecLZ4,
	Name: "lz4",
	Compress: func(src []byte, level int) ([]byte, error) {
		if len(src) > lz4MaxInput {
			return nil, fmt.Errorf("lz4: input %d exceeds block limit", len(src))
		}
		dst := make([]byte, lz4.CompressBlockBound(len(src)))

		var n int
		var err error
		if level > 1 {
			idx := level - 2
			if idx >= len(hcLevels) {
				idx = len(hcLevels) - 1
			}
			c := lz4.CompressorHC{Level: hcLevels[idx]}
			n, err = c.CompressBlock(src, dst)
		} else {
			var c lz4.Compressor
			n, err = c.CompressBlock(src, dst)
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// The block compressor reports incompressible input as zero.
			return nil, errNotCompressible
		}
		return dst[:n], nil
	},
	Decompress: func(src []byte, dstSize int) ([]byte, error) {
		dst := make([]byte, dstSize)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	},
	Bound: func(srcSize int) int {
		return lz4.CompressBlockBound(srcSize)
	},
}
