package entropy8

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaMemLimit bounds decoder memory on hostile inputs. The ceiling is part
// of the format contract: raising it would accept archives that other
// implementations reject.
const lzmaMemLimit = 128 * 1024 * 1024

// lzmaDictCaps is the xz preset ladder: dictionary capacity per level 0-9.
var lzmaDictCaps = [10]int{
	256 << 10, 1 << 20, 2 << 20, 4 << 20, 4 << 20,
	8 << 20, 8 << 20, 16 << 20, 32 << 20, 64 << 20,
}

func lzmaDictCap(level int) int {
	if level < 0 || level > 9 {
		level = 6
	}
	return lzmaDictCaps[level]
}

var lzmaVtable = CodecVtable{
	ID:   CodecLZMA,
	Name: "lzma",
	Compress: func(src []byte, level int) ([]byte, error) {
		var buf bytes.Buffer
		cfg := lzma.WriterConfig{DictCap: lzmaDictCap(level)}
		w, err := cfg.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	},
	Decompress: func(src []byte, dstSize int) ([]byte, error) {
		if dstSize > lzmaMemLimit {
			return nil, fmt.Errorf("lzma: output %d exceeds %d byte memory limit", dstSize, lzmaMemLimit)
		}
		// The classic header stores the dictionary size at bytes 1..4.
		if len(src) >= 5 && binary.LittleEndian.Uint32(src[1:5]) > lzmaMemLimit {
			return nil, fmt.Errorf("lzma: dictionary exceeds %d byte memory limit", lzmaMemLimit)
		}
		cfg := lzma.ReaderConfig{DictCap: lzmaMemLimit}
		r, err := cfg.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		dst := make([]byte, 0, dstSize)
		chunk := make([]byte, 64*1024)
		for {
			n, err := r.Read(chunk)
			dst = append(dst, chunk[:n]...)
			if len(dst) > dstSize {
				return nil, fmt.Errorf("lzma: output exceeds declared size %d", dstSize)
			}
			if err == io.EOF {
				return dst, nil
			}
			if err != nil {
				return nil, err
			}
		}
	},
	Bound: func(srcSize int) int {
		// LZMA worst case: input plus stream overhead.
		return srcSize + srcSize/3 + 1024
	},
}
