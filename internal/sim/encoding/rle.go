// Package encoding packs voxel views for the observer stream.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Pal16RLE names the encoding produced by EncodePal16: base64 of uvarint
// (palette id, run length) pairs.
const Pal16RLE = "PAL16_RLE"

func EncodePal16(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		b := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == b {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodePal16 expands data into exactly want ids. Runs past want are an error.
func DecodePal16(data string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFFFF {
			return nil, fmt.Errorf("block id too large: %d", b)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, fmt.Errorf("run of %d at %d overflows %d ids", run, i, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(b))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("decoded %d ids, want %d", len(out), want)
	}
	return out, nil
}
