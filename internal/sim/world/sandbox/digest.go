package sandbox

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
)

// Digest hashes the body and every loaded chunk. Two runs that made the same moves
// in the same generated world have the same digest.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	writeInt(h, &tmp, w.chunks.Gen.Seed)
	for _, v := range []int{w.pos.X, w.pos.Y, w.pos.Z} {
		writeInt(h, &tmp, int64(v))
	}

	counts := map[string]int{}
	for _, s := range w.inv {
		counts[s.Item+"|"+s.Color] += s.Count
	}
	writeSortedNonZeroIntMap(h, &tmp, counts)

	for _, k := range w.chunks.LoadedChunkKeys() {
		writeInt(h, &tmp, int64(k.CX))
		writeInt(h, &tmp, int64(k.CZ))
		d := w.chunks.Chunks[k].Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeInt(w io.Writer, tmp *[8]byte, v int64) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	w.Write(tmp[:])
}

// writeSortedNonZeroIntMap writes m in key order and skips zero values, so empty
// stacks do not change the digest.
func writeSortedNonZeroIntMap(w io.Writer, tmp *[8]byte, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Write([]byte(k))
		writeInt(w, tmp, int64(m[k]))
	}
}
