package object

import (
	"strconv"

	"github.com/odvcencio/plumb/pkg/codec"
)

// envelope returns the "<format> <len>\0" header that prefixes a payload
// both when hashing and on disk.
func envelope(f Format, payload []byte) []byte {
	hdr := make([]byte, 0, len(f)+12)
	hdr = append(hdr, f...)
	hdr = append(hdr, ' ')
	hdr = strconv.AppendInt(hdr, int64(len(payload)), 10)
	return append(hdr, 0)
}

// HashObject computes the SHA-1 of the envelope "format len\0payload".
func HashObject(f Format, payload []byte) Hash {
	return Hash(codec.HexDigest(envelope(f, payload), payload))
}

// Sum serializes o and returns its digest without touching any store.
// Serializing a tree sorts its leaves.
func Sum(o Object) Hash {
	return HashObject(o.Format(), o.Payload())
}
