// Package codec holds the byte-level helpers shared by the object store and
// the index reader: big-endian integer reads, zlib framing, and SHA-1.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pjbgf/sha1cd"
)

// DigestSize is the length in bytes of a raw SHA-1 digest.
const DigestSize = 20

// HexDigestSize is the length of a hex-encoded SHA-1 digest.
const HexDigestSize = 2 * DigestSize

// Uint16 decodes a big-endian uint16 from the first two bytes of b.
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Uint32 decodes a big-endian uint32 from the first four bytes of b.
func Uint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Compress deflates data into a zlib stream.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a complete zlib stream.
func Decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}
	return raw, nil
}

// Digest returns the SHA-1 of the concatenation of parts. The hash is the
// collision-detecting variant; for ordinary input it equals plain SHA-1.
func Digest(parts ...[]byte) [DigestSize]byte {
	h := sha1cd.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HexDigest is Digest encoded as 40 lowercase hex characters.
func HexDigest(parts ...[]byte) string {
	sum := Digest(parts...)
	return hex.EncodeToString(sum[:])
}
