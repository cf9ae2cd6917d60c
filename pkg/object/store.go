package object

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/codec"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path returns the filesystem path of the loose record for h.
func (s *Store) Path(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.Path(h))
	return err == nil
}

// Write serializes o, stores the compressed envelope, and returns the
// digest. A record that already exists is left untouched: equal digests
// imply equal bytes.
func (s *Store) Write(o Object) (Hash, error) {
	if t, ok := o.(*Tree); ok {
		if err := t.Validate(); err != nil {
			return "", err
		}
	}
	return s.WriteRaw(o.Format(), o.Payload())
}

// WriteRaw stores payload under format f exactly as given. Callers are
// responsible for payload being a well-formed object of that format.
func (s *Store) WriteRaw(f Format, payload []byte) (Hash, error) {
	hdr := envelope(f, payload)
	h := Hash(codec.HexDigest(hdr, payload))

	if s.Has(h) {
		slog.Debug("object exists, skipping write", slog.String("hash", string(h)))
		return h, nil
	}

	compressed, err := codec.Compress(append(hdr, payload...))
	if err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("object write close: %w", err)
	}

	// Link fails if another writer got there first, which is as good as
	// success. Filesystems without hard links fall back to rename.
	dest := s.Path(h)
	if err := os.Link(tmpName, dest); err != nil {
		if errors.Is(err, os.ErrExist) {
			slog.Debug("object created concurrently", slog.String("hash", string(h)))
			return h, nil
		}
		if err := os.Rename(tmpName, dest); err != nil {
			return "", fmt.Errorf("object write rename: %w", err)
		}
	}
	slog.Debug("object written", slog.String("hash", string(h)), slog.String("format", string(f)), slog.Int("size", len(payload)))
	return h, nil
}

// ReadRaw returns the format and undecoded payload of the object h.
func (s *Store) ReadRaw(h Hash) (Format, []byte, error) {
	if !h.Valid() {
		return "", nil, errcat.Errorf(ErrNotFound, "object %q: not a full digest", h)
	}
	compressed, err := os.ReadFile(s.Path(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, errcat.Errorf(ErrNotFound, "object %s not found", h)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := codec.Decompress(compressed)
	if err != nil {
		return "", nil, errcat.Errorf(ErrCorruptObject, "object %s: %s", h, err)
	}
	return parseEnvelope(h, raw)
}

// Read loads and decodes the object h.
func (s *Store) Read(h Hash) (Object, error) {
	f, payload, err := s.ReadRaw(h)
	if err != nil {
		return nil, err
	}
	o, err := Unmarshal(f, payload)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return o, nil
}

// parseEnvelope splits "format len\0payload" and checks the length.
func parseEnvelope(h Hash, raw []byte) (Format, []byte, error) {
	sp := bytes.IndexByte(raw, ' ')
	if sp < 0 {
		return "", nil, errcat.Errorf(ErrCorruptObject, "object %s: envelope has no format separator", h)
	}
	nul := bytes.IndexByte(raw[sp:], 0)
	if nul < 0 {
		return "", nil, errcat.Errorf(ErrCorruptObject, "object %s: envelope has no NUL", h)
	}
	nul += sp

	f, err := ParseFormat(string(raw[:sp]))
	if err != nil {
		return "", nil, errcat.Errorf(ErrUnsupportedFormat, "object %s: unknown format %q", h, raw[:sp])
	}
	length, err := strconv.Atoi(string(raw[sp+1 : nul]))
	if err != nil {
		return "", nil, errcat.Errorf(ErrCorruptObject, "object %s: invalid length %q", h, raw[sp+1:nul])
	}
	payload := raw[nul+1:]
	if len(payload) != length {
		return "", nil, errcat.Errorf(ErrCorruptObject, "object %s: length mismatch (header=%d, actual=%d)", h, length, len(payload))
	}
	return f, payload, nil
}

// ListPrefix returns every stored digest starting with prefix, which must be
// at least two hex characters. Results are sorted.
func (s *Store) ListPrefix(prefix string) ([]Hash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < 2 || !isHex(prefix) {
		return nil, fmt.Errorf("list prefix %q: need at least 2 hex characters", prefix)
	}
	dir, rest := prefix[:2], prefix[2:]

	entries, err := os.ReadDir(filepath.Join(s.root, "objects", dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list prefix %q: %w", prefix, err)
	}
	var out []Hash
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, rest) {
			continue
		}
		out = append(out, Hash(dir+name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// VerifySummary reports the outcome of Verify.
type VerifySummary struct {
	Objects int
}

// Verify re-reads every loose object and checks that it hashes to its
// filename.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.listAll()
	if err != nil {
		return nil, err
	}
	report := &VerifySummary{}
	for _, h := range hashes {
		f, payload, err := s.ReadRaw(h)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if actual := HashObject(f, payload); actual != h {
			return nil, errcat.Errorf(ErrCorruptObject, "verify %s: hash mismatch (computed %s)", h, actual)
		}
		if _, err := Unmarshal(f, payload); err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		report.Objects++
	}
	return report, nil
}

func (s *Store) listAll() ([]Hash, error) {
	objectsDir := filepath.Join(s.root, "objects")
	fanout, err := os.ReadDir(objectsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}
	var out []Hash
	for _, d := range fanout {
		if !d.IsDir() || len(d.Name()) != 2 || !isHex(d.Name()) {
			continue
		}
		hs, err := s.ListPrefix(d.Name())
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			if h.Valid() {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
