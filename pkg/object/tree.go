package object

import (
	"bytes"
	"encoding/hex"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/codec"
)

const (
	// Mode strings are held normalized to six octal digits.
	ModeDir        = "040000"
	ModeFile       = "100644"
	ModeExecutable = "100755"
	ModeSymlink    = "120000"
	ModeGitlink    = "160000"
)

// Leaf is one entry of a tree.
type Leaf struct {
	Mode string
	Path string
	Hash Hash
}

// IsDir reports whether the leaf points at a subtree.
func (l Leaf) IsDir() bool {
	return strings.HasPrefix(l.Mode, "04")
}

// sortKey places a directory as if its name ended in "/", which is the
// order the reference VCS uses when it hashes trees.
func (l Leaf) sortKey() string {
	if l.IsDir() {
		return l.Path + "/"
	}
	return l.Path
}

// Tree is a directory snapshot.
type Tree struct {
	Leaves []Leaf
}

// Add appends a leaf. Order does not matter until the tree is serialized.
func (t *Tree) Add(mode, path string, h Hash) {
	t.Leaves = append(t.Leaves, Leaf{Mode: normalizeMode(mode), Path: path, Hash: h})
}

// Find returns the leaf named path.
func (t *Tree) Find(path string) (Leaf, bool) {
	for _, l := range t.Leaves {
		if l.Path == path {
			return l, true
		}
	}
	return Leaf{}, false
}

// Sort orders the leaves canonically.
func (t *Tree) Sort() {
	sort.SliceStable(t.Leaves, func(i, j int) bool {
		return t.Leaves[i].sortKey() < t.Leaves[j].sortKey()
	})
}

// Validate checks that every leaf has a six-digit octal mode, a non-empty
// path without "/" or NUL, and a full digest.
func (t *Tree) Validate() error {
	for _, l := range t.Leaves {
		if len(l.Mode) != 6 || strings.Trim(l.Mode, "01234567") != "" {
			return errcat.Errorf(ErrCorruptTree, "tree leaf %q: invalid mode %q", l.Path, l.Mode)
		}
		if l.Path == "" || strings.ContainsAny(l.Path, "/\x00") {
			return errcat.Errorf(ErrCorruptTree, "tree leaf %q: invalid path", l.Path)
		}
		if !l.Hash.Valid() {
			return errcat.Errorf(ErrCorruptTree, "tree leaf %q: %q is not a full digest", l.Path, l.Hash)
		}
	}
	return nil
}

// Payload sorts the leaves in place and serializes them. Each leaf is
//
//	<mode> <path>\0<20 raw digest bytes>
//
// with directory modes written without their leading zero ("40000"), so a
// parsed tree that spelled it "040000" does not re-serialize byte for byte.
// A leaf whose digest is not valid hex is written as zero bytes; Store.Write
// rejects such trees through Validate.
func (t *Tree) Payload() []byte {
	t.Sort()
	var buf bytes.Buffer
	for _, l := range t.Leaves {
		buf.WriteString(strings.TrimPrefix(l.Mode, "0"))
		buf.WriteByte(' ')
		buf.WriteString(l.Path)
		buf.WriteByte(0)
		raw, err := hex.DecodeString(string(l.Hash))
		if err != nil || len(raw) != codec.DigestSize {
			raw = make([]byte, codec.DigestSize)
		}
		buf.Write(raw)
	}
	return buf.Bytes()
}

// ParseTree decodes a serialized tree, preserving on-disk leaf order.
func ParseTree(raw []byte) (*Tree, error) {
	t := &Tree{}
	pos := 0
	for pos < len(raw) {
		leaf, n, err := parseLeaf(raw[pos:], pos)
		if err != nil {
			return nil, err
		}
		t.Leaves = append(t.Leaves, leaf)
		pos += n
	}
	return t, nil
}

func parseLeaf(raw []byte, offset int) (Leaf, int, error) {
	sp := bytes.IndexByte(raw, ' ')
	if sp < 0 {
		return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: missing mode terminator", offset)
	}
	if sp != 5 && sp != 6 {
		return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: mode %q is not 5 or 6 digits", offset, raw[:sp])
	}
	mode := string(raw[:sp])
	for _, c := range mode {
		if c < '0' || c > '7' {
			return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: mode %q is not octal", offset, mode)
		}
	}

	nul := bytes.IndexByte(raw[sp+1:], 0)
	if nul < 0 {
		return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: missing path terminator", offset)
	}
	path := raw[sp+1 : sp+1+nul]
	if !utf8.Valid(path) {
		return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: path is not valid UTF-8", offset)
	}

	start := sp + 1 + nul + 1
	end := start + codec.DigestSize
	if end > len(raw) {
		return Leaf{}, 0, errcat.Errorf(ErrCorruptTree, "tree leaf at offset %d: truncated digest (%d of %d bytes)", offset, len(raw)-start, codec.DigestSize)
	}

	return Leaf{
		Mode: normalizeMode(mode),
		Path: string(path),
		Hash: Hash(hex.EncodeToString(raw[start:end])),
	}, end, nil
}

func normalizeMode(mode string) string {
	if len(mode) == 5 {
		return "0" + mode
	}
	return mode
}
