// Package index decodes the staging-area file (the "index"), version 2.
//
// Layout, all integers big-endian:
//
//	header   "DIRC" | version (4) | entry count (4)
//	entry    ctime s/ns (4+4) | mtime s/ns (4+4) | dev (4) | ino (4)
//	         reserved (2, zero) | mode (2: 4-bit type, 3 unused, 9 perm)
//	         uid (4) | gid (4) | size (4) | sha-1 (20)
//	         flags (2: assume-valid, extended, 2-bit stage, 12-bit name length)
//	         name, NUL, then NUL padding to an 8-byte boundary
//
// Extensions and the trailing checksum that may follow the entries are not
// interpreted.
package index

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/codec"
	"github.com/odvcencio/plumb/pkg/object"
)

const (
	headerSize      = 12
	entryFixedSize  = 62
	supportedVer    = 2
	nameLengthLimit = 0xFFF
)

var signature = []byte("DIRC")

// ModeType is the 4-bit object type stored in an entry's mode.
type ModeType uint16

const (
	ModeRegular ModeType = 0b1000
	ModeSymlink ModeType = 0b1010
	ModeGitlink ModeType = 0b1110
)

func (m ModeType) String() string {
	switch m {
	case ModeRegular:
		return "regular"
	case ModeSymlink:
		return "symlink"
	case ModeGitlink:
		return "gitlink"
	}
	return fmt.Sprintf("ModeType(%#b)", uint16(m))
}

// Timestamp is a seconds/nanoseconds pair as stored on disk.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// Entry is one tracked file.
type Entry struct {
	CTime     Timestamp
	MTime     Timestamp
	Dev       uint32
	Inode     uint32
	ModeType  ModeType
	ModePerms uint16
	UID       uint32
	GID       uint32
	Size      uint32
	Hash      object.Hash

	// AssumeValid and Stage are decoded and carried as-is.
	AssumeValid bool
	Stage       uint8

	Name string
}

// Mode recombines type and permission bits, e.g. 0o100644.
func (e Entry) Mode() uint32 {
	return uint32(e.ModeType)<<12 | uint32(e.ModePerms)
}

// Index is the decoded staging area.
type Index struct {
	Version uint32
	Entries []Entry
}

// ReadFile decodes the index at path. A missing file is an empty index.
func ReadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{Version: supportedVer}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	return Decode(data)
}

// Decode parses a complete index file.
func Decode(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, errcat.Errorf(object.ErrCorruptIndex, "index header truncated (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:4], signature) {
		return nil, errcat.Errorf(object.ErrCorruptIndex, "bad index signature %q", data[:4])
	}
	version := codec.Uint32(data[4:8])
	if version != supportedVer {
		return nil, errcat.Errorf(object.ErrUnsupportedIndexVersion, "index version %d is not supported (want %d)", version, supportedVer)
	}
	count := codec.Uint32(data[8:12])

	content := data[headerSize:]
	idx := &Index{Version: version}
	if count > 0 {
		// Every entry takes at least 64 bytes; don't trust count for allocation.
		idx.Entries = make([]Entry, 0, min(int(count), len(content)/64+1))
	}
	pos := 0
	for i := uint32(0); i < count; i++ {
		e, next, err := decodeEntry(content, pos)
		if err != nil {
			return nil, fmt.Errorf("index entry %d: %w", i, err)
		}
		idx.Entries = append(idx.Entries, e)
		pos = next
	}
	return idx, nil
}

// decodeEntry reads the entry starting at content[pos:] and returns it with
// the 8-byte-aligned offset of the next entry.
func decodeEntry(content []byte, pos int) (Entry, int, error) {
	if pos+entryFixedSize > len(content) {
		return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d truncated", pos+headerSize)
	}
	b := content[pos : pos+entryFixedSize]

	if reserved := codec.Uint16(b[24:26]); reserved != 0 {
		return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: reserved mode bits %#x are set", pos+headerSize, reserved)
	}
	mode := codec.Uint16(b[26:28])
	modeType := ModeType(mode >> 12)
	switch modeType {
	case ModeRegular, ModeSymlink, ModeGitlink:
	default:
		return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: invalid object type %#b", pos+headerSize, uint16(modeType))
	}

	flags := codec.Uint16(b[60:62])
	if flags&0x4000 != 0 {
		return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: extended flag set in version 2 index", pos+headerSize)
	}

	e := Entry{
		CTime:       Timestamp{codec.Uint32(b[0:4]), codec.Uint32(b[4:8])},
		MTime:       Timestamp{codec.Uint32(b[8:12]), codec.Uint32(b[12:16])},
		Dev:         codec.Uint32(b[16:20]),
		Inode:       codec.Uint32(b[20:24]),
		ModeType:    modeType,
		ModePerms:   mode & 0o777,
		UID:         codec.Uint32(b[28:32]),
		GID:         codec.Uint32(b[32:36]),
		Size:        codec.Uint32(b[36:40]),
		Hash:        object.Hash(hex.EncodeToString(b[40:60])),
		AssumeValid: flags&0x8000 != 0,
		Stage:       uint8(flags >> 12 & 0x3),
	}

	nameStart := pos + entryFixedSize
	nameLen := int(flags & nameLengthLimit)
	var nameEnd int
	if nameLen < nameLengthLimit {
		nameEnd = nameStart + nameLen
		if nameEnd >= len(content) {
			return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: name truncated", pos+headerSize)
		}
		if content[nameEnd] != 0 {
			return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: name not NUL-terminated", pos+headerSize)
		}
	} else {
		scanFrom := nameStart + nameLengthLimit
		if scanFrom > len(content) {
			return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: long name truncated", pos+headerSize)
		}
		nul := bytes.IndexByte(content[scanFrom:], 0)
		if nul < 0 {
			return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: long name not NUL-terminated", pos+headerSize)
		}
		nameEnd = scanFrom + nul
		slog.Debug("index entry has a long name", slog.Int("bytes", nameEnd-nameStart))
	}
	name := content[nameStart:nameEnd]
	if !utf8.Valid(name) {
		return Entry{}, 0, errcat.Errorf(object.ErrCorruptIndex, "entry at offset %d: name is not valid UTF-8", pos+headerSize)
	}
	e.Name = string(name)

	next := (nameEnd + 1 + 7) &^ 7
	return e, next, nil
}
