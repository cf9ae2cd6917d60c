package object

import (
	"regexp"

	"github.com/warpfork/go-errcat"
)

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

var fullHashRE = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Valid reports whether h is a full 40-hex digest.
func (h Hash) Valid() bool {
	return fullHashRE.MatchString(string(h))
}

// Format identifies the kind of object stored.
type Format string

const (
	FormatBlob   Format = "blob"
	FormatTree   Format = "tree"
	FormatCommit Format = "commit"
	FormatTag    Format = "tag"
)

// ParseFormat validates an envelope format tag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatBlob, FormatTree, FormatCommit, FormatTag:
		return f, nil
	default:
		return "", errcat.Errorf(ErrUnsupportedFormat, "unknown object format %q", s)
	}
}

// Object is implemented by exactly four types: *Blob, *Tree, *Commit and
// *Tag. Payload returns the serialized form that gets hashed and stored.
type Object interface {
	Format() Format
	Payload() []byte
	object()
}

// Blob is opaque file content.
type Blob struct {
	Data []byte
}

func (*Blob) Format() Format { return FormatBlob }
func (*Blob) object()        {}

// Commit is a KVLM record with the usual tree/parent/author/committer
// headers. The headers are not validated on parse.
type Commit struct {
	Record
}

func (*Commit) Format() Format { return FormatCommit }
func (*Commit) object()        {}

// Tag is an annotated tag: a KVLM record with object/type/tag/tagger headers.
type Tag struct {
	Record
}

func (*Tag) Format() Format { return FormatTag }
func (*Tag) object()        {}

func (*Tree) Format() Format { return FormatTree }
func (*Tree) object()        {}
