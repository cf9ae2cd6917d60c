package object

import (
	"github.com/warpfork/go-errcat"
)

// requiredHash reads a single digest-valued header, failing as corrupt when
// it is missing or malformed.
func requiredHash(r *Record, f Format, key string) (Hash, error) {
	v, ok := r.Get(key)
	if !ok {
		return "", errcat.Errorf(ErrCorruptObject, "%s is missing its %q header", f, key)
	}
	h := Hash(v)
	if !h.Valid() {
		return "", errcat.Errorf(ErrCorruptObject, "%s header %q is not a digest: %q", f, key, v)
	}
	return h, nil
}

// Tree returns the digest of the commit's root tree.
func (c *Commit) Tree() (Hash, error) {
	return requiredHash(&c.Record, FormatCommit, "tree")
}

// Parents returns the commit's parent digests in header order.
func (c *Commit) Parents() []Hash {
	vals := c.Values("parent")
	out := make([]Hash, len(vals))
	for i, v := range vals {
		out[i] = Hash(v)
	}
	return out
}

// Target returns the digest of the tagged object.
func (t *Tag) Target() (Hash, error) {
	return requiredHash(&t.Record, FormatTag, "object")
}

// TargetFormat returns the declared format of the tagged object.
func (t *Tag) TargetFormat() (Format, error) {
	v, ok := t.Get("type")
	if !ok {
		return "", errcat.Errorf(ErrCorruptObject, "tag is missing its \"type\" header")
	}
	return ParseFormat(string(v))
}
