package object

import (
	"bytes"

	"github.com/warpfork/go-errcat"
)

// Record is the key-value-list-with-message shape shared by commits and
// tags: an ordered list of header keys, each holding one or more values,
// followed by a free-form message.
//
//	tree 9c3a...
//	parent 1f0e...
//	author A U Thor <a@example.com> 1700000000 +0000
//	gpgsig -----BEGIN SSH SIGNATURE-----
//	 U1NIU0lH...
//	 -----END SSH SIGNATURE-----
//
//	message body
//
// Values are stored unfolded: continuation lines lose their leading space
// on parse and regain it on serialization.
type Record struct {
	keys    []string
	values  map[string][][]byte
	Message []byte
}

// Keys returns header keys in first-seen order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the first value stored under key.
func (r *Record) Get(key string) ([]byte, bool) {
	vals := r.values[key]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[0], true
}

// Values returns every value stored under key, in insertion order.
func (r *Record) Values(key string) [][]byte {
	return r.values[key]
}

// Add appends a value under key. A new key goes to the end of the key order;
// a repeated key keeps its original position and becomes multi-valued.
func (r *Record) Add(key string, value []byte) {
	if r.values == nil {
		r.values = make(map[string][][]byte)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = append(r.values[key], value)
}

// Set replaces all values under key with value, keeping the key's position.
func (r *Record) Set(key string, value []byte) {
	if _, ok := r.values[key]; ok {
		r.values[key] = [][]byte{value}
		return
	}
	r.Add(key, value)
}

// Del removes key and all its values.
func (r *Record) Del(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Payload serializes the record. Each value is emitted as "key value\n" with
// embedded newlines refolded to "\n ", then a blank line and the message.
func (r *Record) Payload() []byte {
	var buf bytes.Buffer
	for _, k := range r.keys {
		for _, v := range r.values[k] {
			buf.WriteString(k)
			buf.WriteByte(' ')
			buf.Write(bytes.ReplaceAll(v, []byte("\n"), []byte("\n ")))
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
	buf.Write(r.Message)
	return buf.Bytes()
}

// ParseRecord decodes a serialized record.
func ParseRecord(raw []byte) (*Record, error) {
	r := &Record{values: make(map[string][][]byte)}
	pos := 0
	for {
		if pos >= len(raw) {
			// Headers ran to the end of the buffer with no message section.
			return nil, errcat.Errorf(ErrCorruptObject, "kvlm: missing blank line before message")
		}
		rest := raw[pos:]
		nl := bytes.IndexByte(rest, '\n')
		sp := bytes.IndexByte(rest, ' ')

		if sp < 0 || (nl >= 0 && nl < sp) {
			if nl != 0 {
				return nil, errcat.Errorf(ErrCorruptObject, "kvlm: malformed header line at offset %d", pos)
			}
			r.Message = append([]byte(nil), rest[1:]...)
			return r, nil
		}

		key := string(rest[:sp])
		end := sp
		for {
			i := bytes.IndexByte(rest[end+1:], '\n')
			if i < 0 {
				return nil, errcat.Errorf(ErrCorruptObject, "kvlm: unterminated value for key %q", key)
			}
			end += 1 + i
			if end+1 >= len(rest) || rest[end+1] != ' ' {
				break
			}
		}
		value := bytes.ReplaceAll(rest[sp+1:end], []byte("\n "), []byte("\n"))
		r.Add(key, value)

		pos += end + 1
	}
}
