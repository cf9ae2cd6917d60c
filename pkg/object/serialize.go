package object

// Payload returns a copy of the blob bytes.
func (b *Blob) Payload() []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// Unmarshal decodes payload as an object of format f.
func Unmarshal(f Format, payload []byte) (Object, error) {
	switch f {
	case FormatBlob:
		data := make([]byte, len(payload))
		copy(data, payload)
		return &Blob{Data: data}, nil
	case FormatTree:
		t, err := ParseTree(payload)
		if err != nil {
			return nil, err
		}
		return t, nil
	case FormatCommit:
		rec, err := ParseRecord(payload)
		if err != nil {
			return nil, err
		}
		return &Commit{Record: *rec}, nil
	case FormatTag:
		rec, err := ParseRecord(payload)
		if err != nil {
			return nil, err
		}
		return &Tag{Record: *rec}, nil
	default:
		_, err := ParseFormat(string(f))
		return nil, err
	}
}
