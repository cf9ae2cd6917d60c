package object

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/odvcencio/plumb/pkg/codec"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestHashObjectKnownBlob(t *testing.T) {
	got := HashObject(FormatBlob, []byte("hello"))
	if got != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
		t.Errorf("HashObject: got %s", got)
	}
	want := plumbing.ComputeHash(plumbing.BlobObject, []byte("hello")).String()
	if string(got) != want {
		t.Errorf("HashObject: got %s, go-git says %s", got, want)
	}
}

func TestHashObjectDiffersByFormat(t *testing.T) {
	if HashObject(FormatBlob, []byte("x")) == HashObject(FormatCommit, []byte("x")) {
		t.Error("different formats produced the same digest")
	}
}

func TestStoreWriteReadBlob(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(&Blob{Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
		t.Fatalf("Write digest: got %s", h)
	}

	o, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	blob, ok := o.(*Blob)
	if !ok {
		t.Fatalf("Read: got %T, want *Blob", o)
	}
	if string(blob.Data) != "hello" {
		t.Errorf("Data: got %q, want %q", blob.Data, "hello")
	}
}

func TestStoreFanoutLayoutIsCompressedEnvelope(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(&Blob{Data: []byte("fanout")})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	objPath := filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
	if objPath != s.Path(h) {
		t.Errorf("Path: got %s, want %s", s.Path(h), objPath)
	}
	compressed, err := os.ReadFile(objPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw, err := codec.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(raw) != "blob 6\x00fanout" {
		t.Errorf("envelope: got %q", raw)
	}
}

func TestStoreWriteIsIdempotent(t *testing.T) {
	s := tempStore(t)
	o := &Blob{Data: []byte("duplicate")}
	h1, err := s.Write(o)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	before, err := os.Stat(s.Path(h1))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	h2, err := s.Write(o)
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("digests differ: %s vs %s", h1, h2)
	}
	after, err := os.Stat(s.Path(h2))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !os.SameFile(before, after) || !before.ModTime().Equal(after.ModTime()) {
		t.Error("second write replaced the existing record")
	}
}

func TestStoreWriteDoesNotOverwriteExisting(t *testing.T) {
	s := tempStore(t)
	h := HashObject(FormatBlob, []byte("trusted"))
	if err := os.MkdirAll(filepath.Dir(s.Path(h)), 0o755); err != nil {
		t.Fatal(err)
	}
	sentinel := []byte("pre-existing record")
	if err := os.WriteFile(s.Path(h), sentinel, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.Write(&Blob{Data: []byte("trusted")})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got != h {
		t.Errorf("Write digest: got %s, want %s", got, h)
	}
	data, _ := os.ReadFile(s.Path(h))
	if !bytes.Equal(data, sentinel) {
		t.Error("existing record was rewritten")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Read(Hash("0000000000000000000000000000000000000000"))
	if got := Category(err); got != ErrNotFound {
		t.Fatalf("category: got %q, want %q (err=%v)", got, ErrNotFound, err)
	}
}

func writeRawRecord(t *testing.T, s *Store, h Hash, envelope string) {
	t.Helper()
	z, err := codec.Compress([]byte(envelope))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path(h)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(h), z, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreReadRejectsBadEnvelopes(t *testing.T) {
	tests := []struct {
		name     string
		envelope string
		want     ErrorCategory
	}{
		{"length mismatch", "blob 10\x00short", ErrCorruptObject},
		{"bad length", "blob x\x00", ErrCorruptObject},
		{"no nul", "blob 5", ErrCorruptObject},
		{"unknown format", "widget 3\x00abc", ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tempStore(t)
			h := Hash("1234567890123456789012345678901234567890")
			writeRawRecord(t, s, h, tt.envelope)
			_, err := s.Read(h)
			if got := Category(err); got != tt.want {
				t.Fatalf("category: got %q, want %q (err=%v)", got, tt.want, err)
			}
		})
	}
}

func TestStoreReadRejectsNonZlib(t *testing.T) {
	s := tempStore(t)
	h := Hash("1234567890123456789012345678901234567890")
	if err := os.MkdirAll(filepath.Dir(s.Path(h)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(h), []byte("plain"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(h); Category(err) != ErrCorruptObject {
		t.Fatalf("Read: got %v, want corrupt-object", err)
	}
}

func TestStoreWriteReadAllFormats(t *testing.T) {
	s := tempStore(t)

	tree := &Tree{}
	tree.Add(ModeFile, "a.txt", hashA)

	commit := &Commit{}
	commit.Add("tree", []byte(hashB))
	commit.Add("author", []byte("x <x@y> 0 +0000"))
	commit.Message = []byte("first\n")

	tag := &Tag{}
	tag.Add("object", []byte(hashC))
	tag.Add("type", []byte("commit"))
	tag.Add("tag", []byte("v1"))
	tag.Message = []byte("release\n")

	for _, o := range []Object{&Blob{Data: []byte("b")}, tree, commit, tag} {
		h, err := s.Write(o)
		if err != nil {
			t.Fatalf("Write %s: %v", o.Format(), err)
		}
		got, err := s.Read(h)
		if err != nil {
			t.Fatalf("Read %s: %v", o.Format(), err)
		}
		if got.Format() != o.Format() {
			t.Errorf("Format: got %s, want %s", got.Format(), o.Format())
		}
		if !bytes.Equal(got.Payload(), o.Payload()) {
			t.Errorf("%s payload round-trip mismatch", o.Format())
		}
	}
}

func TestStoreListPrefix(t *testing.T) {
	s := tempStore(t)
	dir := filepath.Join(s.root, "objects", "ab")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"cd000000000000000000000000000000000000",
		"cd111111111111111111111111111111111111",
		"ef000000000000000000000000000000000000",
		".tmp-123",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListPrefix("ABcd")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(got) != 2 || got[0] != "abcd000000000000000000000000000000000000" || got[1] != "abcd111111111111111111111111111111111111" {
		t.Errorf("ListPrefix: got %q", got)
	}
	if got, err := s.ListPrefix("ff00"); err != nil || len(got) != 0 {
		t.Errorf("ListPrefix(missing dir): got %q, %v", got, err)
	}
}

func TestStoreVerify(t *testing.T) {
	s := tempStore(t)
	for _, data := range []string{"one", "two", "three"} {
		if _, err := s.Write(&Blob{Data: []byte(data)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	report, err := s.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Objects != 3 {
		t.Errorf("Objects: got %d, want 3", report.Objects)
	}

	// A record stored under the wrong name fails verification.
	writeRawRecord(t, s, Hash("1234567890123456789012345678901234567890"), "blob 3\x00abc")
	if _, err := s.Verify(); Category(err) != ErrCorruptObject {
		t.Fatalf("Verify: got %v, want corrupt-object", err)
	}
}

func TestStoreWriteRejectsInvalidTreeLeaf(t *testing.T) {
	tests := map[string]Leaf{
		"short digest":   {Mode: ModeFile, Path: "a.txt", Hash: "not-a-digest"},
		"uppercase hex":  {Mode: ModeFile, Path: "a.txt", Hash: Hash(strings.ToUpper(string(hashA)))},
		"empty path":     {Mode: ModeFile, Path: "", Hash: hashA},
		"slash in path":  {Mode: ModeFile, Path: "a/b", Hash: hashA},
		"non-octal mode": {Mode: "100684", Path: "a.txt", Hash: hashA},
	}
	for name, leaf := range tests {
		t.Run(name, func(t *testing.T) {
			s := tempStore(t)
			tree := &Tree{Leaves: []Leaf{leaf}}
			h, err := s.Write(tree)
			if got := Category(err); got != ErrCorruptTree {
				t.Fatalf("Write: got hash=%q err=%v, want %q", h, err, ErrCorruptTree)
			}
			hashes, err := s.listAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(hashes) != 0 {
				t.Fatalf("store holds %v after rejected write", hashes)
			}
		})
	}
}

func TestStoreWriteRawKeepsBytes(t *testing.T) {
	s := tempStore(t)
	// A repeated key split by another key does not survive a parse and
	// re-serialize, so the stored digest must come from the given bytes.
	raw := []byte("tree " + string(hashA) + "\nx 1\ny 2\nx 3\n\nmsg\n")
	h, err := s.WriteRaw(FormatCommit, raw)
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if want := HashObject(FormatCommit, raw); h != want {
		t.Fatalf("WriteRaw: got %s, want %s", h, want)
	}
	f, payload, err := s.ReadRaw(h)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if f != FormatCommit || !bytes.Equal(payload, raw) {
		t.Fatalf("ReadRaw: got %s %q", f, payload)
	}
}
