package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/odvcencio/plumb/pkg/object"
)

func mustWrite(o object.Object, s *object.Store) object.Hash {
	h, err := s.Write(o)
	So(err, ShouldBeNil)
	return h
}

func newCommit(tree object.Hash, message string) *object.Commit {
	c := &object.Commit{}
	c.Add("tree", []byte(tree))
	c.Add("author", []byte("A U Thor <author@example.com> 1700000000 +0000"))
	c.Add("committer", []byte("A U Thor <author@example.com> 1700000000 +0000"))
	c.Message = []byte(message)
	return c
}

func newTag(target object.Hash, f object.Format, name string) *object.Tag {
	t := &object.Tag{}
	t.Add("object", []byte(target))
	t.Add("type", []byte(f))
	t.Add("tag", []byte(name))
	t.Add("tagger", []byte("A U Thor <author@example.com> 1700000000 +0000"))
	t.Message = []byte("release " + name + "\n")
	return t
}

// plantLoose creates an empty file in the fan-out layout so prefix lookups
// can see a digest without a real object behind it.
func plantLoose(r *Repo, h object.Hash) {
	p := r.Store.Path(h)
	So(os.MkdirAll(filepath.Dir(p), 0o755), ShouldBeNil)
	So(os.WriteFile(p, nil, 0o444), ShouldBeNil)
}

func TestResolveName(t *testing.T) {
	Convey("Given a fresh repository", t, func() {
		r, err := Init(t.TempDir())
		So(err, ShouldBeNil)

		Convey("An empty name has no candidates", func() {
			got, err := r.ResolveName("")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("HEAD resolves through the current branch", func() {
			blob := mustWrite(&object.Blob{Data: []byte("hello")}, r.Store)
			So(r.UpdateRef("refs/heads/main", blob), ShouldBeNil)

			got, err := r.ResolveName("HEAD")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{blob})
		})

		Convey("HEAD on an unborn branch has no candidates", func() {
			got, err := r.ResolveName("HEAD")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("An abbreviated digest matches a single object", func() {
			blob := mustWrite(&object.Blob{Data: []byte("hello")}, r.Store)

			got, err := r.ResolveName(string(blob[:4]))
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{blob})

			Convey("regardless of case", func() {
				upper := []byte(blob[:10])
				for i, c := range upper {
					if 'a' <= c && c <= 'f' {
						upper[i] = c - 'a' + 'A'
					}
				}
				got, err := r.ResolveName(string(upper))
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []object.Hash{blob})
			})
		})

		Convey("A prefix shared by two objects yields both", func() {
			first := object.Hash("abcd" + "000000000000000000000000000000000001")
			second := object.Hash("abcd" + "000000000000000000000000000000000002")
			plantLoose(r, first)
			plantLoose(r, second)

			got, err := r.ResolveName("abcd")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{first, second})

			_, _, err = r.Find("abcd", "", false)
			So(object.Category(err), ShouldEqual, object.ErrAmbiguousReference)
			var amb *object.AmbiguousReferenceError
			So(errors.As(err, &amb), ShouldBeTrue)
			So(amb.Candidates, ShouldResemble, []object.Hash{first, second})
		})

		Convey("A name that is both a digest prefix and a tag yields both", func() {
			loose := object.Hash("abcd" + "0000000000000000000000000000000000ff")
			plantLoose(r, loose)
			So(r.UpdateRef("refs/tags/abcd", digestA), ShouldBeNil)

			got, err := r.ResolveName("abcd")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{loose, digestA})

			_, _, err = r.Find("abcd", "", false)
			So(object.Category(err), ShouldEqual, object.ErrAmbiguousReference)
			var amb *object.AmbiguousReferenceError
			So(errors.As(err, &amb), ShouldBeTrue)
			So(amb.Candidates, ShouldResemble, []object.Hash{loose, digestA})
		})

		Convey("Tags and branches are both candidates", func() {
			So(r.UpdateRef("refs/tags/release", digestA), ShouldBeNil)
			So(r.UpdateRef("refs/heads/release", digestB), ShouldBeNil)

			got, err := r.ResolveName("release")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{digestA, digestB})

			_, _, err = r.Find("release", "", false)
			So(object.Category(err), ShouldEqual, object.ErrAmbiguousReference)
		})

		Convey("A tag and branch at the same digest collapse to one candidate", func() {
			So(r.UpdateRef("refs/tags/stable", digestA), ShouldBeNil)
			So(r.UpdateRef("refs/heads/stable", digestA), ShouldBeNil)

			got, err := r.ResolveName("stable")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []object.Hash{digestA})
		})

		Convey("Names shorter than four hex characters are not treated as digests", func() {
			plantLoose(r, object.Hash("abc0000000000000000000000000000000000001"))
			got, err := r.ResolveName("abc")
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestFind(t *testing.T) {
	Convey("Given a tag pointing at a commit", t, func() {
		r, err := Init(t.TempDir())
		So(err, ShouldBeNil)

		blob := mustWrite(&object.Blob{Data: []byte("hello\n")}, r.Store)
		tree := &object.Tree{}
		tree.Add(object.ModeFile, "hello.txt", blob)
		treeHash := mustWrite(tree, r.Store)
		commitHash := mustWrite(newCommit(treeHash, "initial\n"), r.Store)
		tagHash := mustWrite(newTag(commitHash, object.FormatCommit, "v1"), r.Store)
		So(r.UpdateRef("refs/tags/v1", tagHash), ShouldBeNil)
		So(r.UpdateRef("refs/heads/main", commitHash), ShouldBeNil)

		Convey("With no wanted format the candidate is returned as-is", func() {
			h, ok, err := r.Find("v1", "", true)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, tagHash)
		})

		Convey("Following peels the tag to its commit", func() {
			h, ok, err := r.Find("v1", object.FormatCommit, true)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, commitHash)
		})

		Convey("Following peels the tag and commit to the tree", func() {
			h, ok, err := r.Find("v1", object.FormatTree, true)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, treeHash)

			h, ok, err = r.Find("HEAD", object.FormatTree, true)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, treeHash)
		})

		Convey("Without following a format mismatch is no match", func() {
			h, ok, err := r.Find("v1", object.FormatTree, false)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(h, ShouldEqual, object.Hash(""))
		})

		Convey("A commit never leads to a blob", func() {
			_, ok, err := r.Find("main", object.FormatBlob, true)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("A matching format needs no following", func() {
			h, ok, err := r.Find(string(blob), object.FormatBlob, false)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, blob)
		})

		Convey("An unknown name is an unknown reference", func() {
			_, _, err := r.Find("no-such-branch", object.FormatCommit, true)
			So(object.Category(err), ShouldEqual, object.ErrUnknownReference)
		})

		Convey("A commit without a tree header is corrupt", func() {
			broken := &object.Commit{}
			broken.Add("author", []byte("A U Thor <author@example.com> 1700000000 +0000"))
			broken.Message = []byte("no tree\n")
			h := mustWrite(broken, r.Store)
			So(r.UpdateRef("refs/heads/broken", h), ShouldBeNil)

			_, _, err := r.Find("broken", object.FormatTree, true)
			So(object.Category(err), ShouldEqual, object.ErrCorruptObject)
		})

		Convey("A ref to a missing object is not found", func() {
			So(r.UpdateRef("refs/heads/dangling", digestA), ShouldBeNil)
			_, _, err := r.Find("dangling", object.FormatCommit, true)
			So(object.Category(err), ShouldEqual, object.ErrNotFound)
		})
	})
}
