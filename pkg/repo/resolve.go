package repo

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/object"
)

// maxFollowHops bounds tag and commit-to-tree following in Find.
const maxFollowHops = 64

var abbrevHashRE = regexp.MustCompile(`^[0-9A-Fa-f]{4,40}$`)

// ResolveName returns every digest name could refer to. "HEAD" resolves
// only through the HEAD file. Any other name is tried, additively, as an
// abbreviated digest (4 to 40 hex characters), as refs/tags/<name> and as
// refs/heads/<name>. Duplicates are collapsed; order is digest matches, then
// tag, then branch.
func (r *Repo) ResolveName(name string) ([]object.Hash, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	if name == "HEAD" {
		h, ok, err := r.ResolveRef("HEAD")
		if err != nil || !ok {
			return nil, err
		}
		return []object.Hash{h}, nil
	}

	var candidates []object.Hash
	seen := make(map[object.Hash]bool)
	add := func(h object.Hash) {
		if !seen[h] {
			seen[h] = true
			candidates = append(candidates, h)
		}
	}

	if abbrevHashRE.MatchString(name) {
		matches, err := r.Store.ListPrefix(name)
		if err != nil {
			return nil, err
		}
		for _, h := range matches {
			add(h)
		}
	}

	for _, ref := range []string{"refs/tags/" + name, "refs/heads/" + name} {
		h, ok, err := r.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		if ok {
			add(h)
		}
	}

	slog.Debug("resolved name", slog.String("name", name), slog.Int("candidates", len(candidates)))
	return candidates, nil
}

// Find resolves name to exactly one digest. With want empty the candidate is
// returned as-is. Otherwise the object is read and, if its format differs
// and follow is set, annotated tags are peeled to their target and commits
// are peeled to their tree (only when a tree is wanted). The second result
// is false when no object of the wanted format is reachable that way.
func (r *Repo) Find(name string, want object.Format, follow bool) (object.Hash, bool, error) {
	candidates, err := r.ResolveName(name)
	if err != nil {
		return "", false, err
	}
	switch len(candidates) {
	case 0:
		return "", false, errcat.Errorf(object.ErrUnknownReference, "no such reference %q", name)
	case 1:
	default:
		return "", false, &object.AmbiguousReferenceError{Name: name, Candidates: candidates}
	}

	h := candidates[0]
	if want == "" {
		return h, true, nil
	}

	for hop := 0; hop < maxFollowHops; hop++ {
		o, err := r.Store.Read(h)
		if err != nil {
			return "", false, err
		}
		if o.Format() == want {
			return h, true, nil
		}
		if !follow {
			return "", false, nil
		}

		switch o := o.(type) {
		case *object.Tag:
			h, err = o.Target()
		case *object.Commit:
			if want != object.FormatTree {
				return "", false, nil
			}
			h, err = o.Tree()
		case *object.Blob, *object.Tree:
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
	}
	return "", false, errcat.Errorf(object.ErrCorruptObject, "find %q: gave up after %d hops", name, maxFollowHops)
}
