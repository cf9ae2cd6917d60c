package repo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/odvcencio/plumb/pkg/object"
)

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if err := r.checkTagFree(name, force); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if err := r.UpdateRef("refs/tags/"+name, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateAnnotatedTag stores a tag object pointing at target and points
// refs/tags/<name> at it. The tag's type header is the target's format.
func (r *Repo) CreateAnnotatedTag(name string, target object.Hash, tagger, message string, when time.Time, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("create annotated tag: message is required")
	}
	if err := r.checkTagFree(name, force); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}

	f, _, err := r.Store.ReadRaw(target)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	t := &object.Tag{}
	t.Add("object", []byte(target))
	t.Add("type", []byte(f))
	t.Add("tag", []byte(name))
	t.Add("tagger", []byte(Identity(tagger, when)))
	t.Message = []byte(message + "\n")

	tagHash, err := r.Store.Write(t)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}
	if err := r.UpdateRef("refs/tags/"+name, tagHash); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	return tagHash, nil
}

// DeleteTag removes a tag ref from refs/tags/. The tag object, if any, stays
// in the store.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := os.Remove(r.Path("refs", "tags", name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete tag: tag %q does not exist", name)
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ListTags returns tag name -> digest the tag ref resolves to.
func (r *Repo) ListTags() (map[string]object.Hash, error) {
	refs, err := r.ListRefs()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make(map[string]object.Hash)
	for full, h := range refs {
		if name, ok := strings.CutPrefix(full, "refs/tags/"); ok {
			out[name] = h
		}
	}
	return out, nil
}

func (r *Repo) checkTagFree(name string, force bool) error {
	if force {
		return nil
	}
	_, ok, err := r.ResolveRef("refs/tags/" + name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("tag %q already exists", name)
	}
	return nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.Contains(name, "..") || strings.HasSuffix(name, ".lock") ||
		strings.ContainsAny(name, " \t\n\r\\") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}

// Identity formats an author, committer or tagger line value:
// "Name <email> <unix seconds> <+hhmm>". A bare name gets a local address;
// an empty one falls back to $USER.
func Identity(who string, when time.Time) string {
	who = strings.TrimSpace(who)
	if who == "" {
		who = os.Getenv("USER")
		if who == "" {
			who = "unknown"
		}
	}
	if !strings.Contains(who, "<") {
		who = fmt.Sprintf("%s <%s@localhost>", who, who)
	}
	return fmt.Sprintf("%s %d %s", who, when.Unix(), formatTimezoneOffset(when))
}

func formatTimezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}
