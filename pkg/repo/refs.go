package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/object"
)

const (
	symrefPrefix = "ref: "

	// maxSymrefDepth bounds chains of symbolic references.
	maxSymrefDepth = 10

	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// ResolveRef follows the reference file name (relative to .git/, e.g. "HEAD"
// or "refs/heads/main") through any "ref: " indirections. It reports false
// when a file in the chain does not exist.
func (r *Repo) ResolveRef(name string) (object.Hash, bool, error) {
	for depth := 0; depth <= maxSymrefDepth; depth++ {
		data, err := os.ReadFile(r.Path(filepath.FromSlash(name)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("resolve ref %q: %w", name, err)
		}
		content := strings.TrimSpace(string(data))
		if !strings.HasPrefix(content, symrefPrefix) {
			return object.Hash(content), true, nil
		}
		name = strings.TrimSpace(strings.TrimPrefix(content, symrefPrefix))
	}
	return "", false, errcat.Errorf(object.ErrUnknownReference, "resolve ref: symbolic reference chain deeper than %d at %q", maxSymrefDepth, name)
}

// Head reads .git/HEAD. It returns the target ref path (e.g.
// "refs/heads/main") when HEAD is symbolic, or the raw digest when detached.
func (r *Repo) Head() (target string, symbolic bool, err error) {
	data, err := os.ReadFile(r.Path("HEAD"))
	if err != nil {
		return "", false, fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, symrefPrefix) {
		return strings.TrimPrefix(content, symrefPrefix), true, nil
	}
	return content, false, nil
}

// ListRefs resolves every reference under .git/refs. Keys are slash
// separated paths relative to .git/, e.g. "refs/heads/main".
func (r *Repo) ListRefs() (map[string]object.Hash, error) {
	root := r.Path("refs")
	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(r.GitDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		h, ok, err := r.ResolveRef(name)
		if err != nil {
			return err
		}
		if ok {
			refs[name] = h
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// SortedRefNames returns the keys of refs in lexical order.
func SortedRefNames(refs map[string]object.Hash) []string {
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateRef points the reference file name (relative to .git/) at h. The
// write goes through an exclusively created lock file and a rename, so
// readers never see a partial ref.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	if !h.Valid() {
		return fmt.Errorf("update ref %q: %q is not a full digest", name, h)
	}
	refPath, err := r.File(true, filepath.FromSlash(name))
	if err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
