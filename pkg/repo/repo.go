package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/plumb/pkg/index"
	"github.com/odvcencio/plumb/pkg/object"
)

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working tree root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store
}

// Path joins elem onto the .git/ directory.
func (r *Repo) Path(elem ...string) string {
	return filepath.Join(append([]string{r.GitDir}, elem...)...)
}

// File returns the path of a file under .git/. With mkdir set, missing
// parent directories are created.
func (r *Repo) File(mkdir bool, elem ...string) (string, error) {
	p := r.Path(elem...)
	if mkdir {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
		}
	}
	return p, nil
}

// ReadIndex decodes .git/index. A repository without an index has an empty
// one.
func (r *Repo) ReadIndex() (*index.Index, error) {
	return index.ReadFile(r.Path("index"))
}
