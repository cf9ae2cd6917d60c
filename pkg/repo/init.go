package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/plumb/pkg/object"
)

// DefaultBranch is the branch HEAD points at in a new repository.
const DefaultBranch = "main"

const description = "Unnamed repository; edit this file 'description' to name the repository.\n"

// Init creates a new repository at path: .git/ with objects/, refs/heads/,
// refs/tags/, branches/, HEAD, description and config. It fails if path
// already holds a non-empty .git/ directory.
func Init(path string) (*Repo, error) {
	gitDir := filepath.Join(path, ".git")

	if entries, err := os.ReadDir(gitDir); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "branches"),
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(gitDir, "description"), []byte(description), 0o644); err != nil {
		return nil, fmt.Errorf("init: write description: %w", err)
	}
	head := "ref: refs/heads/" + DefaultBranch + "\n"
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(head), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := &Repo{
		RootDir: path,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
	}
	if err := r.WriteConfig(defaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return r, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository. The repository's config must declare format version 0.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			r := &Repo{
				RootDir: cur,
				GitDir:  gitDir,
				Store:   object.NewStore(gitDir),
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", gitDir, err)
			}
			if err := checkFormatVersion(cfg); err != nil {
				return nil, fmt.Errorf("open %s: %w", gitDir, err)
			}
			return r, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a git repository (or any parent up to /)")
		}
		cur = parent
	}
}
