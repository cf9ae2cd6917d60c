package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/format/config"
)

// RepositoryFormatVersion is the only on-disk layout this package reads.
const RepositoryFormatVersion = "0"

func defaultConfig() *config.Config {
	cfg := config.New()
	cfg.Section("core").
		SetOption("repositoryformatversion", RepositoryFormatVersion).
		SetOption("filemode", "false").
		SetOption("bare", "false")
	return cfg
}

// ReadConfig decodes .git/config.
func (r *Repo) ReadConfig() (*config.Config, error) {
	data, err := os.ReadFile(r.Path("config"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: configuration file missing")
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := config.New()
	if err := config.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	return cfg, nil
}

// WriteConfig atomically writes .git/config.
func (r *Repo) WriteConfig(cfg *config.Config) error {
	var buf bytes.Buffer
	if err := config.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.GitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.Path("config")); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

func checkFormatVersion(cfg *config.Config) error {
	v := cfg.Section("core").Option("repositoryformatversion")
	if v != RepositoryFormatVersion {
		return fmt.Errorf("unsupported repository format version %q", v)
	}
	return nil
}
