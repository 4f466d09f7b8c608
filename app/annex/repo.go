package annex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const lockFile = ".podcast-annex.lock"

// Repo is the annex working tree: one directory of archived files per
// podcast plus the rewritten {slug}.rss documents at the root.
type Repo struct {
	dir  string
	lock *flock.Flock
}

func NewRepo(dir string) *Repo {
	return &Repo{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFile)),
	}
}

func (r *Repo) Dir() string {
	return r.dir
}

// TryLock takes the exclusive run lock without blocking. It returns false
// when another process holds it.
func (r *Repo) TryLock() (bool, error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire annex lock: %w", err)
	}
	return ok, nil
}

func (r *Repo) Unlock() error {
	return r.lock.Unlock()
}

// Stems returns the names, without their final extension, of the files
// archived for a podcast. A podcast that was never archived has none.
func (r *Repo) Stems(slug string) (map[string]bool, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to list archive of %s: %w", slug, err)
	}

	stems := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			continue
		}
		stems[strings.TrimSuffix(name, ext)] = true
	}

	return stems, nil
}
