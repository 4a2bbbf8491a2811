package objectstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yungbote/datavault-backend/internal/platform/envutil"
	"github.com/yungbote/datavault-backend/internal/platform/logger"
	"github.com/yungbote/datavault-backend/internal/types"
)

// Store is a local object store rooted at a single directory. Every
// path handed to it is resolved under the root and rejected when it
// escapes, so planner output can never write outside the repository.
type Store struct {
	root string
	log  *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Config struct {
	Root string
}

// ResolveConfigFromEnv reads LOCAL_ROOT_REPO, defaulting to a storage
// directory next to the working directory.
func ResolveConfigFromEnv() Config {
	return Config{Root: envutil.String("LOCAL_ROOT_REPO", "../storage")}
}

func New(cfg Config, log *logger.Logger) (*Store, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root %q: %w", cfg.Root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create store root %q: %w", abs, err)
	}
	return &Store{
		root:  abs,
		log:   log.With("service", "ObjectStore"),
		locks: map[string]*sync.Mutex{},
	}, nil
}

func (s *Store) Root() string { return s.root }

// Resolve maps a store-relative path to an absolute one, rejecting
// anything that escapes the root.
func (s *Store) Resolve(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(rel)))
	if cleaned == "." || cleaned == "" {
		return s.root, nil
	}
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", types.Tag(types.KindIO, fmt.Errorf("path %q escapes store root", rel))
	}
	return filepath.Join(s.root, cleaned), nil
}

// Relativize turns an absolute path under the root into the
// forward-slash URI stored in catalog entries.
func (s *Store) Relativize(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// CopyInto copies src into the store at rel. When the destination
// already exists the name gets a numeric suffix before the extension.
// Concurrent copies into the same directory serialize on a per
// directory lock so two writers cannot claim the same name.
func (s *Store) CopyInto(src, rel string) (string, error) {
	dst, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("create %q: %w", dir, err))
	}

	lock := s.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	final := nextFreeName(dst)
	if err := copyFile(src, final); err != nil {
		return "", types.Tag(types.KindIO, err)
	}
	s.log.Debug("stored object", "path", s.Relativize(final))
	return final, nil
}

// Move relocates a file already under management to rel, creating
// parent directories and de-conflicting the name like CopyInto.
func (s *Store) Move(src, rel string) (string, error) {
	dst, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("create %q: %w", dir, err))
	}

	lock := s.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	final := nextFreeName(dst)
	if err := os.Rename(src, final); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if cErr := copyFile(src, final); cErr != nil {
			return "", types.Tag(types.KindIO, fmt.Errorf("move %q: %w", src, cErr))
		}
		if rmErr := os.Remove(src); rmErr != nil {
			s.log.Warn("source left behind after move", "path", src, "error", rmErr)
		}
	}
	return final, nil
}

// Tree renders the repository layout as an indented listing, the form
// the path planner receives as context.
func (s *Store) Tree() (string, error) {
	var lines []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, rErr := filepath.Rel(s.root, path)
		if rErr != nil {
			return rErr
		}
		depth := 0
		if rel != "." {
			depth = len(strings.Split(rel, string(filepath.Separator)))
		}
		indent := strings.Repeat("  ", depth)
		name := info.Name()
		if info.IsDir() {
			lines = append(lines, fmt.Sprintf("%s- %s/", indent, name))
		} else {
			lines = append(lines, fmt.Sprintf("%s- %s", indent, name))
		}
		return nil
	})
	if err != nil {
		return "", types.Tag(types.KindIO, fmt.Errorf("walk store root: %w", err))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Store) dirLock(dir string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[dir]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[dir] = l
	return l
}

// nextFreeName appends _1, _2, ... before the extension until the
// name is unused.
func nextFreeName(dst string) string {
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst
	}
	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(dst, ext)
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

// copyFile writes through a temp file in the destination directory and
// renames it into place, so a failed copy never leaves a partial file
// at the claimed name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", dst, err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("copy to %q: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("flush %q: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("finalize %q: %w", dst, err)
	}
	return nil
}
