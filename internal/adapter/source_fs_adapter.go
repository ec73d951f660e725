// Package adapter contains the infrastructure adapters for the taptree CLI.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
)

// ErrNoInput is returned when no protocol stream could be found for the
// requested paths.
var ErrNoInput = errors.New("no input")

// recursiveSuffix marks a directory pattern that descends into sub-dirs.
const recursiveSuffix = "/..."

// DefaultExtensions are the file extensions picked up when a directory is
// expanded.
var DefaultExtensions = []string{".tap"}

// SourceFSAdapter abstracts the filesystem operations the workflow relies
// on, so it can be tested without touching the disk.
type SourceFSAdapter interface {
	// Expand resolves paths and directory patterns into the list of
	// protocol streams to read. Stdin is passed through.
	Expand(paths []m.Path) ([]m.Path, error)

	// Open opens a protocol stream. Stdin opens standard input.
	Open(path m.Path) (io.ReadCloser, error)

	// ReadFile loads a file, used to render source excerpts.
	ReadFile(path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter backs SourceFSAdapter with the local filesystem.
type LocalSourceFSAdapter struct {
	stdin      io.Reader
	extensions []string
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter reading Stdin
// from stdin.
func NewLocalSourceFSAdapter(stdin io.Reader) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{stdin: stdin, extensions: DefaultExtensions}
}

// Expand resolves each path. A file is used as is; a directory contributes
// its protocol files, and a "dir/..." pattern descends into sub-directories.
// The result is sorted per argument and never empty on success.
func (a *LocalSourceFSAdapter) Expand(paths []m.Path) ([]m.Path, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	var out []m.Path

	for _, p := range paths {
		if p == m.Stdin {
			out = append(out, p)
			continue
		}

		root := string(p)
		recursive := false

		if trimmed, ok := strings.CutSuffix(root, recursiveSuffix); ok {
			root, recursive = trimmed, true
			if root == "" {
				root = "."
			}
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			out = append(out, m.Path(root))
			continue
		}

		found, err := a.collect(m.Path(root), recursive)
		if err != nil {
			return nil, err
		}

		out = append(out, found...)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%v: %w", paths, ErrNoInput)
	}

	return out, nil
}

func (a *LocalSourceFSAdapter) collect(root m.Path, recursive bool) ([]m.Path, error) {
	var found []m.Path

	err := a.Walk(root, recursive, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && a.matches(path) {
			found = append(found, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })

	return found, nil
}

func (a *LocalSourceFSAdapter) matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range a.extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Walk iterates over files under root, optionally descending into
// subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && path != rootStr {
			base := filepath.Base(path)
			if !recursive || base == ".git" || base == "node_modules" {
				return filepath.SkipDir
			}
		}

		return fn(path, info, nil)
	})
}

// Open opens the stream at path.
func (a *LocalSourceFSAdapter) Open(path m.Path) (io.ReadCloser, error) {
	if path == m.Stdin {
		if a.stdin == nil {
			return nil, fmt.Errorf("stdin: %w", ErrNoInput)
		}

		return io.NopCloser(a.stdin), nil
	}

	// #nosec G304 - reading the user's own protocol files is the point
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	return f, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}
