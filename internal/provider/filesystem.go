package provider

import (
	"io"
	"iter"
	"os"
	"path/filepath"

	"reggie/internal/core/errors"
	"reggie/internal/core/ports"
)

const defaultReadDirBatch = 256

// Filesystem exposes a directory tree as a namespace: nodes are directories,
// the root id is a directory path, and child names are subdirectory names.
// Symbolic links are never followed, which keeps the tree acyclic.
type Filesystem struct {
	batch int
}

func NewFilesystem() *Filesystem {
	return &Filesystem{batch: defaultReadDirBatch}
}

type dirHandle struct {
	path string
}

func (dirHandle) Close() error { return nil }

func (f *Filesystem) OpenRoot(rootID string) (ports.Handle, error) {
	if err := checkDir(rootID); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeRootUnavailable, "open root directory"), errors.CtxRoot, rootID)
	}
	return dirHandle{path: rootID}, nil
}

// Children reads directory entries in batches so huge directories are never
// held in memory at once.
func (f *Filesystem) Children(node ports.Handle) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		h, ok := node.(dirHandle)
		if !ok {
			yield("", errors.New(errors.CodeInternal, "foreign handle"))
			return
		}
		dir, err := os.Open(h.path)
		if err != nil {
			yield("", errors.Wrap(err, errors.CodeEnumeration, "open directory"))
			return
		}
		defer dir.Close()

		for {
			entries, err := dir.ReadDir(f.batch)
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				if !yield(e.Name(), nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", errors.Wrap(err, errors.CodeEnumeration, "read directory"))
				return
			}
		}
	}
}

func (f *Filesystem) OpenChild(node ports.Handle, name string) (ports.Handle, error) {
	h, ok := node.(dirHandle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "foreign handle")
	}
	path := filepath.Join(h.path, name)
	info, err := os.Lstat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeChildUnavailable, "stat child")
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeChildUnavailable, "not a directory"), errors.CtxChild, name)
	}
	if err := checkDir(path); err != nil {
		return nil, errors.Wrap(err, errors.CodeChildUnavailable, "open child directory")
	}
	return dirHandle{path: path}, nil
}

// checkDir verifies path is a directory we may list.
func checkDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()
	info, err := dir.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(errors.CodeValidationError, path+" is not a directory")
	}
	return nil
}
