// Package outfile places generated files on disk. A file is written to a
// temp sibling first and renamed over its destination, so readers see either
// the old content or the new content. A Batch extends this to a set of files.
package outfile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// swapped in tests
var rename = os.Rename

// Write replaces path with data.
func Write(path string, data []byte, perm os.FileMode) error {
	tmp, err := stage(path, data, perm)
	if err != nil {
		return err
	}
	if err := rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", filepath.Base(path))
	}
	return nil
}

func stage(path string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(perm)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrapf(err, "write temp file for %s", filepath.Base(path))
	}
	return tmp, nil
}

type entry struct {
	path string
	data []byte
	perm os.FileMode
}

// Batch is a set of files committed together.
type Batch struct {
	entries []entry
}

func (b *Batch) Add(path string, data []byte, perm os.FileMode) {
	b.entries = append(b.entries, entry{path: path, data: data, perm: perm})
}

func (b *Batch) Len() int { return len(b.entries) }

type prior struct {
	data   []byte
	exists bool
}

// Commit stages every file and then renames them into place. If staging
// fails or ctx is done, no destination is touched. If a rename fails, the
// files already moved get their previous content back, or are removed when
// they did not exist before. Temp files never outlive Commit.
func (b *Batch) Commit(ctx context.Context) error {
	staged := make([]string, len(b.entries))
	discard := func() {
		for _, tmp := range staged {
			if tmp != "" {
				_ = os.Remove(tmp)
			}
		}
	}

	for i, e := range b.entries {
		if err := ctx.Err(); err != nil {
			discard()
			return err
		}
		tmp, err := stage(e.path, e.data, e.perm)
		if err != nil {
			discard()
			return err
		}
		staged[i] = tmp
	}

	priors := make([]prior, len(b.entries))
	for i, e := range b.entries {
		data, err := os.ReadFile(e.path)
		switch {
		case err == nil:
			priors[i] = prior{data: data, exists: true}
		case errors.Is(err, fs.ErrNotExist):
		default:
			discard()
			return errors.Wrapf(err, "read %s", filepath.Base(e.path))
		}
	}

	for i, e := range b.entries {
		if err := rename(staged[i], e.path); err != nil {
			discard()
			err = errors.Wrapf(err, "rename %s", filepath.Base(e.path))
			if rerr := b.restore(i, priors); rerr != nil {
				err = errors.WithSecondaryError(err, rerr)
			}
			return err
		}
		staged[i] = ""
	}
	return nil
}

// restore undoes the first n renames.
func (b *Batch) restore(n int, priors []prior) error {
	var errs error
	for i := 0; i < n; i++ {
		e := b.entries[i]
		var err error
		if priors[i].exists {
			err = os.WriteFile(e.path, priors[i].data, e.perm)
		} else {
			err = os.Remove(e.path)
		}
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "restore %s", filepath.Base(e.path)))
		}
	}
	return errs
}
