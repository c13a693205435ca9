// Package provenance describes the generator checkout that produced a set of
// artifacts, for the banner at the top of every generated file.
package provenance

import (
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
)

const shortHashLen = 7

// Info is the state of the repository containing the generator.
type Info struct {
	// Commit is the abbreviated HEAD hash.
	Commit string
	// Dirty reports uncommitted changes in the worktree.
	Dirty bool
}

// String renders the info the way the banner shows it, e.g.
// "3f2c1ab + local changes". The zero Info renders as "".
func (i Info) String() string {
	if i.Commit == "" {
		return ""
	}
	if i.Dirty {
		return i.Commit + " + local changes"
	}
	return i.Commit
}

// Detect opens the repository containing dir, walking up to find .git.
func Detect(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, errors.Wrapf(err, "open repository at %s", dir)
	}
	head, err := repo.Head()
	if err != nil {
		return Info{}, errors.Wrap(err, "resolve HEAD")
	}
	hash := head.Hash().String()
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}

	info := Info{Commit: hash}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repository: nothing can be dirty
		if errors.Is(err, git.ErrIsBareRepository) {
			return info, nil
		}
		return Info{}, errors.Wrap(err, "open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return Info{}, errors.Wrap(err, "worktree status")
	}
	info.Dirty = !status.IsClean()
	return info, nil
}

// Describe is Detect for callers that treat a missing repository as "no
// provenance". The error is returned for logging only.
func Describe(dir string) (string, error) {
	info, err := Detect(dir)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}
