// Package vcs reads git metadata for Repository nodes.
package vcs

import (
	"errors"

	git "github.com/go-git/go-git/v5"
)

// Info is the git metadata attached to a Repository node.
type Info struct {
	Commit string // head commit hash
	Origin string // origin remote URL
}

// Inspect returns the head commit and origin URL when path is a git work
// tree. Non-repositories return nil with no error; a repository without
// commits or without an origin remote leaves the matching field empty.
func Inspect(path string) (*Info, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, err
	}

	info := &Info{}
	if head, err := repo.Head(); err == nil {
		info.Commit = head.Hash().String()
	}
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.Origin = urls[0]
		}
	}
	return info, nil
}
