// Package gitfeed reads advisory documents published in a git repository.
package gitfeed

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type AdvisoryEntry struct {
	Content io.ReadCloser
	Name    string
}

func GetRepo(remote, path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}

	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, err
	}

	repo, err = git.PlainClone(path, true, &git.CloneOptions{
		URL:      remote,
		Progress: nil,
	})

	return repo, err
}

func UpdateRepo(repo *git.Repository) error {
	err := repo.Fetch(&git.FetchOptions{
		RefSpecs: []config.RefSpec{config.RefSpec("+refs/heads/*:refs/heads/*")},
	})

	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// GetAdvisoryFiles returns the json files in the tree of HEAD. Callers must
// close the content of every entry.
func GetAdvisoryFiles(repo *git.Repository) ([]AdvisoryEntry, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("could not read HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("could not read commit object: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("could not read tree object: %w", err)
	}

	entries := []AdvisoryEntry{}
	err = tree.Files().ForEach(func(f *object.File) error {
		if filepath.Ext(f.Name) != ".json" {
			return nil
		}
		reader, err := f.Reader()
		if err != nil {
			return fmt.Errorf("could not create reader for %s: %w", f.Name, err)
		}
		entries = append(entries, AdvisoryEntry{Name: f.Name, Content: reader})
		return nil
	})
	if err != nil {
		for _, entry := range entries {
			entry.Content.Close()
		}
		return nil, err
	}

	return entries, nil
}
