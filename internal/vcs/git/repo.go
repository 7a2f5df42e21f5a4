package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/nbake/nbake/internal/vcs"
)

// Head returns the commit hash HEAD points to. A repository without commits
// yields an empty hash and no error.
func (g *Git) Head() (string, error) {
	repo, err := gogit.PlainOpen(g.dir)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%s: %w", g.dir, vcs.ErrNotInVCS)
		}
		return "", fmt.Errorf("failed to open repository %s: %w", g.dir, err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve HEAD in %s: %w", g.dir, err)
	}

	return ref.Hash().String(), nil
}
