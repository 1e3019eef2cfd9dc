package gitops

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CloneStatus is the state of a working tree
type CloneStatus struct {
	Branch   string `json:"branch"`
	Detached bool   `json:"detached,omitempty"`
	Dirty    bool   `json:"dirty"`
}

// Status returns the checked out branch and whether the worktree has
// uncommitted changes. Untracked files count as changes.
func Status(dir string) (CloneStatus, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return CloneStatus{}, fmt.Errorf("opening repository: %w", err)
	}

	var st CloneStatus
	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn branch, read it from HEAD itself
		ref, err := repo.Storer.Reference(plumbing.HEAD)
		if err != nil {
			return CloneStatus{}, fmt.Errorf("getting HEAD: %w", err)
		}
		st.Branch = ref.Target().Short()
	case err != nil:
		return CloneStatus{}, fmt.Errorf("getting HEAD: %w", err)
	case head.Name().IsBranch():
		st.Branch = head.Name().Short()
	default:
		st.Branch = head.Hash().String()[:7]
		st.Detached = true
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CloneStatus{}, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return CloneStatus{}, fmt.Errorf("getting worktree status: %w", err)
	}
	st.Dirty = !status.IsClean()

	return st, nil
}
