// Package gitrepo prepares a local repository working tree at a requested branch or commit.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/temirov/digest/internal/utils"
)

const (
	defaultRemoteName = "origin"

	errorOpenRepositoryFormat = "opening repository %s: %w"
	errorWorktreeFormat       = "opening worktree of %s: %w"
	errorCheckoutBranchFormat = "checking out branch %s: %w"
	errorCheckoutCommitFormat = "checking out commit %s: %w"
	errorResolveCommitFormat  = "resolving commit %s: %w"
	errorBranchNotFoundFormat = "branch %s: %w"

	logMessageCheckedOutBranch = "checked out branch"
	logMessageCheckedOutCommit = "checked out commit"
	logFieldRepository         = "repository"
	logFieldBranch             = "branch"
	logFieldCommit             = "commit"
)

var (
	// ErrNotRepository reports a checkout request for a directory without a .git entry.
	ErrNotRepository = errors.New("cannot checkout branch/commit: not a git repository")
	// ErrReferenceNotFound reports a branch that exists neither locally nor on origin.
	ErrReferenceNotFound = errors.New("reference not found")
)

// Service checks out branches and commits with go-git.
type Service struct {
	logger *zap.Logger
}

// NewService returns a Service logging through logger.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: utils.LoggerOrNop(logger)}
}

// Checkout force-checks-out branch and then commit in the repository at repositoryPath.
// A branch is looked up locally first and then as a remote branch of origin, in which case
// a local branch tracking the same commit is created. Either argument may be empty.
func (service *Service) Checkout(ctx context.Context, repositoryPath string, branch string, commit string) error {
	if contextError := ctx.Err(); contextError != nil {
		return contextError
	}
	if _, statError := os.Stat(filepath.Join(repositoryPath, utils.GitDirectoryName)); statError != nil {
		return fmt.Errorf("%s: %w", repositoryPath, ErrNotRepository)
	}
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return fmt.Errorf(errorOpenRepositoryFormat, repositoryPath, openError)
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(errorWorktreeFormat, repositoryPath, worktreeError)
	}

	if branch != "" {
		if branchError := checkoutBranch(repository, worktree, branch); branchError != nil {
			return branchError
		}
		service.logger.Debug(logMessageCheckedOutBranch, zap.String(logFieldRepository, repositoryPath), zap.String(logFieldBranch, branch))
	}
	if commit != "" {
		hash, resolveError := repository.ResolveRevision(plumbing.Revision(commit))
		if resolveError != nil {
			return fmt.Errorf(errorResolveCommitFormat, commit, resolveError)
		}
		if checkoutError := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); checkoutError != nil {
			return fmt.Errorf(errorCheckoutCommitFormat, commit, checkoutError)
		}
		service.logger.Debug(logMessageCheckedOutCommit, zap.String(logFieldRepository, repositoryPath), zap.String(logFieldCommit, hash.String()))
	}
	return nil
}

func checkoutBranch(repository *git.Repository, worktree *git.Worktree, branch string) error {
	localReferenceName := plumbing.NewBranchReferenceName(branch)
	if _, localError := repository.Reference(localReferenceName, true); localError == nil {
		if checkoutError := worktree.Checkout(&git.CheckoutOptions{Branch: localReferenceName, Force: true}); checkoutError != nil {
			return fmt.Errorf(errorCheckoutBranchFormat, branch, checkoutError)
		}
		return nil
	}

	remoteReference, remoteError := repository.Reference(plumbing.NewRemoteReferenceName(defaultRemoteName, branch), true)
	if remoteError != nil {
		return fmt.Errorf(errorBranchNotFoundFormat, branch, ErrReferenceNotFound)
	}
	checkoutError := worktree.Checkout(&git.CheckoutOptions{
		Hash:   remoteReference.Hash(),
		Branch: localReferenceName,
		Create: true,
		Force:  true,
	})
	if checkoutError != nil {
		return fmt.Errorf(errorCheckoutBranchFormat, branch, checkoutError)
	}
	return nil
}
