// Package git provides adapters for interacting with local Git repositories.
// GoGitRepository implements domain.VersionControl natively with go-git/v5;
// CLIRepository does the same by running the git binary.
package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"golang.org/x/mod/semver"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// DetachedHead is reported as the branch name when HEAD is not on a branch,
// matching `git rev-parse --abbrev-ref HEAD`.
const DetachedHead = "HEAD"

// shortHashLen is the abbreviated hash length used in describe output.
const shortHashLen = 7

// ErrNoTags indicates no tag is reachable from HEAD.
var ErrNoTags = errors.New("no names found, cannot describe anything")

// Logger defines the logging interface for the git adapters.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitRepository implements domain.VersionControl using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	logger Logger
}

// NewGoGitRepository opens the repository at path.
// Returns domain.ErrRepositoryNotFound if the path is not a valid Git repository.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// CurrentBranch returns the short branch name, or DetachedHead.
func (r *GoGitRepository) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		r.logger.Debug(ctx, "HEAD is detached", map[string]interface{}{
			"head_sha": head.Hash().String(),
			"path":     r.path,
		})
		return DetachedHead, nil
	}
	return head.Name().Short(), nil
}

// TagsAtHead returns the names of the tags pointing at HEAD, sorted.
func (r *GoGitRepository) TagsAtHead(_ context.Context) ([]string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	tags, err := r.tagsByCommit()
	if err != nil {
		return nil, err
	}

	names := tags[head.Hash()]
	sort.Strings(names)
	return names, nil
}

// Describe walks the ancestry of HEAD, newest commit first, to the nearest
// tagged commit and reports it in `git describe --tags --long --dirty` form.
// Commits are visited in commit-time order, so in merge-heavy histories the
// chosen tag can differ from git's own describe; use CLIRepository when exact
// parity matters.
func (r *GoGitRepository) Describe(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	tags, err := r.tagsByCommit()
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", ErrNoTags
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}

	var (
		tag   string
		count int
	)
	iter := object.NewCommitIterCTime(commit, nil, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if names, ok := tags[c.Hash]; ok {
			tag = highestTag(names)
			return storer.ErrStop
		}
		count++
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return "", fmt.Errorf("failed to walk commit history: %w", err)
	}
	if tag == "" {
		return "", ErrNoTags
	}

	dirty, err := r.isDirty()
	if err != nil {
		return "", err
	}

	desc := domain.VersionDescriptor{
		Tag:       tag,
		Count:     count,
		ShortHash: head.Hash().String()[:shortHashLen],
		Dirty:     dirty,
	}

	r.logger.Debug(ctx, "described HEAD", map[string]interface{}{
		"tag":   desc.Tag,
		"count": desc.Count,
		"dirty": desc.Dirty,
		"path":  r.path,
	})

	return domain.FormatDescribe(desc), nil
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}

// tagsByCommit maps commit hashes to the tags pointing at them.
// Annotated tags are peeled to their target commit.
func (r *GoGitRepository) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()

		tagObj, err := r.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			c, err := tagObj.Commit()
			if err != nil {
				// Tags of trees or blobs cannot describe a commit.
				return nil
			}
			target = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}

		tags[target] = append(tags[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	return tags, nil
}

// isDirty reports tracked modifications; untracked files do not make the tree dirty.
func (r *GoGitRepository) isDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}

	for _, s := range status {
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// highestTag picks the highest semantic version among tags on the same commit,
// falling back to the last name in lexical order.
func highestTag(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		if c := semver.Compare(canonical(sorted[i]), canonical(sorted[j])); c != 0 {
			return c < 0
		}
		return sorted[i] < sorted[j]
	})
	return sorted[len(sorted)-1]
}

// canonical adds the "v" prefix x/mod/semver requires.
func canonical(tag string) string {
	if len(tag) > 0 && tag[0] == 'v' {
		return tag
	}
	return "v" + tag
}
