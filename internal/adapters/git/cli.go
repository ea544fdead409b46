package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// GitTool is the git executable used by CLIRepository.
const GitTool = "git"

// CLIRepository implements domain.VersionControl by running the git binary
// through a domain.ProcessRunner.
type CLIRepository struct {
	runner domain.ProcessRunner
	path   string
	logger Logger
}

// NewCLIRepository creates a CLIRepository for path.
// Returns domain.ErrRepositoryNotFound if path has no .git entry.
func NewCLIRepository(fs afero.Fs, runner domain.ProcessRunner, path string, log Logger) (*CLIRepository, error) {
	exists, err := afero.Exists(fs, filepath.Join(path, ".git"))
	if err != nil || !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &CLIRepository{
		runner: runner,
		path:   path,
		logger: log,
	}, nil
}

// Describe runs `git describe --tags --long --dirty`.
func (r *CLIRepository) Describe(ctx context.Context) (string, error) {
	return r.git(ctx, "describe", "--tags", "--long", "--dirty")
}

// CurrentBranch runs `git rev-parse --abbrev-ref HEAD`.
func (r *CLIRepository) CurrentBranch(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// TagsAtHead runs `git tag --list --points-at=HEAD`.
func (r *CLIRepository) TagsAtHead(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "tag", "--list", "--points-at=HEAD")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Close implements the repository lifecycle; there is nothing to release.
func (r *CLIRepository) Close() error {
	return nil
}

// git runs one read-only query and returns its trimmed stdout.
func (r *CLIRepository) git(ctx context.Context, args ...string) (string, error) {
	res, err := r.runner.Run(ctx, domain.Command{
		Name: GitTool,
		Args: args,
		Dir:  r.path,
	})
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	if res.ExitCode != 0 {
		r.logger.Debug(ctx, "git query failed", map[string]interface{}{
			"args":      strings.Join(args, " "),
			"exit_code": res.ExitCode,
			"stderr":    strings.TrimSpace(res.Stderr),
		})
		return "", fmt.Errorf("git %s exited with code %d: %s", args[0], res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}
