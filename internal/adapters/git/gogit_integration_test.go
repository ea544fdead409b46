// Package git provides adapters for interacting with local Git repositories.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/icdump-build/internal/adapters/process"
	"github.com/MyCarrier-DevOps/icdump-build/internal/domain"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// setupTestRepo creates a temporary git repository on branch main with one commit.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()

	runGit(t, dir, "init")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	runGit(t, dir, "config", "tag.gpgsign", "false")

	commitFile(t, dir, "CMakeLists.txt", "project(icdump)\n", "Initial commit")

	return dir
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

// getGitOutput executes a git command and returns its trimmed output.
func getGitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(output))
}

// commitFile writes a file and commits it.
func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", msg)
}

func openRepo(t *testing.T, dir string) *GoGitRepository {
	t.Helper()
	repo, err := NewGoGitRepository(dir, &testLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewGoGitRepository_NotARepository(t *testing.T) {
	repo, err := NewGoGitRepository(t.TempDir(), &testLogger{})

	require.Error(t, err)
	assert.Nil(t, repo)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestGoGitRepository_CurrentBranch(t *testing.T) {
	dir := setupTestRepo(t)
	repo := openRepo(t, dir)

	branch, err := repo.CurrentBranch(testContext(t))

	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestGoGitRepository_CurrentBranch_Release(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "checkout", "-b", "release-2.0.1")
	repo := openRepo(t, dir)

	branch, err := repo.CurrentBranch(testContext(t))

	require.NoError(t, err)
	assert.Equal(t, "release-2.0.1", branch)
}

func TestGoGitRepository_CurrentBranch_Detached(t *testing.T) {
	dir := setupTestRepo(t)
	commitFile(t, dir, "README", "second\n", "Second commit")
	runGit(t, dir, "checkout", "--detach", "HEAD~1")
	repo := openRepo(t, dir)

	branch, err := repo.CurrentBranch(testContext(t))

	require.NoError(t, err)
	assert.Equal(t, DetachedHead, branch)
}

func TestGoGitRepository_Describe_NoTags(t *testing.T) {
	dir := setupTestRepo(t)
	repo := openRepo(t, dir)

	_, err := repo.Describe(testContext(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTags)
}

func TestGoGitRepository_Describe_ExactTag(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "tag", "1.2.0")
	head := getGitOutput(t, dir, "rev-parse", "--short=7", "HEAD")
	repo := openRepo(t, dir)
	ctx := testContext(t)

	out, err := repo.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0-0-g"+head, out)

	tags, err := repo.TagsAtHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0"}, tags)
}

func TestGoGitRepository_Describe_DistanceAndDirty(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "tag", "-a", "1.2.0", "-m", "Release 1.2.0")
	for i := range 5 {
		commitFile(t, dir, "src.cpp", strings.Repeat("x", i+1), "Change")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src.cpp"), []byte("uncommitted"), 0o644))
	repo := openRepo(t, dir)
	ctx := testContext(t)

	out, err := repo.Describe(ctx)
	require.NoError(t, err)

	desc, err := domain.ParseDescribe(out)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", desc.Tag)
	assert.Equal(t, 5, desc.Count)
	assert.True(t, desc.Dirty)
	assert.Len(t, desc.ShortHash, shortHashLen)

	tags, err := repo.TagsAtHead(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestGoGitRepository_Describe_UntrackedFilesAreClean(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "tag", "1.2.0")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("tmp"), 0o644))
	repo := openRepo(t, dir)

	out, err := repo.Describe(testContext(t))

	require.NoError(t, err)
	assert.NotContains(t, out, "-dirty")
}

func TestGoGitRepository_Describe_HighestTagOnCommit(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "tag", "1.9.0")
	runGit(t, dir, "tag", "1.10.0")
	repo := openRepo(t, dir)
	ctx := testContext(t)

	out, err := repo.Describe(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1.10.0-0-g"), out)

	tags, err := repo.TagsAtHead(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.9.0", "1.10.0"}, tags)
}

// TestRepositories_Agree checks that the go-git and git binary adapters
// report the same state for the same repository.
func TestRepositories_Agree(t *testing.T) {
	dir := setupTestRepo(t)
	runGit(t, dir, "tag", "-a", "0.9.0", "-m", "Release 0.9.0")
	commitFile(t, dir, "a.cpp", "a", "Commit A")
	commitFile(t, dir, "b.cpp", "b", "Commit B")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cpp"), []byte("edited"), 0o644))

	ctx := testContext(t)
	native := openRepo(t, dir)
	cli, err := NewCLIRepository(afero.NewOsFs(), process.NewExecRunner(), dir, &testLogger{})
	require.NoError(t, err)

	nativeDescribe, err := native.Describe(ctx)
	require.NoError(t, err)
	cliDescribe, err := cli.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, cliDescribe, nativeDescribe)

	nativeBranch, err := native.CurrentBranch(ctx)
	require.NoError(t, err)
	cliBranch, err := cli.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, cliBranch, nativeBranch)

	nativeTags, err := native.TagsAtHead(ctx)
	require.NoError(t, err)
	cliTags, err := cli.TagsAtHead(ctx)
	require.NoError(t, err)
	assert.Empty(t, nativeTags)
	assert.Empty(t, cliTags)
}
