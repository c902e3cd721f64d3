// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Repo is a scratch repository rooted at Dir.
type Repo struct {
	t   *testing.T
	Dir string
}

// RequireGit skips the test when no git executable is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

// New initialises an empty repository whose unborn HEAD points at branch.
func New(t *testing.T, branch string) *Repo {
	t.Helper()
	RequireGit(t)
	r := &Repo{t: t, Dir: t.TempDir()}
	r.Git("init", "-q")
	r.Git("symbolic-ref", "HEAD", "refs/heads/"+branch)
	return r
}

// Git runs git in the repository and returns its trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	full := append([]string{
		"-c", "user.name=gitversion",
		"-c", "user.email=gitversion@example.com",
		"-c", "commit.gpgsign=false",
		"-c", "tag.gpgsign=false",
	}, args...)
	c := exec.Command("git", full...)
	c.Dir = r.Dir
	c.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_TERMINAL_PROMPT=0")
	out, err := c.CombinedOutput()
	require.NoError(r.t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// Commit records an empty commit with the given message.
func (r *Repo) Commit(msg string) {
	r.t.Helper()
	r.Git("commit", "-q", "--allow-empty", "-m", msg)
}

// Commits records n empty commits named after prefix.
func (r *Repo) Commits(prefix string, n int) {
	r.t.Helper()
	for i := 0; i < n; i++ {
		r.Commit(prefix)
	}
}

// Tag creates a lightweight tag at HEAD.
func (r *Repo) Tag(name string) {
	r.t.Helper()
	r.Git("tag", name)
}

// Checkout switches to an existing or new branch.
func (r *Repo) Checkout(branch string, create bool) {
	r.t.Helper()
	if create {
		r.Git("checkout", "-q", "-b", branch)
		return
	}
	r.Git("checkout", "-q", branch)
}

// ShortHash returns git's abbreviated HEAD hash.
func (r *Repo) ShortHash() string {
	r.t.Helper()
	return r.Git("rev-parse", "--verify", "HEAD", "--short")
}
