package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudbees-io/gitversion/internal/core"
	"gopkg.in/alessio/shellescape.v1"
)

// GitCLI maintains a context for interacting with the Git command line executable.
type GitCLI struct {
	ctx   context.Context
	exe   string
	env   map[string]string
	cwd   string
	quiet bool
}

// NewGitCLI creates a new GitCLI instance
func NewGitCLI(ctx context.Context) (*GitCLI, error) {
	exe, err := exec.LookPath("git")
	if err != nil && !errors.Is(err, exec.ErrDot) {
		return nil, err
	} else if errors.Is(err, exec.ErrDot) {
		if exe, err = filepath.Abs(exe); err != nil {
			return nil, err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	env := os.Environ()
	return &GitCLI{ctx: ctx, exe: exe, env: envEntriesToMap(env), cwd: cwd}, nil
}

// SetCwd sets the current working directory used by the GitCLI
func (g *GitCLI) SetCwd(cwd string) {
	g.cwd = cwd
}

// SetQuiet stops git's stderr from being forwarded to the process stderr.
func (g *GitCLI) SetQuiet(quiet bool) {
	g.quiet = quiet
}

// Cwd returns the current working directory used by the GitCLI
func (g *GitCLI) Cwd() string {
	return g.cwd
}

// commandLine renders args the way a user would type them, for debug output.
func commandLine(args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "git")
	for _, a := range args {
		quoted = append(quoted, shellescape.Quote(a))
	}
	return strings.Join(quoted, " ")
}

func (g *GitCLI) runOutput(args ...string) (string, error) {
	c := exec.CommandContext(g.ctx, g.exe, args...)
	c.Dir = g.cwd
	c.Env = envMapToEntries(g.env)

	core.Debug("%s", commandLine(args))

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()
	if e := (&exec.ExitError{}); err != nil && errors.As(err, &e) {
		core.Debug("git exited with status %d", e.ExitCode())
		if !g.quiet && stderr.Len() > 0 {
			_, _ = os.Stderr.Write(stderr.Bytes())
		}
		return stdout.String(), fmt.Errorf("%s: %w", commandLine(args), err)
	} else if err != nil {
		core.Debug("git could not be started")
		return stdout.String(), fmt.Errorf("%s: %w", commandLine(args), err)
	}

	return stdout.String(), nil
}

// runLines runs git and returns its trimmed stdout split into lines.
// Empty output yields an empty slice.
func (g *GitCLI) runLines(args ...string) ([]string, error) {
	output, err := g.runOutput(args...)
	if err != nil {
		return nil, err
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n"), nil
}

// firstLine runs git and returns the first line of its trimmed stdout.
func (g *GitCLI) firstLine(args ...string) (string, error) {
	lines, err := g.runLines(args...)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s: no output", commandLine(args))
	}
	return lines[0], nil
}

// SymbolicRef returns the short name of the branch HEAD points to.
// It fails when HEAD is detached.
func (g *GitCLI) SymbolicRef() (string, error) {
	return g.firstLine("symbolic-ref", "--short", "HEAD")
}

// DescribeTags returns the nearest tag description of HEAD, e.g. v1.2.0-3-gabc1234.
func (g *GitCLI) DescribeTags() (string, error) {
	return g.firstLine("describe", "--tags")
}

// TagsMerged returns the tags reachable from ref, in the order git reports them.
func (g *GitCLI) TagsMerged(ref string) ([]string, error) {
	return g.runLines("tag", "--merged", ref)
}

// TagExists returns true when at least one tag matches pattern.
func (g *GitCLI) TagExists(pattern string) (bool, error) {
	lines, err := g.runLines("tag", "-l", pattern)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}

// ShowRef returns the object name the given ref points to.
func (g *GitCLI) ShowRef(ref string) (string, error) {
	return g.firstLine("show-ref", "-s", ref)
}

// RevListCount counts the commits reachable from HEAD. When exclude is not empty,
// commits reachable from exclude are not counted.
func (g *GitCLI) RevListCount(exclude string) (int, error) {
	args := []string{"rev-list", "--count", "HEAD"}
	if exclude != "" {
		args = append(args, "^"+exclude)
	}
	out, err := g.firstLine(args...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected commit count %q: %w", out, err)
	}
	return n, nil
}

// ShortHash returns the abbreviated object name of HEAD.
func (g *GitCLI) ShortHash() (string, error) {
	return g.firstLine("rev-parse", "--verify", "HEAD", "--short")
}

// Log returns the raw commit message lines for the given revision range.
func (g *GitCLI) Log(revisionRange string) ([]string, error) {
	return g.runLines("log", "--pretty=%B", revisionRange)
}
