package version

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cloudbees-io/gitversion/internal/core"
	"github.com/cloudbees-io/gitversion/internal/git"
)

// Config carries the command line settings for one invocation.
type Config struct {
	Mainline   string
	Bump       string
	Constraint string
	Output     string
	Dir        string
	ConfigFile string
}

func (cfg *Config) validate() (Options, Format, error) {
	bump, err := ParseBump(cfg.Bump)
	if err != nil {
		return Options{}, "", err
	}
	format, err := ParseFormat(cfg.Output)
	if err != nil {
		return Options{}, "", err
	}
	core.Debug("mainline = %s", cfg.Mainline)
	core.Debug("bump = %s", bump)
	core.Debug("constraint = %s", cfg.Constraint)
	core.Debug("output = %s", format)
	return Options{Mainline: cfg.Mainline, Bump: bump, Constraint: cfg.Constraint}, format, nil
}

func (cfg *Config) newResolver(ctx context.Context, opts Options) (*Resolver, error) {
	cli, err := git.NewGitCLI(ctx)
	if err != nil {
		return nil, fmt.Errorf("locating git: %w", err)
	}
	if cfg.Dir != "" {
		dir, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, err
		}
		cli.SetCwd(dir)
	}
	core.Debug("working directory = %s", cli.Cwd())
	return NewResolver(cli, opts)
}

// Run resolves the previous and next versions and writes them to w.
func (cfg *Config) Run(ctx context.Context, w io.Writer) error {
	opts, format, err := cfg.validate()
	if err != nil {
		return err
	}
	r, err := cfg.newResolver(ctx, opts)
	if err != nil {
		return err
	}
	res, err := r.Resolve()
	if err != nil {
		return err
	}
	return res.Write(w, format)
}

// Commits writes the commit message lines since tag to w. When tag is empty the
// previous release tag of the current branch is used.
func (cfg *Config) Commits(ctx context.Context, w io.Writer, tag string) error {
	opts, _, err := cfg.validate()
	if err != nil {
		return err
	}
	r, err := cfg.newResolver(ctx, opts)
	if err != nil {
		return err
	}
	if tag == "" {
		if tag, _, err = r.PreviousTagAndVersion(); err != nil {
			return err
		}
	}
	core.Debug("listing commits since %q", tag)
	for _, line := range r.CommitsSince(tag) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
