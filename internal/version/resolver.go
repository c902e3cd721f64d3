// Package version derives semantic versions from the tags and commit position
// of a git checkout.
package version

import (
	"fmt"
	"strings"

	msemver "github.com/Masterminds/semver/v3"
	"github.com/blang/semver/v4"

	"github.com/cloudbees-io/gitversion/internal/core"
)

// DefaultMainline is the branch whose builds carry no prerelease suffix.
const DefaultMainline = "main"

const (
	maxBranchIdentifier = 20
	minHashLength       = 7
	unnamedBranch       = "unnamed"
)

// BaseVersion is the floor used when no release tag is reachable.
var BaseVersion = semver.MustParse("0.0.0")

// Repository is the subset of git queries the resolver depends on.
// *git.GitCLI satisfies it.
type Repository interface {
	SymbolicRef() (string, error)
	DescribeTags() (string, error)
	TagsMerged(ref string) ([]string, error)
	TagExists(pattern string) (bool, error)
	ShowRef(ref string) (string, error)
	RevListCount(exclude string) (int, error)
	ShortHash() (string, error)
	Log(revisionRange string) ([]string, error)
}

// Options tune how versions are derived.
type Options struct {
	// Mainline is the branch name that produces plain release versions.
	Mainline string
	// Bump selects the component incremented on top of the previous release.
	Bump Bump
	// Constraint optionally restricts which release tags are considered, e.g. ">= 1.0, < 2.0".
	Constraint string
}

// Resolver computes previous and next versions from a Repository.
type Resolver struct {
	repo       Repository
	mainline   string
	bump       Bump
	constraint *msemver.Constraints
}

// Result is everything one resolution pass found out.
type Result struct {
	Branch      string `json:"branch" yaml:"branch"`
	PreviousTag string `json:"previousTag,omitempty" yaml:"previousTag,omitempty"`
	Previous    string `json:"previous" yaml:"previous"`
	Next        string `json:"next" yaml:"next"`
	Mainline    bool   `json:"mainline" yaml:"mainline"`
	Distance    int    `json:"distance,omitempty" yaml:"distance,omitempty"`
	Hash        string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// NewResolver validates opts and returns a Resolver backed by repo.
func NewResolver(repo Repository, opts Options) (*Resolver, error) {
	r := &Resolver{
		repo:     repo,
		mainline: opts.Mainline,
		bump:     opts.Bump,
	}
	if r.mainline == "" {
		r.mainline = DefaultMainline
	}
	if r.bump == "" {
		r.bump = BumpPatch
	}
	if _, err := ParseBump(string(r.bump)); err != nil {
		return nil, err
	}
	if opts.Constraint != "" {
		c, err := msemver.NewConstraint(opts.Constraint)
		if err != nil {
			return nil, fmt.Errorf("invalid version constraint %q: %w", opts.Constraint, err)
		}
		r.constraint = c
	}
	return r, nil
}

// CurrentBranchOrTag returns the checked out branch, or the nearest tag
// description when HEAD is detached.
func (r *Resolver) CurrentBranchOrTag() (string, error) {
	branch, err := r.repo.SymbolicRef()
	if err == nil {
		return branch, nil
	}
	core.Debug("HEAD is not a branch, falling back to tag description: %v", err)
	desc, err := r.repo.DescribeTags()
	if err != nil {
		return "", fmt.Errorf("cannot determine current branch or tag: %w", err)
	}
	return desc, nil
}

// TagsByBranch returns the tags merged into branch. Lookup failures yield no tags.
func (r *Resolver) TagsByBranch(branch string) []string {
	tags, err := r.repo.TagsMerged(branch)
	if err != nil {
		core.Debug("no tags merged into %s: %v", branch, err)
		return nil
	}
	return tags
}

// CommitsDistance counts commits on HEAD that are not reachable from tag.
// An empty tag counts every commit reachable from HEAD.
func (r *Resolver) CommitsDistance(tag string) (int, error) {
	return r.repo.RevListCount(tag)
}

// CurrentCommitHash returns the abbreviated HEAD hash, zero padded to 7 characters.
func (r *Resolver) CurrentCommitHash() (string, error) {
	hash, err := r.repo.ShortHash()
	if err != nil {
		return "", err
	}
	if n := minHashLength - len(hash); n > 0 {
		hash = strings.Repeat("0", n) + hash
	}
	return hash, nil
}

// PreviousTagAndVersion returns the highest release tag merged into the
// current branch and its version. The tag is empty when nothing beat BaseVersion.
func (r *Resolver) PreviousTagAndVersion() (string, semver.Version, error) {
	branch, err := r.CurrentBranchOrTag()
	if err != nil {
		return "", BaseVersion, err
	}
	tag, v := r.previous(branch)
	return tag, v, nil
}

func (r *Resolver) previous(branch string) (string, semver.Version) {
	previousTag := ""
	previous := BaseVersion

	for _, tag := range r.TagsByBranch(branch) {
		v, err := semver.Parse(strings.TrimLeft(tag, "v"))
		if err != nil {
			core.Debug("ignoring tag %s: %v", tag, err)
			continue
		}
		if len(v.Pre) > 0 {
			core.Debug("ignoring prerelease tag %s", tag)
			continue
		}
		if !r.allowed(v) {
			core.Debug("ignoring tag %s: outside constraint", tag)
			continue
		}
		if v.GT(previous) {
			previous = v
			previousTag = tag
		}
	}

	return previousTag, previous
}

func (r *Resolver) allowed(v semver.Version) bool {
	if r.constraint == nil {
		return true
	}
	mv, err := msemver.NewVersion(v.String())
	if err != nil {
		return false
	}
	return r.constraint.Check(mv)
}

// Resolve runs every query once and returns the previous and next versions.
func (r *Resolver) Resolve() (*Result, error) {
	branch, err := r.CurrentBranchOrTag()
	if err != nil {
		return nil, err
	}

	previousTag, previous := r.previous(branch)
	next := r.bump.Apply(previous)

	res := &Result{
		Branch:      branch,
		PreviousTag: previousTag,
		Previous:    previous.String(),
		Mainline:    branch == r.mainline,
	}

	if !res.Mainline {
		distance, err := r.CommitsDistance(previousTag)
		if err != nil {
			return nil, fmt.Errorf("counting commits since %q: %w", previousTag, err)
		}
		hash, err := r.CurrentCommitHash()
		if err != nil {
			return nil, fmt.Errorf("reading HEAD commit: %w", err)
		}
		next.Pre = []semver.PRVersion{
			{VersionStr: SanitizeBranch(branch)},
			{VersionNum: uint64(distance), IsNum: true},
			{VersionStr: hash},
		}
		res.Distance = distance
		res.Hash = hash
	}

	res.Next = next.String()
	core.Debug("branch %s: previous %s (tag %q), next %s", branch, res.Previous, previousTag, res.Next)
	return res, nil
}

// NewVersion returns the version the current checkout should be built as.
func (r *Resolver) NewVersion() (string, error) {
	res, err := r.Resolve()
	if err != nil {
		return "", err
	}
	return res.Next, nil
}

// PreviousVersion returns the last released version reachable from the current branch.
func (r *Resolver) PreviousVersion() (string, error) {
	_, v, err := r.PreviousTagAndVersion()
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// CommitsSince returns the commit message lines added after tag, or the whole
// history of HEAD when tag is empty or unknown. Failures yield no lines.
func (r *Resolver) CommitsSince(tag string) []string {
	revisionRange := "HEAD"
	if tag != "" {
		exists, err := r.repo.TagExists(tag)
		if err != nil {
			core.Debug("cannot list tag %s: %v", tag, err)
			return nil
		}
		if exists {
			sha, err := r.repo.ShowRef(tag)
			if err != nil {
				core.Debug("cannot resolve tag %s: %v", tag, err)
				return nil
			}
			revisionRange = sha + "..HEAD"
		} else {
			core.Warning("tag %s not found, listing the whole history", tag)
		}
	}

	lines, err := r.repo.Log(revisionRange)
	if err != nil {
		core.Debug("no commits in %s: %v", revisionRange, err)
		return nil
	}
	return lines
}

// SanitizeBranch turns a branch name into a prerelease identifier: lowercase
// ASCII letters and digits only, at most 20 characters.
func SanitizeBranch(branch string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(branch) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			if b.Len() == maxBranchIdentifier {
				break
			}
		}
	}
	if b.Len() == 0 {
		return unnamedBranch
	}
	return b.String()
}
