package version

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNoRef = errors.New("fatal: ref HEAD is not a symbolic ref")

// fakeRepo answers git queries from canned data.
type fakeRepo struct {
	branch      string
	branchErr   error
	describe    string
	describeErr error
	tags        map[string][]string
	tagsErr     error
	distances   map[string]int
	distanceErr error
	hash        string
	hashErr     error
	refs        map[string]string
	logs        map[string][]string
	logErr      error

	distanceQueries []string
}

func (f *fakeRepo) SymbolicRef() (string, error) {
	return f.branch, f.branchErr
}

func (f *fakeRepo) DescribeTags() (string, error) {
	return f.describe, f.describeErr
}

func (f *fakeRepo) TagsMerged(ref string) ([]string, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}
	return f.tags[ref], nil
}

func (f *fakeRepo) TagExists(pattern string) (bool, error) {
	_, ok := f.refs[pattern]
	return ok, nil
}

func (f *fakeRepo) ShowRef(ref string) (string, error) {
	sha, ok := f.refs[ref]
	if !ok {
		return "", errors.New("not found")
	}
	return sha, nil
}

func (f *fakeRepo) RevListCount(exclude string) (int, error) {
	f.distanceQueries = append(f.distanceQueries, exclude)
	if f.distanceErr != nil {
		return 0, f.distanceErr
	}
	return f.distances[exclude], nil
}

func (f *fakeRepo) ShortHash() (string, error) {
	return f.hash, f.hashErr
}

func (f *fakeRepo) Log(revisionRange string) ([]string, error) {
	if f.logErr != nil {
		return nil, f.logErr
	}
	return f.logs[revisionRange], nil
}

func newTestResolver(t *testing.T, repo Repository, opts Options) *Resolver {
	t.Helper()
	r, err := NewResolver(repo, opts)
	require.NoError(t, err)
	return r
}

func TestResolver_PreviousTagAndVersion(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		opts    Options
		wantTag string
		want    string
	}{
		{
			name: "no tags",
			want: "0.0.0",
		},
		{
			name:    "highest release wins",
			tags:    []string{"v1.3.0", "v1.2.0", "v2.0.0-rc1"},
			wantTag: "v1.3.0",
			want:    "1.3.0",
		},
		{
			name:    "unparseable tags are ignored",
			tags:    []string{"latest", "release-a", "v1.2", "v0.9.1", "1.0"},
			wantTag: "v0.9.1",
			want:    "0.9.1",
		},
		{
			name: "only prereleases",
			tags: []string{"v1.0.0-alpha", "1.0.0-rc.1"},
			want: "0.0.0",
		},
		{
			name:    "tags without prefix and with repeated prefix",
			tags:    []string{"1.4.2", "vv1.4.3"},
			wantTag: "vv1.4.3",
			want:    "1.4.3",
		},
		{
			name:    "numeric ordering",
			tags:    []string{"v1.10.0", "v1.9.0", "v1.2.10"},
			wantTag: "v1.10.0",
			want:    "1.10.0",
		},
		{
			name:    "build metadata kept on previous",
			tags:    []string{"v2.1.0+build.7"},
			wantTag: "v2.1.0+build.7",
			want:    "2.1.0+build.7",
		},
		{
			name:    "first of equal versions wins",
			tags:    []string{"1.0.0", "v1.0.0"},
			wantTag: "1.0.0",
			want:    "1.0.0",
		},
		{
			name: "zero tag does not beat the floor",
			tags: []string{"v0.0.0"},
			want: "0.0.0",
		},
		{
			name:    "constraint limits the release line",
			tags:    []string{"v1.2.0", "v1.5.3", "v2.0.0"},
			opts:    Options{Constraint: "< 2.0.0"},
			wantTag: "v1.5.3",
			want:    "1.5.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{branch: "main", tags: map[string][]string{"main": tt.tags}}
			r := newTestResolver(t, repo, tt.opts)

			tag, v, err := r.PreviousTagAndVersion()
			require.NoError(t, err)
			require.Equal(t, tt.wantTag, tag)
			require.Equal(t, tt.want, v.String())

			prev, err := r.PreviousVersion()
			require.NoError(t, err)
			require.Equal(t, tt.want, prev)
		})
	}
}

func TestResolver_tagLookupFailureFallsBackToBase(t *testing.T) {
	repo := &fakeRepo{branch: "main", tagsErr: errors.New("exit status 128")}
	r := newTestResolver(t, repo, Options{})

	tag, v, err := r.PreviousTagAndVersion()
	require.NoError(t, err)
	require.Empty(t, tag)
	require.Equal(t, "0.0.0", v.String())

	next, err := r.NewVersion()
	require.NoError(t, err)
	require.Equal(t, "0.0.1", next)
}

func TestResolver_NewVersion(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeRepo
		opts Options
		want string
	}{
		{
			name: "mainline bumps patch",
			repo: &fakeRepo{
				branch:    "main",
				tags:      map[string][]string{"main": {"v1.2.0", "v1.3.0", "v2.0.0-rc1"}},
				distances: map[string]int{"v1.3.0": 3},
				hash:      "abc1234",
			},
			want: "1.3.1",
		},
		{
			name: "no tags on mainline",
			repo: &fakeRepo{branch: "main"},
			want: "0.0.1",
		},
		{
			name: "no tags off mainline counts all commits",
			repo: &fakeRepo{
				branch:    "dev",
				distances: map[string]int{"": 12},
				hash:      "1a2b3c4",
			},
			want: "0.0.1-dev.12.1a2b3c4",
		},
		{
			name: "feature branch is sanitized",
			repo: &fakeRepo{
				branch:    "Feature/ABC-123!",
				tags:      map[string][]string{"Feature/ABC-123!": {"v1.3.0"}},
				distances: map[string]int{"v1.3.0": 5},
				hash:      "abc1234",
			},
			want: "1.3.1-featureabc123.5.abc1234",
		},
		{
			name: "short hash is zero padded",
			repo: &fakeRepo{
				branch:    "fix",
				tags:      map[string][]string{"fix": {"v0.4.0"}},
				distances: map[string]int{"v0.4.0": 1},
				hash:      "ab12",
			},
			want: "0.4.1-fix.1.000ab12",
		},
		{
			name: "build metadata dropped from next",
			repo: &fakeRepo{
				branch: "main",
				tags:   map[string][]string{"main": {"v2.1.0+build.7"}},
			},
			want: "2.1.1",
		},
		{
			name: "custom mainline",
			repo: &fakeRepo{
				branch: "trunk",
				tags:   map[string][]string{"trunk": {"v3.0.0"}},
			},
			opts: Options{Mainline: "trunk"},
			want: "3.0.1",
		},
		{
			name: "main is not mainline when another is configured",
			repo: &fakeRepo{
				branch:    "main",
				tags:      map[string][]string{"main": {"v3.0.0"}},
				distances: map[string]int{"v3.0.0": 2},
				hash:      "fedcba9",
			},
			opts: Options{Mainline: "trunk"},
			want: "3.0.1-main.2.fedcba9",
		},
		{
			name: "minor bump",
			repo: &fakeRepo{
				branch: "main",
				tags:   map[string][]string{"main": {"v1.3.7"}},
			},
			opts: Options{Bump: BumpMinor},
			want: "1.4.0",
		},
		{
			name: "major bump off mainline",
			repo: &fakeRepo{
				branch:    "next",
				tags:      map[string][]string{"next": {"v1.3.7"}},
				distances: map[string]int{"v1.3.7": 0},
				hash:      "0000001",
			},
			opts: Options{Bump: BumpMajor},
			want: "2.0.0-next.0.0000001",
		},
		{
			name: "detached head uses tag description",
			repo: &fakeRepo{
				branchErr: errNoRef,
				describe:  "v1.3.0-2-gabc1234",
				tags:      map[string][]string{"v1.3.0-2-gabc1234": {"v1.3.0"}},
				distances: map[string]int{"v1.3.0": 2},
				hash:      "abc1234",
			},
			want: "1.3.1-v1302gabc1234.2.abc1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.repo, tt.opts)
			got, err := r.NewVersion()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	repo := &fakeRepo{
		branch:    "feature/login",
		tags:      map[string][]string{"feature/login": {"v1.3.0", "nightly"}},
		distances: map[string]int{"v1.3.0": 4},
		hash:      "1234abc",
	}
	r := newTestResolver(t, repo, Options{})

	res, err := r.Resolve()
	require.NoError(t, err)
	require.Equal(t, &Result{
		Branch:      "feature/login",
		PreviousTag: "v1.3.0",
		Previous:    "1.3.0",
		Next:        "1.3.1-featurelogin.4.1234abc",
		Distance:    4,
		Hash:        "1234abc",
	}, res)
	require.Equal(t, []string{"v1.3.0"}, repo.distanceQueries)
}

func TestResolver_mainlineSkipsCommitQueries(t *testing.T) {
	repo := &fakeRepo{
		branch:      "main",
		tags:        map[string][]string{"main": {"v1.0.0"}},
		distanceErr: errors.New("should not be called"),
		hashErr:     errors.New("should not be called"),
	}
	r := newTestResolver(t, repo, Options{})

	res, err := r.Resolve()
	require.NoError(t, err)
	require.True(t, res.Mainline)
	require.Equal(t, "1.0.1", res.Next)
	require.Empty(t, repo.distanceQueries)
}

func TestResolver_errorsPropagate(t *testing.T) {
	t.Run("no branch and no tag", func(t *testing.T) {
		repo := &fakeRepo{branchErr: errNoRef, describeErr: errors.New("fatal: No names found")}
		r := newTestResolver(t, repo, Options{})
		_, err := r.NewVersion()
		require.ErrorIs(t, err, repo.describeErr)
		_, err = r.PreviousVersion()
		require.Error(t, err)
	})

	t.Run("commit count fails", func(t *testing.T) {
		repo := &fakeRepo{branch: "dev", distanceErr: errors.New("bad revision")}
		r := newTestResolver(t, repo, Options{})
		_, err := r.NewVersion()
		require.ErrorIs(t, err, repo.distanceErr)
	})

	t.Run("hash fails", func(t *testing.T) {
		repo := &fakeRepo{branch: "dev", hashErr: errors.New("no HEAD")}
		r := newTestResolver(t, repo, Options{})
		_, err := r.NewVersion()
		require.ErrorIs(t, err, repo.hashErr)
	})
}

func TestNewResolver_invalidOptions(t *testing.T) {
	_, err := NewResolver(&fakeRepo{}, Options{Bump: "huge"})
	require.Error(t, err)

	_, err = NewResolver(&fakeRepo{}, Options{Constraint: "not a constraint"})
	require.Error(t, err)
}

func TestResolver_CommitsSince(t *testing.T) {
	repo := &fakeRepo{
		refs: map[string]string{"v1.0.0": "deadbeef"},
		logs: map[string][]string{
			"deadbeef..HEAD": {"third", "", "second"},
			"HEAD":           {"third", "", "second", "", "first"},
		},
	}
	r := newTestResolver(t, repo, Options{})

	require.Equal(t, []string{"third", "", "second"}, r.CommitsSince("v1.0.0"))
	require.Equal(t, []string{"third", "", "second", "", "first"}, r.CommitsSince(""))
	require.Equal(t, []string{"third", "", "second", "", "first"}, r.CommitsSince("v9.9.9"))

	repo.logErr = errors.New("fatal: your current branch 'main' does not have any commits yet")
	require.Empty(t, r.CommitsSince(""))
}

func TestSanitizeBranch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "main", want: "main"},
		{in: "Feature/ABC-123!", want: "featureabc123"},
		{in: "release/2024.10_hotfix", want: "release202410hotfix"},
		{in: "a-very-long-branch-name-that-goes-on", want: "averylongbranchnamet"},
		{in: "ÜBER-straße", want: "berstrae"},
		{in: "---", want: "unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeBranch(tt.in)
			require.Equal(t, tt.want, got)
			require.LessOrEqual(t, len(got), 20)
			require.Equal(t, strings.ToLower(got), got)
		})
	}
}
