package version

import (
	"bytes"
	"fmt"
	"os"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// DefaultConfigFile is looked up in the working directory when no file is named.
const DefaultConfigFile = ".gitversion"

const configSection = "gitversion"

// FileConfig holds the settings read from a git-config style file:
//
//	[gitversion]
//		mainline = main
//		bump = minor
//		constraint = >= 1.0, < 2.0
//		output = json
type FileConfig struct {
	Mainline   string
	Bump       string
	Constraint string
	Output     string
}

// ReadConfigFile decodes path. A missing file is reported with an error
// wrapping os.ErrNotExist.
func ReadConfigFile(path string) (FileConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("could not read configuration from %s: %w", path, err)
	}

	cfg := format.Config{}

	d := format.NewDecoder(bytes.NewReader(bs))

	if err := d.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("could not parse configuration file %s: %w", path, err)
	}

	section := cfg.Section(configSection)

	return FileConfig{
		Mainline:   section.Option("mainline"),
		Bump:       section.Option("bump"),
		Constraint: section.Option("constraint"),
		Output:     section.Option("output"),
	}, nil
}

// Apply copies the non-empty file settings into cfg unless isSet reports the
// matching flag as explicitly given.
func (fc FileConfig) Apply(cfg *Config, isSet func(name string) bool) {
	set := func(name, value string, dst *string) {
		if value != "" && !isSet(name) {
			*dst = value
		}
	}
	set("mainline", fc.Mainline, &cfg.Mainline)
	set("bump", fc.Bump, &cfg.Bump)
	set("constraint", fc.Constraint, &cfg.Constraint)
	set("output", fc.Output, &cfg.Output)
}
