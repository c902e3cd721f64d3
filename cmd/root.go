package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cloudbees-io/gitversion/internal/core"
	"github.com/cloudbees-io/gitversion/internal/version"
	"github.com/spf13/cobra"
)

var (
	cmd = &cobra.Command{
		Use:               "gitversion",
		Short:             "Derives a semantic version from git tags and commit position",
		Long:              "Derives a semantic version from git tags and commit position.\n\nPrints the previous release version and the version of the current checkout.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              doVersion,
	}
	cfg   version.Config
	debug bool
)

func Execute() error {
	return cmd.Execute()
}

func init() {
	cmd.AddCommand(commitsCmd)
	cmd.PersistentFlags().StringVar(&cfg.Mainline, "mainline", version.DefaultMainline, "Branch whose builds get plain release versions")
	cmd.PersistentFlags().StringVar(&cfg.Bump, "bump", os.Getenv("BUMP"), "Version component to increment, one of `patch`, `minor` or `major`")
	cmd.PersistentFlags().StringVar(&cfg.Constraint, "constraint", "", "Only consider release tags matching this semver constraint")
	cmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", "text", "Output format, one of `text`, `json` or `yaml`")
	cmd.PersistentFlags().StringVarP(&cfg.Dir, "dir", "C", "", "Run as if started in this directory")
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Path to a git-config style settings file (default .gitversion)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log git commands and decisions to stderr")
}

func cliContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel() // exit gracefully
		<-c
		os.Exit(1) // exit immediately on 2nd signal
	}()
	return ctx
}

func loadConfig(command *cobra.Command, args []string) error {
	core.SetOutput(command.ErrOrStderr())
	core.SetDebug(debug)

	path, explicit := cfg.ConfigFile, cfg.ConfigFile != ""
	if !explicit {
		path = filepath.Join(cfg.Dir, version.DefaultConfigFile)
	}

	fc, err := version.ReadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		core.Debug("no configuration file at %s", path)
		return nil
	} else if err != nil {
		return err
	}

	core.Debug("loaded configuration from %s", path)
	fc.Apply(&cfg, func(name string) bool {
		if name == "bump" && os.Getenv("BUMP") != "" {
			return true
		}
		return command.Flags().Changed(name)
	})
	return nil
}

func doVersion(command *cobra.Command, args []string) error {
	ctx := cliContext()
	return cfg.Run(ctx, command.OutOrStdout())
}
