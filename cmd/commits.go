package cmd

import (
	"github.com/spf13/cobra"
)

var commitsCmd = &cobra.Command{
	Use:          "commits [tag]",
	Short:        "Prints the commit messages since a tag",
	Long:         "Prints the commit messages since a tag.\n\nWithout a tag the previous release tag of the current branch is used. When the tag does not exist the whole history of HEAD is printed.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         doCommits,
}

func doCommits(command *cobra.Command, args []string) error {
	ctx := cliContext()
	var tag string
	if len(args) > 0 {
		tag = args[0]
	}
	return cfg.Commits(ctx, command.OutOrStdout(), tag)
}
