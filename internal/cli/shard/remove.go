package shard

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/shardexec/internal/util"
)

// newRemoveCmd creates the shard remove command
func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove NAME",
		Short:   "Remove a shard from the configuration",
		Aliases: []string{"rm", "delete"},
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return CompleteNames(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runRemove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shard %q removed\n", args[0])
			return nil
		},
	}

	return cmd
}

func runRemove(name string) error {
	mgr, _, err := loadConfig()
	if err != nil {
		return err
	}

	if !mgr.RemoveShardConfig(name) {
		return fmt.Errorf("shard %q: %w", name, util.ErrShardNotFound)
	}
	return mgr.Save()
}
