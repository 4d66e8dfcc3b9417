package shard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/config"
	"github.com/aryankumar/shardexec/internal/output"
)

// NewShardCmd creates the shard management command
func NewShardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shard",
		Short: "Manage database shards",
		Long: `Manage the database shards in your shardexec configuration.

This command provides subcommands for listing, adding, removing,
and pinging the shards that statements fan out to.`,
		Aliases: []string{"shards"},
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newPingCmd())

	return cmd
}

// loadConfig reads the configuration named by --config, or the default one
func loadConfig() (*config.Manager, *config.Config, error) {
	mgr := config.NewManager(viper.GetString("config"))
	cfg, err := mgr.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, cfg, nil
}

// outputFormat resolves the local flag, then the global one
func outputFormat(local string) (output.Format, error) {
	if local == "" {
		local = viper.GetString("output")
	}
	return output.ParseFormat(local)
}

func newFormatter(format output.Format) output.Formatter {
	return output.NewFormatter(format, output.WithNoColor(viper.GetBool("no-color")))
}

// CompleteNames completes configured shard names for positional arguments
// and for the comma-separated --shards flag. Names already given are skipped.
func CompleteNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, toComplete = toComplete[:i+1], toComplete[i+1:]
	}

	used := make(map[string]bool, len(args))
	for _, a := range args {
		used[a] = true
	}
	for _, p := range strings.Split(prefix, ",") {
		used[p] = true
	}

	names := make([]string, 0, len(cfg.Shards))
	for name := range cfg.Shards {
		if used[name] || !strings.HasPrefix(name, toComplete) {
			continue
		}
		names = append(names, prefix+name)
	}
	sort.Strings(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
