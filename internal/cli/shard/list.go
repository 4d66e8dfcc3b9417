package shard

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/output"
	dbshard "github.com/aryankumar/shardexec/internal/shard"
	"github.com/aryankumar/shardexec/internal/util"
)

// newListCmd creates the shard list command
func newListCmd() *cobra.Command {
	var (
		showLabels   bool
		outputFlag   string
		labelFilters []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured shards",
		Long: `List every shard in the shardexec configuration.

Shows the driver and the host, database and user parsed from each DSN.
Passwords are never printed.`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), showLabels, outputFlag, labelFilters)
		},
	}

	cmd.Flags().BoolVar(&showLabels, "show-labels", false, "show shard labels")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output format (table, json, yaml)")
	cmd.Flags().StringSliceVarP(&labelFilters, "selector", "l", nil, "only list enabled shards with these labels (key=value)")

	return cmd
}

func runList(w io.Writer, showLabels bool, outputFlag string, labelFilters []string) error {
	logger := slog.Default()

	mgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Debug("loaded shard config", "file", mgr.Path(), "shards", len(cfg.Shards))

	names := make([]string, 0, len(cfg.Shards))
	if len(labelFilters) > 0 {
		selector, err := util.ParseKeyValues(labelFilters)
		if err != nil {
			return err
		}
		names = mgr.GetShardsByLabel(selector)
	} else {
		for name := range cfg.Shards {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	infos := make([]dbshard.Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, dbshard.Describe(name, cfg.Shards[name]))
	}

	if len(infos) == 0 {
		fmt.Fprintln(w, "No shards configured")
		return nil
	}

	format, err := outputFormat(outputFlag)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatTable:
		return listTable(w, infos, showLabels, viper.GetBool("no-color"))
	default:
		return newFormatter(format).Format(w, infos)
	}
}

func listTable(w io.Writer, infos []dbshard.Info, showLabels bool, noColor bool) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Name", "Driver", "Host", "Database", "User", "Enabled"}
	if showLabels {
		headers = append(headers, "Labels")
	}
	table.SetHeader(headers)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	colors := output.NewColorScheme(w, noColor)
	yellow := color.New(color.FgYellow)

	for _, info := range infos {
		name := info.Name
		enabled := "yes"
		if info.Enabled {
			name = colors.Shard("%s", name)
		} else {
			enabled = colors.Warning("%s", "no")
		}

		row := []string{
			name,
			info.Driver,
			util.Truncate(info.Host, 40),
			info.Database,
			util.Truncate(info.User, 30),
			enabled,
		}

		if showLabels {
			labels := formatLabels(info.Labels)
			if !colors.Disabled && labels != "" {
				labels = yellow.Sprint(labels)
			}
			row = append(row, labels)
		}

		table.Append(row)
	}

	table.Render()

	fmt.Fprintf(w, "\nTotal shards: %d\n", len(infos))
	return nil
}
