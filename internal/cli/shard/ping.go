package shard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/output"
	dbshard "github.com/aryankumar/shardexec/internal/shard"
)

// newPingCmd creates the shard ping command
func newPingCmd() *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "ping [NAME...]",
		Short: "Check connectivity to shards",
		Long: `Open a connection to each shard and ping it.

With no names, every enabled shard (or those given by --shards) is checked.
The command fails when any shard is unreachable.`,
		ValidArgsFunction: CompleteNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = viper.GetStringSlice("shards")
			}
			return runPing(cmd.Context(), cmd.OutOrStdout(), names, outputFlag)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output format (table, json, yaml)")

	return cmd
}

func runPing(ctx context.Context, w io.Writer, names []string, outputFlag string) error {
	logger := slog.Default()

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := outputFormat(outputFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()

	mgr := dbshard.NewManager(cfg.Shards, logger)
	defer mgr.Close()

	var connectErr error
	if len(names) == 0 {
		connectErr = mgr.ConnectAll(ctx)
	} else {
		connectErr = mgr.Connect(ctx, names)
	}
	if connectErr != nil {
		logger.Warn("some shard connections failed", "error", connectErr)
	}

	statuses := mgr.HealthCheckWithStatus(ctx)
	if err := printStatuses(w, format, statuses); err != nil {
		return err
	}

	unhealthy := 0
	for _, s := range statuses {
		if !s.Healthy {
			unhealthy++
		}
	}
	switch {
	case connectErr != nil:
		return connectErr
	case unhealthy > 0:
		return fmt.Errorf("%d of %d shards unhealthy", unhealthy, len(statuses))
	}
	return nil
}

func printStatuses(w io.Writer, format output.Format, statuses []dbshard.HealthStatus) error {
	records := make([]map[string]interface{}, len(statuses))
	for i, s := range statuses {
		status := "healthy"
		errText := ""
		if !s.Healthy {
			status = "unhealthy"
			if s.Error != nil {
				errText = s.Error.Error()
			}
		}
		records[i] = map[string]interface{}{
			"shard":   s.ShardName,
			"status":  status,
			"latency": s.Latency.Round(time.Microsecond).String(),
			"error":   errText,
		}
	}

	if format == output.FormatTable && len(records) == 0 {
		fmt.Fprintln(w, "No shards connected")
		return nil
	}
	return newFormatter(format).Format(w, records)
}
