package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/config"
	"github.com/aryankumar/shardexec/internal/event"
	"github.com/aryankumar/shardexec/internal/execctx"
	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/metrics"
	"github.com/aryankumar/shardexec/internal/output"
	"github.com/aryankumar/shardexec/internal/shard"
	"github.com/aryankumar/shardexec/internal/statement"
	"github.com/aryankumar/shardexec/internal/util"
)

// settings are the effective values of flags that the config file can default
type settings struct {
	parallel int
	timeout  time.Duration
	format   output.Format
	noColor  bool
}

func resolveSettings(cmd *cobra.Command, cfg *config.Config, outputFlag string) (settings, error) {
	s := settings{
		parallel: viper.GetInt("parallel"),
		timeout:  viper.GetDuration("timeout"),
		noColor:  viper.GetBool("no-color") || cfg.Defaults.NoColor,
	}

	if cmd.Flags().Changed("parallel") {
		s.parallel, _ = cmd.Flags().GetInt("parallel")
	} else if cfg.Defaults.Parallel > 0 {
		s.parallel = cfg.Defaults.Parallel
	}
	if cmd.Flags().Changed("timeout") {
		s.timeout, _ = cmd.Flags().GetDuration("timeout")
	} else if cfg.Defaults.Timeout > 0 {
		s.timeout = cfg.Defaults.Timeout
	}

	name := outputFlag
	if name == "" {
		name = viper.GetString("output")
	}
	if name == "" {
		name = cfg.Defaults.OutputFormat
	}

	format, err := output.ParseFormat(name)
	if err != nil {
		return settings{}, err
	}
	s.format = format
	return s, nil
}

// resolveTargets picks the shards a broadcast runs on: --shards, else the
// enabled shards matching --selector, else every enabled shard
func resolveTargets(mgr *config.Manager, shards []string, selector []string) ([]string, error) {
	if len(shards) > 0 {
		for _, name := range shards {
			if _, ok := mgr.GetShardConfig(name); !ok {
				return nil, fmt.Errorf("shard %q: %w", name, util.ErrShardNotFound)
			}
		}
		return shards, nil
	}

	var targets []string
	if len(selector) > 0 {
		labels, err := util.ParseKeyValues(selector)
		if err != nil {
			return nil, err
		}
		targets = mgr.GetShardsByLabel(labels)
	} else {
		targets = mgr.GetEnabledShards()
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no target shards: %w", util.ErrShardNotFound)
	}
	return targets, nil
}

func buildPlan(opts *runOptions, args []string, targets []string) ([]PlanUnit, error) {
	switch {
	case opts.planFile != "" && len(args) > 0:
		return nil, fmt.Errorf("give either SQL or --file, not both")
	case opts.planFile != "":
		return LoadPlan(opts.planFile, opts.recursive, targets)
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		return BroadcastPlan(targets, strings.TrimSpace(args[0])), nil
	default:
		return nil, fmt.Errorf("SQL or --file is required")
	}
}

func runStatement(cmd *cobra.Command, m mode, opts *runOptions, args []string) error {
	logger := slog.Default()
	w := cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfgMgr := config.NewManager(viper.GetString("config"))
	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	set, err := resolveSettings(cmd, cfg, opts.outputFlag)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(cfgMgr, viper.GetStringSlice("shards"), opts.labels)
	if err != nil {
		return err
	}

	plan, err := buildPlan(opts, args, targets)
	if err != nil {
		return err
	}

	keys, err := opts.keyRequest()
	if err != nil {
		return err
	}

	// The configured policy is the process default; flags override it for
	// this call only
	execctx.SetExceptionThrown(cfgMgr.ExceptionThrown())
	execctx.SetDataMap(cfg.Execution.Context)

	data, err := opts.contextData(cfg.Execution.Context)
	if err != nil {
		return err
	}
	ctx = execctx.WithSnapshot(ctx, execctx.Snapshot{
		ExceptionThrown: cfgMgr.ExceptionThrown() && !opts.suppressErrors,
		DataMap:         data,
	})

	if cfg.Metrics.Enabled || opts.showMetrics {
		metrics.Enable()
	}

	logger.Debug("running plan",
		"mode", m.String(),
		"units", len(plan),
		"shards", shardNames(plan),
		"keys", keys.String(),
		"parallel", set.parallel)

	if m != modeQuery && !opts.yes {
		if !confirm(cmd.InOrStdin(), w, m, plan) {
			fmt.Fprintln(w, "Cancelled")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, set.timeout)
	defer cancel()

	shards := shard.NewManager(cfg.Shards, logger)
	defer shards.Close()

	if err := shards.Connect(ctx, shardNames(plan)); err != nil {
		return err
	}

	engine, err := executor.NewEngine(set.parallel, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	bus := event.NewBus(logger)
	collector := executor.NewCollector()
	unsubscribe := bus.Subscribe(collector)
	defer unsubscribe()

	exec := statement.NewExecutor(engine,
		statement.WithBus(bus),
		statement.WithLogger(logger))

	stmts := make([]*shard.SQLStatement, len(plan))
	for i, u := range plan {
		conn, err := shards.Get(u.Shard)
		if err != nil {
			return err
		}
		stmts[i] = conn.Statement()
		if err := exec.AddUnit(statement.NewUnit(u.Shard, u.SQL, stmts[i])); err != nil {
			return err
		}
	}

	p := &printer{
		w:         w,
		format:    set.format,
		formatter: output.NewFormatter(set.format, output.WithNoColor(set.noColor), output.WithWide(opts.wide)),
	}

	var runErr error
	switch m {
	case modeQuery:
		results, err := exec.ExecuteQuery(ctx)
		if err != nil {
			runErr = err
			break
		}
		runErr = p.queryResult(plan, results)

	case modeUpdate:
		count, err := exec.ExecuteUpdate(ctx, keys)
		if err != nil {
			runErr = err
			break
		}
		runErr = p.updateResult(collector.Reports(), count, plan, stmts, keys.WantsKeys())

	case modeExecute:
		hasResultSet, err := exec.Execute(ctx, keys)
		if err != nil {
			runErr = err
			break
		}
		runErr = p.executeResult(collector.Reports(), hasResultSet, plan, stmts, keys.WantsKeys())
	}

	if runErr != nil {
		reports := collector.Reports()
		if len(reports) > 0 {
			if err := p.formatter.FormatReports(w, reports); err != nil {
				logger.Warn("failed to print unit reports", "error", err)
			}
		}
	}

	if opts.showMetrics {
		if err := metrics.Default().WriteText(cmd.ErrOrStderr()); err != nil {
			logger.Warn("failed to print metrics", "error", err)
		}
	}

	return runErr
}

// confirm asks before running DML or arbitrary statements
func confirm(in io.Reader, w io.Writer, m mode, plan []PlanUnit) bool {
	fmt.Fprintf(w, "The following statements will be run (%s):\n\n", m)
	for _, u := range plan {
		fmt.Fprintf(w, "  [%s] %s\n", u.Shard, util.Truncate(u.SQL, 100))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "On %d shard(s). Do you want to continue? [y/N]: ", len(shardNames(plan)))

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
