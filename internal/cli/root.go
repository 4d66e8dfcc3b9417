package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aryankumar/shardexec/internal/cli/run"
	"github.com/aryankumar/shardexec/internal/cli/shard"
)

var (
	cfgFile string

	// logFile is the rotating log sink, closed when the command returns
	logFile *lumberjack.Logger
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	defer closeLogFile()
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shardexec",
		Short: "shardexec - fan out SQL statements across database shards",
		Long: `shardexec runs one logical SQL call as a set of physical statements
against many database shards concurrently.

Results come back in plan order: query rows are listed per shard, update
counts are summed, and per-shard failures are either surfaced or suppressed
according to the configured exception policy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shardexec.yaml)")
	rootCmd.PersistentFlags().StringSlice("shards", []string{}, "target shards (comma-separated, empty means all enabled)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "timeout for one logical call")
	rootCmd.PersistentFlags().IntP("parallel", "p", 5, "number of worker goroutines")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated by size")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("shards", rootCmd.PersistentFlags().Lookup("shards"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("parallel", rootCmd.PersistentFlags().Lookup("parallel"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.RegisterFlagCompletionFunc("shards", shard.CompleteNames)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(shard.NewShardCmd())
	rootCmd.AddCommand(run.NewQueryCmd())
	rootCmd.AddCommand(run.NewUpdateCmd())
	rootCmd.AddCommand(run.NewExecCmd())

	return rootCmd
}

// initConfig initializes configuration and logging
func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".shardexec")
	}

	viper.SetEnvPrefix("SHARDEXEC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setupLogging(cmd)

	return nil
}

// setupLogging configures structured logging with slog. When a log file is
// configured, records also go to a lumberjack-rotated file as JSON.
func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if path := viper.GetString("log.file"); path != "" {
		closeLogFile()
		logFile = newLogFile(path, viper.GetInt("log.maxSizeMB"), viper.GetInt("log.maxBackups"))
		handler = newTeeHandler(handler, slog.NewJSONHandler(logFile, opts))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	if verbose {
		slog.Debug("verbose logging enabled")
		if viper.ConfigFileUsed() != "" {
			slog.Debug("loaded configuration", "file", viper.ConfigFileUsed())
		}
		if logFile != nil {
			slog.Debug("logging to file", "file", logFile.Filename)
		}
	}
}

func newLogFile(path string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

func closeLogFile() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
	logFile = nil
}
