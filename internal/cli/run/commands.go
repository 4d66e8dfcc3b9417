package run

import (
	"github.com/spf13/cobra"
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query on many shards and list the rows",
		Long: `Run a SELECT on every target shard concurrently.

Rows are listed per shard in plan order. When the exception policy is
suppressive, a failing shard is reported as suppressed and the others are
still listed.`,
		Example: `  # Query every enabled shard
  shardexec query "SELECT user_id, status FROM t_order WHERE user_id = 10"

  # Query two shards, tolerating failures
  shardexec query --shards ds_0,ds_1 --suppress-errors "SELECT COUNT(*) FROM t_order"

  # Run per-shard SQL from a plan file
  shardexec query -f plans/orders.yaml -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatement(cmd, modeQuery, opts, args)
		},
	}

	opts.addFlags(cmd, modeQuery)
	return cmd
}

// NewUpdateCmd creates the update command
func NewUpdateCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "update [SQL]",
		Short: "Run a DML statement on many shards and sum the affected rows",
		Long: `Run an INSERT, UPDATE or DELETE on every target shard concurrently.

The affected row counts of all shards are summed. Generated keys can be
requested with --generated-keys, --key-indexes or --key-names.`,
		Example: `  # Update every enabled shard after confirmation
  shardexec update "UPDATE t_order SET status = 'PAID' WHERE user_id = 10"

  # Insert on the eu shards and print the generated keys
  shardexec update -l region=eu-west --generated-keys -y \
    "INSERT INTO t_order (user_id, status) VALUES (10, 'NEW')"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatement(cmd, modeUpdate, opts, args)
		},
	}

	opts.addFlags(cmd, modeUpdate)
	return cmd
}

// NewExecCmd creates the exec command
func NewExecCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Run any statement on many shards",
		Long: `Run an arbitrary statement on every target shard concurrently.

The command reports whether the first shard's statement produced a result
set, the way a driver's execute call does.`,
		Example: `  # Create a table on every shard
  shardexec exec -y "CREATE TABLE IF NOT EXISTS t_audit (id BIGINT PRIMARY KEY)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatement(cmd, modeExecute, opts, args)
		},
	}

	opts.addFlags(cmd, modeExecute)
	return cmd
}
