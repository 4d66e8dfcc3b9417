package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/shardexec/internal/statement"
	"github.com/aryankumar/shardexec/internal/util"
)

// mode is the call shape a command runs
type mode int

const (
	modeQuery mode = iota
	modeUpdate
	modeExecute
)

func (m mode) String() string {
	switch m {
	case modeQuery:
		return "query"
	case modeUpdate:
		return "update"
	case modeExecute:
		return "execute"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// runOptions holds the flags shared by query, update and exec
type runOptions struct {
	planFile     string
	recursive    bool
	labels       []string
	contextPairs []string

	suppressErrors bool
	showMetrics    bool
	yes            bool
	wide           bool
	outputFlag     string

	generatedKeys bool
	keyIndexes    []int
	keyNames      []string
}

func (o *runOptions) addFlags(cmd *cobra.Command, m mode) {
	cmd.Flags().StringVarP(&o.planFile, "file", "f", "", "plan file or directory with per-shard SQL")
	cmd.Flags().BoolVarP(&o.recursive, "recursive", "R", false, "read plan directories recursively")
	cmd.Flags().StringSliceVarP(&o.labels, "selector", "l", nil, "target enabled shards with these labels (key=value)")
	cmd.Flags().StringArrayVar(&o.contextPairs, "context", nil, "execution context value in key=value form (repeatable)")
	cmd.Flags().BoolVar(&o.suppressErrors, "suppress-errors", false, "report failing shards instead of failing the call")
	cmd.Flags().BoolVar(&o.showMetrics, "show-metrics", false, "print execution timings to stderr")
	cmd.Flags().BoolVar(&o.wide, "wide", false, "show SQL in unit reports")
	cmd.Flags().StringVarP(&o.outputFlag, "output", "o", "", "output format (table, json, yaml)")

	if m == modeQuery {
		return
	}

	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&o.generatedKeys, "generated-keys", false, "request auto-generated keys")
	cmd.Flags().IntSliceVar(&o.keyIndexes, "key-indexes", nil, "request generated keys of these 1-based columns")
	cmd.Flags().StringSliceVar(&o.keyNames, "key-names", nil, "request generated keys of these columns")
	cmd.MarkFlagsMutuallyExclusive("generated-keys", "key-indexes", "key-names")
}

// keyRequest maps the key flags onto one of the four driver call shapes
func (o *runOptions) keyRequest() (statement.KeyRequest, error) {
	set := 0
	for _, given := range []bool{o.generatedKeys, len(o.keyIndexes) > 0, len(o.keyNames) > 0} {
		if given {
			set++
		}
	}
	if set > 1 {
		return statement.KeyRequest{}, fmt.Errorf("only one of --generated-keys, --key-indexes and --key-names may be given")
	}

	switch {
	case o.generatedKeys:
		return statement.AutoGeneratedKeys(statement.ReturnGeneratedKeys), nil
	case len(o.keyIndexes) > 0:
		for _, idx := range o.keyIndexes {
			if idx < 1 {
				return statement.KeyRequest{}, fmt.Errorf("key index %d: columns are numbered from 1", idx)
			}
		}
		return statement.ColumnIndexes(o.keyIndexes...), nil
	case len(o.keyNames) > 0:
		return statement.ColumnNames(o.keyNames...), nil
	default:
		return statement.NoKeys(), nil
	}
}

// contextData parses --context on top of the configured execution context
func (o *runOptions) contextData(base map[string]any) (map[string]any, error) {
	pairs, err := util.ParseKeyValues(o.contextPairs)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(base)+len(pairs))
	for k, v := range base {
		data[k] = v
	}
	for k, v := range pairs {
		data[k] = v
	}
	return data, nil
}
