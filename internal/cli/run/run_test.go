package run

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryankumar/shardexec/internal/config"
	"github.com/aryankumar/shardexec/internal/execctx"
	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/output"
	"github.com/aryankumar/shardexec/internal/statement"
	"github.com/aryankumar/shardexec/internal/util"
)

const testConfig = `shards:
  ds_0:
    driver: mysql
    dsn: "app:secret@tcp(127.0.0.1:1)/orders?timeout=1s"
    enabled: true
    labels:
      region: us-east
  ds_1:
    driver: mysql
    dsn: "app:secret@tcp(127.0.0.1:1)/orders?timeout=1s"
    enabled: true
    labels:
      region: eu-west
  ds_2:
    driver: postgres
    dsn: "postgres://app@127.0.0.1:1/orders"
    enabled: false
execution:
  exceptionThrown: true
  context:
    tenant: acme
defaults:
  parallel: 8
  outputFormat: json
`

func useConfig(t *testing.T, content string) *config.Manager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	viper.Reset()
	viper.Set("config", path)
	viper.Set("timeout", 5*time.Second)
	viper.Set("parallel", 5)
	t.Cleanup(viper.Reset)

	exceptionThrown := execctx.IsExceptionThrown()
	data := execctx.DataMap()
	t.Cleanup(func() {
		execctx.SetExceptionThrown(exceptionThrown)
		execctx.SetDataMap(data)
	})

	mgr := config.NewManager(path)
	_, err := mgr.Load()
	require.NoError(t, err)
	return mgr
}

func TestKeyRequest(t *testing.T) {
	tests := []struct {
		name    string
		opts    runOptions
		want    statement.KeyRequest
		wantErr bool
	}{
		{name: "none", opts: runOptions{}, want: statement.NoKeys()},
		{name: "auto generated", opts: runOptions{generatedKeys: true}, want: statement.AutoGeneratedKeys(statement.ReturnGeneratedKeys)},
		{name: "indexes", opts: runOptions{keyIndexes: []int{1, 2}}, want: statement.ColumnIndexes(1, 2)},
		{name: "names", opts: runOptions{keyNames: []string{"order_id"}}, want: statement.ColumnNames("order_id")},
		{name: "zero index", opts: runOptions{keyIndexes: []int{0}}, wantErr: true},
		{name: "two shapes", opts: runOptions{generatedKeys: true, keyNames: []string{"id"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.keyRequest()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextData(t *testing.T) {
	opts := runOptions{contextPairs: []string{"trace=abc", "tenant=globex"}}

	data, err := opts.contextData(map[string]any{"tenant": "acme", "region": "us"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tenant": "globex", "region": "us", "trace": "abc"}, data)

	opts.contextPairs = []string{"broken"}
	_, err = opts.contextData(nil)
	assert.Error(t, err)
}

func TestResolveTargets(t *testing.T) {
	mgr := useConfig(t, testConfig)

	tests := []struct {
		name     string
		shards   []string
		selector []string
		want     []string
		wantErr  error
	}{
		{name: "all enabled", want: []string{"ds_0", "ds_1"}},
		{name: "explicit keeps order", shards: []string{"ds_2", "ds_0"}, want: []string{"ds_2", "ds_0"}},
		{name: "selector", selector: []string{"region=eu-west"}, want: []string{"ds_1"}},
		{name: "unknown shard", shards: []string{"ds_9"}, wantErr: util.ErrShardNotFound},
		{name: "selector matches nothing", selector: []string{"region=mars"}, wantErr: util.ErrShardNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTargets(mgr, tt.shards, tt.selector)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPlan(t *testing.T) {
	targets := []string{"ds_0", "ds_1"}

	plan, err := buildPlan(&runOptions{}, []string{"  SELECT 1  "}, targets)
	require.NoError(t, err)
	assert.Equal(t, BroadcastPlan(targets, "SELECT 1"), plan)

	_, err = buildPlan(&runOptions{}, nil, targets)
	assert.Error(t, err)

	_, err = buildPlan(&runOptions{planFile: "plan.yaml"}, []string{"SELECT 1"}, targets)
	assert.Error(t, err)
}

func TestResolveSettings(t *testing.T) {
	useConfig(t, testConfig)
	cfg := &config.Config{Defaults: config.DefaultsConfig{Parallel: 8, Timeout: time.Minute, OutputFormat: "yaml"}}

	cmd := &cobra.Command{}
	cmd.Flags().Int("parallel", 5, "")
	cmd.Flags().Duration("timeout", 30*time.Second, "")

	set, err := resolveSettings(cmd, cfg, "")
	require.NoError(t, err)
	assert.Equal(t, 8, set.parallel)
	assert.Equal(t, time.Minute, set.timeout)
	assert.Equal(t, output.FormatYAML, set.format)

	require.NoError(t, cmd.Flags().Set("parallel", "2"))
	set, err = resolveSettings(cmd, cfg, "table")
	require.NoError(t, err)
	assert.Equal(t, 2, set.parallel)
	assert.Equal(t, output.FormatTable, set.format)

	_, err = resolveSettings(cmd, cfg, "xml")
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	plan := []PlanUnit{{Shard: "ds_0", SQL: "DELETE FROM t_order"}, {Shard: "ds_1", SQL: "DELETE FROM t_order"}}

	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "yes", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, modeUpdate, plan)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "[ds_1] DELETE FROM t_order")
		assert.Contains(t, out.String(), "On 2 shard(s)")
	}
}

func runCmd(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return out.String(), err
}

func TestUpdateCancelled(t *testing.T) {
	useConfig(t, testConfig)

	out, err := runCmd(t, NewUpdateCmd(), "n\n", "UPDATE t_order SET status = 'PAID'")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
}

func TestQueryUnreachableShard(t *testing.T) {
	useConfig(t, testConfig)

	_, err := runCmd(t, NewQueryCmd(), "", "--selector", "region=us-east", "SELECT 1")
	assert.ErrorIs(t, err, util.ErrConnectionFailed)

	// The configured policy becomes the process default
	assert.True(t, execctx.IsExceptionThrown())
	assert.Equal(t, map[string]any{"tenant": "acme"}, execctx.DataMap())
}

func TestExecRequiresSQL(t *testing.T) {
	useConfig(t, testConfig)

	_, err := runCmd(t, NewExecCmd(), "", "-y")
	assert.Error(t, err)
}

func TestKeyFlagsExclusive(t *testing.T) {
	useConfig(t, testConfig)

	_, err := runCmd(t, NewUpdateCmd(), "", "-y", "--generated-keys", "--key-names", "id", "INSERT INTO t VALUES (1)")
	assert.Error(t, err)
}

// memResultSet is an in-memory statement.ResultSet
type memResultSet struct {
	columns []string
	rows    [][]any
	pos     int
	closed  bool
	err     error
}

func (r *memResultSet) Columns() ([]string, error) { return r.columns, nil }

func (r *memResultSet) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *memResultSet) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

func (r *memResultSet) Err() error { return r.err }

func (r *memResultSet) Close() error {
	r.closed = true
	return nil
}

func TestRowSets(t *testing.T) {
	plan := []PlanUnit{{Shard: "ds_0"}, {Shard: "ds_1"}, {Shard: "ds_2"}}
	first := &memResultSet{columns: []string{"user_id", "name"}, rows: [][]any{{int64(1), []byte("alice")}, {int64(3), nil}}}
	third := &memResultSet{columns: []string{"user_id", "name"}, rows: [][]any{{int64(2), []byte("bob")}}}

	sets, err := rowSets(plan, []statement.ResultSet{first, nil, third})
	require.NoError(t, err)
	require.Len(t, sets, 3)

	assert.Equal(t, "ds_0", sets[0].DataSource)
	assert.Equal(t, [][]any{{int64(1), []byte("alice")}, {int64(3), nil}}, sets[0].Rows)
	assert.True(t, sets[1].Suppressed)
	assert.Equal(t, "ds_1", sets[1].DataSource)
	assert.Equal(t, [][]any{{int64(2), []byte("bob")}}, sets[2].Rows)
	assert.True(t, first.closed)
	assert.True(t, third.closed)
}

func TestRowSetsIterationError(t *testing.T) {
	broken := &memResultSet{columns: []string{"id"}, err: errors.New("connection reset")}

	_, err := rowSets([]PlanUnit{{Shard: "ds_0"}}, []statement.ResultSet{broken})
	assert.ErrorContains(t, err, "ds_0: connection reset")
	assert.True(t, broken.closed)
}

func TestPrinterUpdateTable(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, format: output.FormatTable, formatter: output.NewFormatter(output.FormatTable, output.WithNoColor(true))}

	reports := []executor.UnitReport{
		{DataSource: "ds_0", SQL: "UPDATE t_order_0 SET status = 'PAID'", Finished: true, Duration: time.Millisecond},
		{DataSource: "ds_1", SQL: "UPDATE t_order_1 SET status = 'PAID'", Finished: true, Duration: time.Millisecond},
	}
	require.NoError(t, p.updateResult(reports, 7, nil, nil, false))

	assert.Contains(t, out.String(), "ds_1")
	assert.Contains(t, out.String(), "Affected rows: 7")
}

func TestPrinterExecuteJSON(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, format: output.FormatJSON, formatter: output.NewFormatter(output.FormatJSON)}

	reports := []executor.UnitReport{{DataSource: "ds_0", SQL: "SELECT 1", Finished: true}}
	require.NoError(t, p.executeResult(reports, true, nil, nil, false))

	assert.Contains(t, out.String(), `"hasResultSet": true`)
	assert.Contains(t, out.String(), `"shard": "ds_0"`)
}

func TestPrinterExecuteJSONWithKeys(t *testing.T) {
	var out bytes.Buffer
	p := &printer{w: &out, format: output.FormatJSON, formatter: output.NewFormatter(output.FormatJSON)}

	reports := []executor.UnitReport{{DataSource: "ds_0", SQL: "INSERT INTO t_order_0 (user_id) VALUES (10)", Finished: true}}
	require.NoError(t, p.executeResult(reports, false, []PlanUnit{{Shard: "ds_0"}}, nil, true))

	assert.Contains(t, out.String(), `"hasResultSet": false`)
	assert.Contains(t, out.String(), `"generatedKeys": []`)
}
