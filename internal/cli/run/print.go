package run

import (
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/output"
	"github.com/aryankumar/shardexec/internal/shard"
	"github.com/aryankumar/shardexec/internal/statement"
)

type printer struct {
	w         io.Writer
	format    output.Format
	formatter output.Formatter
}

func (p *printer) queryResult(plan []PlanUnit, results []statement.ResultSet) error {
	sets, err := rowSets(plan, results)
	if err != nil {
		return err
	}
	return p.formatter.FormatRows(p.w, sets)
}

func (p *printer) updateResult(reports []executor.UnitReport, count int, plan []PlanUnit, stmts []*shard.SQLStatement, wantKeys bool) error {
	var keys []map[string]interface{}
	if wantKeys {
		keys = generatedKeys(plan, stmts)
	}

	if p.format != output.FormatTable {
		doc := map[string]interface{}{
			"affectedRows": count,
			"units":        output.ReportRecords(reports),
		}
		if wantKeys {
			doc["generatedKeys"] = keys
		}
		return p.formatter.Format(p.w, doc)
	}

	if err := p.formatter.FormatReports(p.w, reports); err != nil {
		return err
	}
	fmt.Fprintf(p.w, "Affected rows: %d\n", count)
	p.printKeys(keys)
	return nil
}

func (p *printer) executeResult(reports []executor.UnitReport, hasResultSet bool, plan []PlanUnit, stmts []*shard.SQLStatement, wantKeys bool) error {
	var keys []map[string]interface{}
	if wantKeys {
		keys = generatedKeys(plan, stmts)
	}

	if p.format != output.FormatTable {
		doc := map[string]interface{}{
			"hasResultSet": hasResultSet,
			"units":        output.ReportRecords(reports),
		}
		if wantKeys {
			doc["generatedKeys"] = keys
		}
		return p.formatter.Format(p.w, doc)
	}

	if err := p.formatter.FormatReports(p.w, reports); err != nil {
		return err
	}
	fmt.Fprintf(p.w, "Result set: %t\n", hasResultSet)
	p.printKeys(keys)
	return nil
}

func (p *printer) printKeys(keys []map[string]interface{}) {
	for _, k := range keys {
		fmt.Fprintf(p.w, "Generated keys [%s]: %v\n", k["shard"], k["keys"])
	}
}

// rowSets reads every result set into memory and closes it. A nil result is
// a unit whose failure was suppressed.
func rowSets(plan []PlanUnit, results []statement.ResultSet) ([]output.RowSet, error) {
	sets := make([]output.RowSet, len(results))

	var err error
	for i, rs := range results {
		set := output.RowSet{}
		if i < len(plan) {
			set.DataSource = plan[i].Shard
		}

		if rs == nil {
			set.Suppressed = true
			sets[i] = set
			continue
		}

		readErr := readResultSet(rs, &set)
		err = multierr.Combine(err, readErr, rs.Close())
		sets[i] = set
	}
	return sets, err
}

func readResultSet(rs statement.ResultSet, set *output.RowSet) error {
	columns, err := rs.Columns()
	if err != nil {
		return fmt.Errorf("%s: %w", set.DataSource, err)
	}
	set.Columns = columns

	for rs.Next() {
		row := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return fmt.Errorf("%s: %w", set.DataSource, err)
		}
		set.Rows = append(set.Rows, row)
	}

	if err := rs.Err(); err != nil {
		return fmt.Errorf("%s: %w", set.DataSource, err)
	}
	return nil
}

func generatedKeys(plan []PlanUnit, stmts []*shard.SQLStatement) []map[string]interface{} {
	keys := make([]map[string]interface{}, 0, len(stmts))
	for i, stmt := range stmts {
		k := stmt.GeneratedKeys()
		if len(k) == 0 {
			continue
		}
		keys = append(keys, map[string]interface{}{
			"shard": plan[i].Shard,
			"keys":  k,
		})
	}
	return keys
}
