package output_test

import (
	"errors"
	"os"
	"time"

	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/output"
)

func ExampleJSONFormatter_FormatReports() {
	formatter := output.NewFormatter(output.FormatJSON)

	reports := []executor.UnitReport{
		{
			DataSource: "ds_0",
			SQL:        "UPDATE t_order_0 SET status = 'PAID'",
			Finished:   true,
			Duration:   1500 * time.Microsecond,
		},
		{
			DataSource: "ds_1",
			SQL:        "UPDATE t_order_1 SET status = 'PAID'",
			Error:      errors.New("lock wait timeout exceeded"),
			Finished:   true,
			Duration:   2 * time.Millisecond,
		},
	}

	_ = formatter.FormatReports(os.Stdout, reports)
	// Output:
	// [
	//   {
	//     "duration": "1.5ms",
	//     "shard": "ds_0",
	//     "sql": "UPDATE t_order_0 SET status = 'PAID'",
	//     "status": "success"
	//   },
	//   {
	//     "duration": "2ms",
	//     "error": "lock wait timeout exceeded",
	//     "shard": "ds_1",
	//     "sql": "UPDATE t_order_1 SET status = 'PAID'",
	//     "status": "failed"
	//   }
	// ]
}

func ExampleJSONFormatter_FormatRows() {
	formatter := output.NewFormatter(output.FormatJSON)

	sets := []output.RowSet{
		{
			DataSource: "ds_0",
			Columns:    []string{"user_id", "name"},
			Rows:       [][]any{{int64(1), []byte("alice")}},
		},
	}

	_ = formatter.FormatRows(os.Stdout, sets)
	// Output:
	// [
	//   {
	//     "columns": [
	//       "user_id",
	//       "name"
	//     ],
	//     "rows": [
	//       {
	//         "name": "alice",
	//         "user_id": 1
	//       }
	//     ],
	//     "shard": "ds_0"
	//   }
	// ]
}
