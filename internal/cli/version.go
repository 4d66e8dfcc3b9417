package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/output"
	"github.com/aryankumar/shardexec/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the build and the database drivers compiled into shardexec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	name, _ := cmd.Flags().GetString("output")
	if name == "" {
		// Without -o the human-readable form is printed
		fmt.Fprintln(w, info.String())
		return nil
	}

	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, output.WithNoColor(viper.GetBool("no-color")))

	if format == output.FormatTable {
		return formatter.Format(w, map[string]interface{}{
			"Version":    info.Version,
			"Commit":     info.Commit,
			"Build Time": info.BuildTime,
			"Go Version": info.GoVersion,
			"Platform":   info.Platform,
			"Drivers":    strings.Join(info.Drivers, ","),
		})
	}
	return formatter.Format(w, info)
}
