package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/enrollmart/etl"
	"github.com/spf13/cobra"
)

// TransformMain is the configuration of the last transform command built.
var TransformMain *etl.TransformMain

// NewTransformCommand returns the transform subcommand.
func NewTransformCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	TransformMain = etl.NewTransformMain()
	TransformMain.Stdin, TransformMain.Stdout, TransformMain.Stderr = stdin, stdout, stderr
	transformCommand := &cobra.Command{
		Use:   "transform",
		Short: "transform a log into CSV star schema tables",
		Long: `Reads enrollment log lines from a file, a directory, stdin or an S3 prefix,
parses them, deduplicates users, courses and times, and writes
dim_user.csv, dim_course.csv, dim_time.csv, fact_enrollment.csv and
diagnostics.csv to the output directory. Exits non-zero when no line
of a non-empty input could be parsed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return TransformMain.Run()
		},
	}
	flags := transformCommand.Flags()
	err := commandeer.Flags(flags, TransformMain)
	if err != nil {
		panic(err)
	}
	return transformCommand
}

func init() {
	subcommandFns["transform"] = NewTransformCommand
}
