package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/enrollmart/etl"
	"github.com/spf13/cobra"
)

// RunMain is the configuration of the last run command built.
var RunMain *etl.RunMain

// NewRunCommand returns the run subcommand.
func NewRunCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	RunMain = etl.NewRunMain()
	RunMain.Stdin, RunMain.Stdout, RunMain.Stderr = stdin, stdout, stderr
	runCommand := &cobra.Command{
		Use:   "run",
		Short: "transform a log and load it in one step",
		Long: `Runs transform and load in one process. The interchange directory is
only written when --out is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMain.Run()
		},
	}
	flags := runCommand.Flags()
	err := commandeer.Flags(flags, RunMain)
	if err != nil {
		panic(err)
	}
	return runCommand
}

func init() {
	subcommandFns["run"] = NewRunCommand
}
