package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/enrollmart/etl"
	"github.com/spf13/cobra"
)

// HistoryMain is the configuration of the last history command built.
var HistoryMain *etl.HistoryMain

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	HistoryMain = etl.NewHistoryMain()
	HistoryMain.Stdin, HistoryMain.Stdout, HistoryMain.Stderr = stdin, stdout, stderr
	historyCommand := &cobra.Command{
		Use:   "history",
		Short: "list recorded runs",
		Long:  `Prints the run journal, oldest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return HistoryMain.Run()
		},
	}
	flags := historyCommand.Flags()
	err := commandeer.Flags(flags, HistoryMain)
	if err != nil {
		panic(err)
	}
	return historyCommand
}

func init() {
	subcommandFns["history"] = NewHistoryCommand
}
