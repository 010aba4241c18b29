package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/enrollmart/etl"
	"github.com/spf13/cobra"
)

// LoadMain is the configuration of the last load command built.
var LoadMain *etl.LoadMain

// NewLoadCommand returns the load subcommand.
func NewLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	LoadMain = etl.NewLoadMain()
	LoadMain.Stdin, LoadMain.Stdout, LoadMain.Stderr = stdin, stdout, stderr
	loadCommand := &cobra.Command{
		Use:   "load",
		Short: "load CSV star schema tables into ClickHouse or MySQL",
		Long: `Reads the tables written by transform and inserts them into the
configured store, dimensions first. Empty tables are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return LoadMain.Run()
		},
	}
	flags := loadCommand.Flags()
	err := commandeer.Flags(flags, LoadMain)
	if err != nil {
		panic(err)
	}
	return loadCommand
}

func init() {
	subcommandFns["load"] = NewLoadCommand
}
