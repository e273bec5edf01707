package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentbacktest",
		Short:         "Simulate a trading agent over historical closes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCommand(),
		newIngestCommand(),
		newServeCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	var port int

	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the backtest API",
		RunE: func(command *cobra.Command, args []string) error {
			apiHandler, err := InitializeDependencies()
			if err != nil {
				return err
			}
			defer CloseDependencies(apiHandler)
			return apiHandler.StartApi(port)
		},
	}
	command.Flags().IntVarP(&port, "port", "p", 3009, "port to listen on")

	return command
}
