package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *commandContext) {
	cctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "emgpipe",
		Short:         "Convert, clean, chart and export EMG recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return cctx.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&cctx.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConvertCommand(cctx))
	rootCmd.AddCommand(newCleanCommand(cctx))
	rootCmd.AddCommand(newChartCommand(cctx))
	rootCmd.AddCommand(newExportCommand(cctx))
	rootCmd.AddCommand(newRunCommand(cctx))

	return rootCmd, cctx
}
