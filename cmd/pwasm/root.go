package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd(log *logrus.Logger) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "pwasm",
		Short:         "Decode, validate, and run WebAssembly binaries",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCompileCmd(log))
	root.AddCommand(newRunCmd(log))
	root.AddCommand(newDumpCmd(log))
	return root
}
