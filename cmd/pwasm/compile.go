package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tetratelabs/pwasm"
)

func newCompileCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <path to wasm file>",
		Short: "Decode and validate a WebAssembly binary without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bin, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			rt := pwasm.NewRuntime(ctx)
			defer rt.Close(ctx)

			compiled, err := rt.CompileModule(ctx, bin)
			if err != nil {
				log.WithError(err).Error("compile failed")
				return err
			}
			defer compiled.Close(ctx)

			log.WithField("name", compiled.Name()).Info("compiled OK")
			return nil
		},
	}
}
