package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tetratelabs/pwasm"
)

// paramsFlag collects repeated "--param" values, e.g. --param 1 --param 2,
// into the uint64 arguments an exported function's Call expects.
type paramsFlag []uint64

func (p *paramsFlag) String() string {
	s := make([]string, len(*p))
	for i, v := range *p {
		s[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(s, ",")
}

func (p *paramsFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("argument %q is not an unsigned integer: %w", s, err)
	}
	*p = append(*p, v)
	return nil
}

func (p *paramsFlag) Type() string { return "uint64" }

var _ pflag.Value = (*paramsFlag)(nil)

func newRunCmd(log *logrus.Logger) *cobra.Command {
	var invoke string
	var params paramsFlag

	cmd := &cobra.Command{
		Use:   "run <path to wasm file>",
		Short: "Instantiate a WebAssembly binary and call an exported function",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bin, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			rt := pwasm.NewRuntime(ctx)
			defer rt.Close(ctx)

			mod, err := rt.Instantiate(ctx, bin)
			if err != nil {
				log.WithError(err).Error("instantiate failed")
				return err
			}
			defer mod.Close(ctx)

			if invoke == "" {
				log.Info("instantiated OK; nothing to call (use --invoke)")
				return nil
			}

			fn := mod.ExportedFunction(invoke)
			if fn == nil {
				return fmt.Errorf("no exported function named %q", invoke)
			}

			results, err := fn.Call(ctx, []uint64(params)...)
			if err != nil {
				log.WithError(err).Error("call trapped")
				return err
			}
			fmt.Println(results)
			return nil
		},
	}
	cmd.Flags().StringVar(&invoke, "invoke", "", "name of the exported function to call after instantiation")
	cmd.Flags().Var(&params, "param", "uint64 argument to pass to --invoke; may be repeated")
	return cmd
}
