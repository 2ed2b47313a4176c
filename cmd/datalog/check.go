package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-dataflow/datalog"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <program.dl>",
		Short: "Validate a program and print its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := readProgram(cmd, args[0])
			if err != nil {
				return err
			}
			diags := datalog.Validate(prog)
			printDiagnostics(cmd, diags)
			if datalog.HasErrors(diags) {
				return errors.Newf("%s: program has errors", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d rules)\n", args[0], len(prog.Rules))
			return nil
		},
	}
}

func printDiagnostics(cmd *cobra.Command, diags []datalog.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
}
