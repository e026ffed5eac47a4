package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Load FILE and report every validation violation against the configured dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openWithValidator(args[0], opts)
			if err != nil {
				return err
			}
			report, err := f.Validate()
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			if report.OK() {
				fmt.Fprintln(cmd.OutOrStdout(), "ok: no violations")
				return nil
			}
			for _, e := range report.Errors {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return fmt.Errorf("%d violation(s) found", len(report.Errors))
		},
	}
}
