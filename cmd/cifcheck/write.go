package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newWriteCmd(opts *cliOptions) *cobra.Command {
	var out string
	var tagOrder string

	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "Load FILE and write it back out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openWithValidator(args[0], opts)
			if err != nil {
				return err
			}

			var order []string
			if tagOrder != "" {
				order = strings.Split(tagOrder, ",")
			}

			dest := cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				dest = file
			}
			return f.Save(dest, order)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (defaults to stdout)")
	cmd.Flags().StringVar(&tagOrder, "tag-order", "", "comma-separated list of tags naming categories to hoist first")
	return cmd
}
