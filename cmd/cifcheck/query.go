package main

import (
	"fmt"
	"strings"

	"github.com/odcambc/libcifpp"
	"github.com/spf13/cobra"
)

func newQueryCmd(opts *cliOptions) *cobra.Command {
	var eq []string
	var block string

	cmd := &cobra.Command{
		Use:   "query FILE CATEGORY",
		Short: "Print every row of CATEGORY whose fields match the given --eq filters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openWithValidator(args[0], opts)
			if err != nil {
				return err
			}
			b := firstOrNamedBlock(f, block)
			if b == nil {
				return fmt.Errorf("no data block found")
			}
			cat := b.Category(args[1])
			if cat == nil {
				return fmt.Errorf("category %q not present in data block %q", args[1], b.Name())
			}

			cnd, err := conditionFromFlags(eq)
			if err != nil {
				return err
			}

			cols := cat.Columns()
			rows := cif.Find(cat, cnd)
			out := cmd.OutOrStdout()
			for _, row := range rows {
				fields := make([]string, len(cols))
				for i, col := range cols {
					fields[i] = col + "=" + cat.Value(row, col).String()
				}
				fmt.Fprintln(out, strings.Join(fields, " "))
			}
			fmt.Fprintf(out, "%d row(s)\n", len(rows))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&eq, "eq", nil, "tag=value filter, ANDed with any other --eq flags (repeatable)")
	cmd.Flags().StringVar(&block, "block", "", "data block name (defaults to the file's first block)")
	return cmd
}

func firstOrNamedBlock(f *cif.File, name string) *cif.DataBlock {
	if name != "" {
		return f.Block(name)
	}
	blocks := f.Blocks()
	if len(blocks) == 0 {
		return nil
	}
	return blocks[0]
}

// conditionFromFlags builds an And of KeyEquals conditions from a list of
// "tag=value" strings, or All() if none were given.
func conditionFromFlags(eq []string) (*cif.Condition, error) {
	if len(eq) == 0 {
		return cif.All(), nil
	}
	children := make([]*cif.Condition, 0, len(eq))
	for _, e := range eq {
		tag, value, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("--eq %q is not of the form tag=value", e)
		}
		children = append(children, cif.KeyEquals(tag, value))
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return cif.And(children...), nil
}
