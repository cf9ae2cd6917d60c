package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
)

func newRevParseCmd() *cobra.Command {
	var typeArg string

	cmd := &cobra.Command{
		Use:   "rev-parse [--type <type>] <name>",
		Short: "Resolve a name to a full object digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want object.Format
			if typeArg != "" {
				f, err := object.ParseFormat(typeArg)
				if err != nil {
					return err
				}
				want = f
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := findOne(r, args[0], want)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeArg, "type", "t", "", "peel to an object of this type")
	return cmd
}
