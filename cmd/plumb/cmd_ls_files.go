package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLsFilesCmd() *cobra.Command {
	var stage bool

	cmd := &cobra.Command{
		Use:   "ls-files [-s]",
		Short: "List the entries of the staging index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			idx, err := r.ReadIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range idx.Entries {
				if stage {
					fmt.Fprintf(out, "%06o %s %d\t%s\n", e.Mode(), e.Hash, e.Stage, e.Name)
					continue
				}
				fmt.Fprintln(out, e.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&stage, "stage", "s", false, "show mode, digest and stage number")
	return cmd
}
