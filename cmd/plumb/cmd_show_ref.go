package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/repo"
)

func newShowRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-ref",
		Short: "List references and the digests they resolve to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			refs, err := r.ListRefs()
			if err != nil {
				return err
			}
			for _, name := range repo.SortedRefNames(refs) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", refs[name], name)
			}
			return nil
		},
	}
}
