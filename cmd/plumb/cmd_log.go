package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [commit]",
		Short: "Show first-parent commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			start := "HEAD"
			if len(args) == 1 {
				start = args[0]
			}
			h, err := findOne(r, start, object.FormatCommit)
			if err != nil {
				return err
			}

			commits, err := r.Log(h, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range commits {
				author, _ := e.Commit.Get("author")
				subject, _, _ := bytes.Cut(e.Commit.Message, []byte("\n"))
				fmt.Fprintf(out, "commit %s\nAuthor: %s\n\n    %s\n\n", e.Hash, author, subject)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 20, "limit the number of commits shown")
	return cmd
}
