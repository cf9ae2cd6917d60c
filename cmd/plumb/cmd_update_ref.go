package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newUpdateRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-ref <ref> <name>",
		Short: "Point a reference at the object <name> resolves to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]
			if ref != "HEAD" && !strings.HasPrefix(ref, "refs/") {
				return fmt.Errorf("update-ref: %q is not a full reference name", ref)
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := findOne(r, args[1], "")
			if err != nil {
				return err
			}
			if ref == "HEAD" {
				target, symbolic, err := r.Head()
				if err != nil {
					return err
				}
				if symbolic {
					ref = target
				}
			}
			return r.UpdateRef(ref, h)
		},
	}
}
