package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
)

func newCatFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat-file <type> <object>",
		Short: "Print the payload of an object",
		Long: "Print the serialized payload of <object>. Annotated tags are peeled\n" +
			"and commits lead to their tree until an object of <type> is found.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := object.ParseFormat(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := findOne(r, args[1], want)
			if err != nil {
				return err
			}
			_, payload, err := r.Store.ReadRaw(h)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}
}
