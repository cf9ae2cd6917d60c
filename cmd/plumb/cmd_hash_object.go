package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
)

func newHashObjectCmd() *cobra.Command {
	var (
		write   bool
		typeArg string
		stdin   bool
	)

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t <type>] (--stdin | <file>)",
		Short: "Compute an object digest and optionally store the object",
		Args: func(cmd *cobra.Command, args []string) error {
			if stdin {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := object.ParseFormat(typeArg)
			if err != nil {
				return err
			}

			var data []byte
			if stdin {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			if _, err := object.Unmarshal(f, data); err != nil {
				return err
			}

			h := object.HashObject(f, data)
			if write {
				r, err := openRepo()
				if err != nil {
					return err
				}
				if h, err = r.Store.WriteRaw(f, data); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the object store")
	cmd.Flags().StringVarP(&typeArg, "type", "t", string(object.FormatBlob), "object type")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read the object from standard input")
	return cmd
}
