package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/plumb/pkg/object"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every loose object hashes to its name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			report, err := r.Store.Verify()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d loose object(s)\n", report.Objects)
			return nil
		},
	}
}

func newVerifyCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <commit>",
		Short: "Check the SSH signature of a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := findOne(r, args[0], object.FormatCommit)
			if err != nil {
				return err
			}
			o, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			c := o.(*object.Commit)

			pub, err := object.VerifyRecord(&c.Record)
			if err != nil {
				return fmt.Errorf("commit %s: %w", h, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Good %s signature for %s with key %s\n", pub.Type(), h, ssh.FingerprintSHA256(pub))
			return nil
		},
	}
}
