package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
)

func newCommitTreeCmd() *cobra.Command {
	var parents []string
	var message string
	var author string
	var sign bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>]... -m <msg>",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			opts := repo.CommitOptions{Author: author, Message: message}
			if opts.Tree, err = findOne(r, args[0], object.FormatTree); err != nil {
				return err
			}
			for _, p := range parents {
				ph, err := findOne(r, p, object.FormatCommit)
				if err != nil {
					return fmt.Errorf("parent %s: %w", p, err)
				}
				opts.Parents = append(opts.Parents, ph)
			}
			if sign || signingKey != "" {
				if opts.Signer, _, err = loadSSHSigner(signingKey); err != nil {
					return err
				}
			}

			h, err := r.CommitTree(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "author identity (default: $USER)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "SSH private key path (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	return cmd
}
