package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warpfork/go-errcat"

	"github.com/odvcencio/plumb/pkg/object"
)

func newLsTreeCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] <tree-ish> [path]",
		Short: "List the contents of a tree object",
		Long: "List the contents of <tree-ish>. With [path], list the subtree it\n" +
			"names, or print the single entry when it names a file.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := findOne(r, args[0], object.FormatTree)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return listTree(cmd.OutOrStdout(), r.Store, h, "", recursive)
			}
			leaf, err := lookupPath(r.Store, h, args[1])
			if err != nil {
				return err
			}
			name := path.Clean(args[1])
			if leaf.IsDir() {
				return listTree(cmd.OutOrStdout(), r.Store, leaf.Hash, name, recursive)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\t%s\n", leaf.Mode, leafFormat(leaf), leaf.Hash, name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}

func readTree(s *object.Store, h object.Hash) (*object.Tree, error) {
	o, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	tree, ok := o.(*object.Tree)
	if !ok {
		return nil, errcat.Errorf(object.ErrCorruptTree, "%s is a %s, not a tree", h, o.Format())
	}
	return tree, nil
}

// lookupPath walks slash-separated p from the tree at root.
func lookupPath(s *object.Store, root object.Hash, p string) (object.Leaf, error) {
	parts := strings.Split(strings.Trim(path.Clean(p), "/"), "/")
	h := root
	var leaf object.Leaf
	for i, part := range parts {
		tree, err := readTree(s, h)
		if err != nil {
			return object.Leaf{}, err
		}
		l, ok := tree.Find(part)
		if !ok || (i < len(parts)-1 && !l.IsDir()) {
			return object.Leaf{}, errcat.Errorf(object.ErrNotFound, "path %q not found in %s", p, root)
		}
		leaf, h = l, l.Hash
	}
	return leaf, nil
}

func listTree(w io.Writer, s *object.Store, h object.Hash, prefix string, recursive bool) error {
	tree, err := readTree(s, h)
	if err != nil {
		return err
	}

	for _, leaf := range tree.Leaves {
		name := path.Join(prefix, leaf.Path)
		if recursive && leaf.IsDir() {
			if err := listTree(w, s, leaf.Hash, name, recursive); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%s %s %s\t%s\n", leaf.Mode, leafFormat(leaf), leaf.Hash, name)
	}
	return nil
}

func leafFormat(l object.Leaf) object.Format {
	switch {
	case l.IsDir():
		return object.FormatTree
	case l.Mode == object.ModeGitlink:
		return object.FormatCommit
	default:
		return object.FormatBlob
	}
}
