package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/plumb/pkg/object"
	"github.com/odvcencio/plumb/pkg/repo"
)

// repoDir is the directory commands start their repository search from.
var repoDir = "."

func main() {
	if err := newRootCmd().Execute(); err != nil {
		renderError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "plumb",
		Short:         "Content-addressed object store plumbing for git repositories",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), verbose)
		},
	}
	root.PersistentFlags().StringVarP(&repoDir, "directory", "C", ".", "run as if started in `dir`")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug detail to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newLsTreeCmd())
	root.AddCommand(newLsFilesCmd())
	root.AddCommand(newRevParseCmd())
	root.AddCommand(newShowRefCmd())
	root.AddCommand(newUpdateRefCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newCommitTreeCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newVerifyCommitCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "plumb 0.1.0-dev")
		},
	}
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func openRepo() (*repo.Repo, error) {
	return repo.Open(repoDir)
}

// renderError prints err the way git does, prefixed with its kind when it
// has one. Ambiguous names list every candidate.
func renderError(w io.Writer, err error) {
	var amb *object.AmbiguousReferenceError
	if errors.As(err, &amb) {
		fmt.Fprintf(w, "fatal: %s: %q is ambiguous\n", object.ErrAmbiguousReference, amb.Name)
		for _, c := range amb.Candidates {
			fmt.Fprintf(w, "  candidate %s\n", c)
		}
		return
	}
	if kind := object.Category(err); kind != "" {
		fmt.Fprintf(w, "fatal: %s: %v\n", kind, err)
		return
	}
	fmt.Fprintf(w, "fatal: %v\n", err)
}

// findOne resolves name to an object of format want, following tags and
// commits. A name that resolves but never reaches want is an error.
func findOne(r *repo.Repo, name string, want object.Format) (object.Hash, error) {
	h, ok, err := r.Find(name, want, true)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s does not name a %s", name, want)
	}
	return h, nil
}
