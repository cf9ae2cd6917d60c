package repo

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/plumb/pkg/object"
)

// CommitOptions describes a commit object to build with CommitTree.
type CommitOptions struct {
	Tree      object.Hash
	Parents   []object.Hash
	Author    string // "Name <email>"; see Identity
	Committer string // defaults to Author
	When      time.Time
	Message   string
	Signer    ssh.Signer // optional
}

// CommitTree writes a commit object for opts and returns its digest. The
// tree and every parent must already be stored with the right format. No
// reference is moved.
func (r *Repo) CommitTree(opts CommitOptions) (object.Hash, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return "", fmt.Errorf("commit tree: message is required")
	}
	if err := r.expectFormat(opts.Tree, object.FormatTree); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	for _, p := range opts.Parents {
		if err := r.expectFormat(p, object.FormatCommit); err != nil {
			return "", fmt.Errorf("commit tree: parent: %w", err)
		}
	}
	when := opts.When
	if when.IsZero() {
		when = time.Now()
	}
	committer := opts.Committer
	if committer == "" {
		committer = opts.Author
	}

	c := &object.Commit{}
	c.Add("tree", []byte(opts.Tree))
	for _, p := range opts.Parents {
		c.Add("parent", []byte(p))
	}
	c.Add("author", []byte(Identity(opts.Author, when)))
	c.Add("committer", []byte(Identity(committer, when)))
	c.Message = []byte(opts.Message)
	if !strings.HasSuffix(opts.Message, "\n") {
		c.Message = append(c.Message, '\n')
	}

	if opts.Signer != nil {
		if err := object.SignRecord(&c.Record, opts.Signer); err != nil {
			return "", fmt.Errorf("commit tree: %w", err)
		}
	}

	h, err := r.Store.Write(c)
	if err != nil {
		return "", fmt.Errorf("commit tree: write commit: %w", err)
	}
	return h, nil
}

// LogEntry is one commit visited by Log, with the digest it is stored under.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks first-parent history from start, newest first, returning at
// most limit commits. A missing parent ends the walk.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start
	for len(entries) < limit {
		if !r.Store.Has(current) {
			break
		}
		o, err := r.Store.Read(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		c, ok := o.(*object.Commit)
		if !ok {
			return nil, fmt.Errorf("log: %s is a %s, not a commit", current, o.Format())
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		parents := c.Parents()
		if len(parents) == 0 {
			break
		}
		current = parents[0]
	}
	return entries, nil
}

func (r *Repo) expectFormat(h object.Hash, want object.Format) error {
	f, _, err := r.Store.ReadRaw(h)
	if err != nil {
		return err
	}
	if f != want {
		return fmt.Errorf("%s is a %s, not a %s", h, f, want)
	}
	return nil
}
