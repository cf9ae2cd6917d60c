package object

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory names a kind of failure. Errors produced by this module carry
// one of the categories below; use Category to recover it from a wrapped error.
type ErrorCategory string

const (
	ErrNotFound                = ErrorCategory("object-not-found")
	ErrCorruptObject           = ErrorCategory("corrupt-object")
	ErrCorruptTree             = ErrorCategory("corrupt-tree")
	ErrCorruptIndex            = ErrorCategory("corrupt-index")
	ErrUnsupportedFormat       = ErrorCategory("unsupported-format")
	ErrUnsupportedIndexVersion = ErrorCategory("unsupported-index-version")
	ErrUnknownReference        = ErrorCategory("unknown-reference")
	ErrAmbiguousReference      = ErrorCategory("ambiguous-reference")
)

// Category returns the ErrorCategory attached to err or to any error it
// wraps. It returns the empty category for uncategorized errors.
func Category(err error) ErrorCategory {
	var c interface{ Category() interface{} }
	if !errors.As(err, &c) {
		return ""
	}
	cat, _ := c.Category().(ErrorCategory)
	return cat
}

// AmbiguousReferenceError reports a name that resolved to more than one
// object.
type AmbiguousReferenceError struct {
	Name       string
	Candidates []Hash
}

func (e *AmbiguousReferenceError) Error() string {
	return e.Message()
}

func (e *AmbiguousReferenceError) Category() interface{} {
	return ErrAmbiguousReference
}

func (e *AmbiguousReferenceError) Message() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = string(c)
	}
	return fmt.Sprintf("ambiguous reference %q: candidates are %s", e.Name, strings.Join(names, ", "))
}

func (e *AmbiguousReferenceError) Details() map[string]string {
	d := make(map[string]string, len(e.Candidates)+1)
	d["name"] = e.Name
	for i, c := range e.Candidates {
		d[fmt.Sprintf("candidate.%d", i)] = string(c)
	}
	return d
}
