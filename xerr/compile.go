package xerr

import "github.com/pkg/errors"

// CompileError reports a problem the expression or policy compiler found
// while lowering an AST node: a target provably always-false, a duplicate
// variable, a malformed regex, an attribute-finder applied to Undefined,
// and the rest of the compile-time error taxonomy in §4.5/§4.2.
type CompileError struct {
	what string
	node string // the node's String() rendering, for diagnostics
}

func (e CompileError) Error() string {
	return "compile error: " + e.what + " (" + e.node + ")"
}

func ErrCompile(what, node string) error {
	return errors.WithStack(CompileError{what: what, node: node})
}

// EvalError reports a value produced by a failed evaluation where the
// caller needs a Go error rather than an in-band value.Value{Kind: Error}
// (the core model itself keeps evaluation errors as values per §7; this
// type exists for host-facing boundaries like pdp/cmd that need to
// surface a Go error, e.g. a retrieval-point plumbing failure that
// prevented evaluation from starting at all).
type EvalError struct {
	message string
}

func (e EvalError) Error() string { return "evaluation error: " + e.message }

func ErrEval(message string) error {
	return errors.WithStack(EvalError{message: message})
}

// RetrievalError mirrors §6's PolicyRetrievalPoint RetrievalError{name, message}.
type RetrievalError struct {
	Name    string
	Message string
}

func (e RetrievalError) Error() string { return "retrieval error: " + e.Name + ": " + e.Message }

func ErrRetrieval(name, message string) error {
	return errors.WithStack(RetrievalError{Name: name, Message: message})
}
