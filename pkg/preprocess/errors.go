package preprocess

import (
	"errors"
	"fmt"
)

// ErrMissingIdentifier is returned by ReadIdentifierBlock when the requested
// keyword block does not exist. It is the only recoverable error in the
// package: callers treat it as "feature not present".
var ErrMissingIdentifier = errors.New("missing identifier block")

// MissingIncludeError reports an include target (or every candidate target
// derived from a custom tag) that does not exist in the include tree.
type MissingIncludeError struct {
	Name string
}

func (e *MissingIncludeError) Error() string {
	return "missing include file: " + e.Name
}

// MissingFunctionError reports a function-call form whose name is neither a
// registered function nor an include file.
type MissingFunctionError struct {
	Name string
}

func (e *MissingFunctionError) Error() string {
	return "missing function: " + e.Name
}

// MissingConstantError reports a constant lookup against a name the constant
// table does not define.
type MissingConstantError struct {
	Name string
}

func (e *MissingConstantError) Error() string {
	return "missing constant: " + e.Name
}

// UnterminatedBlockError reports a {{ ... }} block whose brace nesting never
// returns to zero before the end of the document.
type UnterminatedBlockError struct {
	Offset int
}

func (e *UnterminatedBlockError) Error() string {
	return fmt.Sprintf("unterminated block at offset %d", e.Offset)
}

// ResourceFetchError reports a failed network fetch, either a transport
// error or a non-200 status.
type ResourceFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *ResourceFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to retrieve %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to retrieve %s: status %d", e.URL, e.Status)
}

func (e *ResourceFetchError) Unwrap() error { return e.Err }

// PreambleError reports a PREAMBLE script statement that failed to execute.
type PreambleError struct {
	Stmt   string
	Reason string
}

func (e *PreambleError) Error() string {
	return fmt.Sprintf("preamble statement %q: %s", e.Stmt, e.Reason)
}

// CyclicIncludeError reports an include expansion that exceeded the
// configured depth ceiling, which is almost always a self-referential
// include.
type CyclicIncludeError struct {
	Name  string
	Depth int
}

func (e *CyclicIncludeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("include %s: expansion exceeded depth %d (cyclic include?)", e.Name, e.Depth)
	}
	return fmt.Sprintf("include expansion exceeded depth %d (cyclic include?)", e.Depth)
}
