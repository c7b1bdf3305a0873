package shuffle

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/tdewolff/parse/v2"
)

// ParseError reports a fragment that could not be tokenized. The fragment
// contributes no identifiers and is left as written.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Offset  int
	Message string
	Context string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// newParseError positions a syntax error at offset within src.
func newParseError(src []byte, offset int, message string) *ParseError {
	if offset > len(src) {
		offset = len(src)
	}
	// full slice expression so the input never writes past len(src)
	perr := parse.NewError(bytes.NewBuffer(src[:len(src):len(src)]), offset, message)
	return &ParseError{
		Line:    perr.Line,
		Column:  perr.Column,
		Offset:  offset,
		Message: message,
		Context: perr.Context,
	}
}

// IOError reports a file that could not be read, written or copied.
type IOError struct {
	Op   string
	File string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ErrorCollector gathers per-file problems from concurrent workers.
type ErrorCollector struct {
	errs []error
	mu   sync.RWMutex
}

// NewErrorCollector creates an empty collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{errs: make([]error, 0)}
}

// Add records err. Nil errors are ignored.
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.errs = append(ec.errs, err)
}

// HasErrors reports whether anything was collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.errs) > 0
}

// Errors returns the collected errors ordered by file and position.
func (ec *ErrorCollector) Errors() []error {
	ec.mu.RLock()
	out := make([]error, len(ec.errs))
	copy(out, ec.errs)
	ec.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		fi, li, ci := errorPosition(out[i])
		fj, lj, cj := errorPosition(out[j])
		if fi != fj {
			return fi < fj
		}
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
	return out
}

// errorPosition extracts file, line and column for sorting and reporting.
func errorPosition(err error) (string, int, int) {
	switch e := err.(type) {
	case *ParseError:
		return e.File, e.Line, e.Column
	case *IOError:
		return e.File, 0, 0
	}
	return "", 0, 0
}

// ErrorKind names the kind of a collected problem.
func ErrorKind(err error) string {
	switch err.(type) {
	case *ParseError:
		return "parse"
	case *IOError:
		return "io"
	}
	return "error"
}
