package shuffle

import (
	"errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorString(t *testing.T) {
	err := &ParseError{Line: 3, Column: 7, Message: "unexpected '}'"}
	assert.Equal(t, "3:7: unexpected '}'", err.Error())

	err.File = "css/site.css"
	assert.Equal(t, "css/site.css:3:7: unexpected '}'", err.Error())
}

func TestNewParseError(t *testing.T) {
	src := []byte("a\nbc\ndef")

	err := newParseError(src, 6, "boom")
	assert.Equal(t, 3, err.Line)
	assert.Equal(t, 2, err.Column)
	assert.Equal(t, 6, err.Offset)

	// past the end is clamped
	err = newParseError(src, 100, "boom")
	assert.Equal(t, len(src), err.Offset)
	assert.Equal(t, "a\nbc\ndef", string(src))
}

func TestIOError(t *testing.T) {
	err := &IOError{Op: "read", File: "index.html", Err: fs.ErrPermission}
	assert.Equal(t, "read index.html: permission denied", err.Error())
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestErrorCollector(t *testing.T) {
	ec := NewErrorCollector()
	assert.False(t, ec.HasErrors())
	ec.Add(nil)
	assert.False(t, ec.HasErrors())

	var wg sync.WaitGroup
	for _, err := range []error{
		&ParseError{File: "b.css", Line: 9, Column: 1, Message: "late"},
		&IOError{Op: "read", File: "c.html", Err: fs.ErrNotExist},
		&ParseError{File: "b.css", Line: 2, Column: 5, Message: "early"},
		&ParseError{File: "a.css", Line: 4, Column: 1, Message: "first"},
		&ParseError{File: "b.css", Line: 2, Column: 1, Message: "earlier"},
	} {
		wg.Add(1)
		go func(err error) {
			defer wg.Done()
			ec.Add(err)
		}(err)
	}
	wg.Wait()

	require.True(t, ec.HasErrors())
	errs := ec.Errors()
	require.Len(t, errs, 5)

	var got []string
	for _, err := range errs {
		got = append(got, err.Error())
	}
	assert.Equal(t, []string{
		"a.css:4:1: first",
		"b.css:2:1: earlier",
		"b.css:2:5: early",
		"b.css:9:1: late",
		"read c.html: file does not exist",
	}, got)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "parse", ErrorKind(&ParseError{}))
	assert.Equal(t, "io", ErrorKind(&IOError{Err: fs.ErrNotExist}))
	assert.Equal(t, "error", ErrorKind(errors.New("other")))
}
