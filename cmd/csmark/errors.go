package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dhamidi/csmark/csharp/parser"
)

// reportError prints syntax errors with their source line and a caret.
func reportError(w io.Writer, err error) {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		fmt.Fprint(w, perr.FormatError())
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
