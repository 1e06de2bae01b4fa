package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax marks a span that cannot begin any declaration. It aborts the
	// whole parse.
	ErrSyntax = errors.New("syntax error")

	// ErrNoMatch marks a span the classifier does not recognize. The scanner
	// treats the span as opaque code and continues.
	ErrNoMatch = errors.New("no declaration match")
)

// ParseError is a syntax error with location information.
type ParseError struct {
	Message string
	Offset  int
	Line    int
	Column  int
	File    string
	Source  string // the source line where the error occurred
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// FormatError renders the error with the offending source line and a caret.
func (e *ParseError) FormatError() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "%s:%d:%d: error: %s\n", e.File, e.Line, e.Column, e.Message)
	} else {
		fmt.Fprintf(&b, "line %d, column %d: error: %s\n", e.Line, e.Column, e.Message)
	}
	if e.Source == "" {
		return b.String()
	}
	b.WriteString(e.Source)
	b.WriteString("\n")
	for i := 0; i < e.Column-1; i++ {
		if i < len(e.Source) && e.Source[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^\n")
	return b.String()
}
