// Package format renders marker trees for people and tools.
package format

import (
	"encoding"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/csmark/csharp/parser"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(tree *parser.Tree) error
}

// Options select what encoders include.
type Options struct {
	// Trivia includes comment and directive markers.
	Trivia bool
	// Statements includes statement markers inside bodies.
	Statements bool
}

// DefaultOptions include every marker.
var DefaultOptions = Options{Trivia: true, Statements: true}

func (o Options) keep(m *parser.Marker) bool {
	if m.Kind.IsTrivia() && !o.Trivia {
		return false
	}
	if m.Kind.IsStatement() && !o.Statements {
		return false
	}
	return true
}

// New returns the encoder registered under name: json, line or tree.
func New(name string, w io.Writer, opts Options) (Encoder, error) {
	switch strings.ToLower(name) {
	case "json":
		return NewJSONEncoder(w, opts), nil
	case "line", "lines":
		return NewLineEncoder(w, opts), nil
	case "tree", "":
		return NewTreeEncoder(w, opts), nil
	}
	return nil, fmt.Errorf("unknown format %q (want json, line or tree)", name)
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
