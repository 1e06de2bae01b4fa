package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/csmark/csharp/parser"
)

type JSONEncoder struct {
	w    io.Writer
	opts Options
	tree *parser.Tree
}

func NewJSONEncoder(w io.Writer, opts Options) *JSONEncoder {
	return &JSONEncoder{w: w, opts: opts}
}

func (e *JSONEncoder) Encode(tree *parser.Tree) error {
	e.tree = tree
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := json.MarshalIndent(e.buildTree(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

type jsonTree struct {
	File       string        `json:"file,omitempty"`
	Preamble   jsonRange     `json:"preamble"`
	Unresolved []string      `json:"unresolved,omitempty"`
	Markers    []*jsonMarker `json:"markers"`
}

type jsonRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type jsonMarker struct {
	Kind              string        `json:"kind"`
	Name              string        `json:"name,omitempty"`
	FullName          string        `json:"fullName,omitempty"`
	Generics          string        `json:"generics,omitempty"`
	DataType          string        `json:"dataType,omitempty"`
	Params            []string      `json:"params,omitempty"`
	Inherits          []string      `json:"inherits,omitempty"`
	Where             string        `json:"where,omitempty"`
	Attributes        []string      `json:"attributes,omitempty"`
	Value             string        `json:"value,omitempty"`
	ExplicitInterface string        `json:"explicitInterface,omitempty"`
	Modifiers         []string      `json:"modifiers,omitempty"`
	Import            *jsonImport   `json:"import,omitempty"`
	Span              jsonSpan      `json:"span"`
	Unresolved        []string      `json:"unresolved,omitempty"`
	Children          []*jsonMarker `json:"children,omitempty"`
}

type jsonImport struct {
	Library    string `json:"library"`
	EntryPoint string `json:"entryPoint,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (e *JSONEncoder) buildTree() jsonTree {
	t := e.tree
	return jsonTree{
		File:       t.File,
		Preamble:   jsonRange{Start: t.PreambleStart, End: t.PreambleEnd},
		Unresolved: t.Unresolved,
		Markers:    e.buildMarkers(t.Roots),
	}
}

func (e *JSONEncoder) buildMarkers(ids []parser.MarkerID) []*jsonMarker {
	out := []*jsonMarker{}
	for _, id := range ids {
		m := e.tree.Get(id)
		if !e.opts.keep(m) {
			continue
		}
		jm := &jsonMarker{
			Kind:              m.Kind.String(),
			Name:              m.Name,
			Generics:          m.Generics,
			DataType:          m.DataType,
			Params:            m.Params,
			Inherits:          m.Inherits,
			Where:             m.Where,
			Attributes:        m.Attributes,
			Value:             m.Value,
			ExplicitInterface: m.ExplicitInterface,
			Modifiers:         m.Modifiers.Keywords(),
			Span: jsonSpan{
				Start: jsonPosition{Offset: m.StartPos, Line: m.StartLine, Column: m.StartColumn},
				End:   jsonPosition{Offset: m.EndPos, Line: m.EndLine, Column: m.EndColumn},
			},
			Unresolved: m.Unresolved,
		}
		if m.Name != "" {
			jm.FullName = m.FullName()
		}
		if m.Import != nil {
			jm.Import = &jsonImport{Library: m.Import.Library, EntryPoint: m.Import.EntryPoint}
		}
		if children := e.buildMarkers(m.Children); len(children) > 0 {
			jm.Children = children
		}
		out = append(out, jm)
	}
	return out
}
