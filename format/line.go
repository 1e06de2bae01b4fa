package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/csmark/csharp/parser"
)

// LineEncoder writes one tab-separated line per marker:
//
//	depth kind full-name start-line:col end-line:col modifiers detail
//
// Empty columns are written as "-".
type LineEncoder struct {
	w    io.Writer
	opts Options
	tree *parser.Tree
}

func NewLineEncoder(w io.Writer, opts Options) *LineEncoder {
	return &LineEncoder{w: w, opts: opts}
}

func (e *LineEncoder) Encode(tree *parser.Tree) error {
	e.tree = tree
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	e.tree.Walk(func(id parser.MarkerID, m *parser.Marker, depth int) bool {
		if !e.opts.keep(m) {
			return false
		}
		fmt.Fprintf(&sb, "%d\t%s\t%s\t%d:%d\t%d:%d\t%s\t%s\n",
			depth,
			strings.ToLower(m.Kind.String()),
			dash(fullName(m)),
			m.StartLine, m.StartColumn,
			m.EndLine, m.EndColumn,
			dash(strings.Join(m.Modifiers.Keywords(), ",")),
			dash(Detail(m)),
		)
		return true
	})
	return []byte(sb.String()), nil
}

// Detail summarizes the shape of a marker in one line.
func Detail(m *parser.Marker) string {
	var parts []string
	switch {
	case m.Kind == parser.KindMethod || m.Kind == parser.KindDelegate || m.Kind == parser.KindOperator:
		parts = append(parts, m.DataType+m.Generics+"("+strings.Join(m.Params, ", ")+")")
	case m.Kind == parser.KindConstructor || m.Kind == parser.KindDestructor:
		parts = append(parts, "("+strings.Join(m.Params, ", ")+")")
	case m.Kind == parser.KindIndexer:
		parts = append(parts, m.DataType+"["+strings.Join(m.Params, ", ")+"]")
	case m.Kind.IsType():
		if m.Generics != "" {
			parts = append(parts, m.Generics)
		}
		if len(m.Params) > 0 {
			parts = append(parts, "("+strings.Join(m.Params, ", ")+")")
		}
		if len(m.Inherits) > 0 {
			parts = append(parts, ": "+strings.Join(m.Inherits, ", "))
		}
		if m.Where != "" {
			parts = append(parts, m.Where)
		}
	case m.DataType != "":
		parts = append(parts, m.DataType)
	}
	switch {
	case m.Value == "" || m.Kind.IsComment():
	case m.Kind == parser.KindEnumValue || m.Kind == parser.KindField || m.Kind == parser.KindConst ||
		m.Kind == parser.KindProperty || m.Kind == parser.KindEvent:
		parts = append(parts, "= "+m.Value)
	default:
		parts = append(parts, m.Value)
	}
	if m.Import != nil {
		parts = append(parts, "import "+m.Import.Library)
	}
	return strings.Join(parts, " ")
}

// fullName is empty for unnamed markers such as comments and statements,
// which would otherwise report their parent's path.
func fullName(m *parser.Marker) string {
	if m.Name == "" {
		return ""
	}
	return m.FullName()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
