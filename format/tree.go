package format

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dhamidi/csmark/csharp/parser"
)

type treeStyles struct {
	File      lipgloss.Style
	Container lipgloss.Style
	Member    lipgloss.Style
	Statement lipgloss.Style
	Trivia    lipgloss.Style
	Name      lipgloss.Style
	Dim       lipgloss.Style
}

func newTreeStyles(color bool) *treeStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return &treeStyles{plain, plain, plain, plain, plain, plain, plain}
	}
	return &treeStyles{
		File:      lipgloss.NewStyle().Bold(true),
		Container: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Member:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Statement: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Trivia:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Name:      lipgloss.NewStyle().Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// ColorEnabled reports whether output to w should be styled. Mode is
// "always", "never" or "auto"; auto styles terminals unless NO_COLOR is set.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// TreeEncoder draws the marker tree as an indented outline.
type TreeEncoder struct {
	w      io.Writer
	opts   Options
	tree   *parser.Tree
	styles *treeStyles
}

// NewTreeEncoder styles output when w is a terminal.
func NewTreeEncoder(w io.Writer, opts Options) *TreeEncoder {
	return &TreeEncoder{w: w, opts: opts, styles: newTreeStyles(ColorEnabled("auto", w))}
}

// SetColor forces styling on or off.
func (e *TreeEncoder) SetColor(on bool) {
	e.styles = newTreeStyles(on)
}

func (e *TreeEncoder) Encode(tree *parser.Tree) error {
	e.tree = tree
	return write(e.w, e)
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	title := e.tree.File
	if title == "" {
		title = "<input>"
	}
	sb.WriteString(e.styles.File.Render(title))
	sb.WriteByte('\n')
	e.draw(&sb, e.tree.Roots, "")
	return []byte(sb.String()), nil
}

func (e *TreeEncoder) draw(sb *strings.Builder, ids []parser.MarkerID, indent string) {
	var kept []*parser.Marker
	for _, id := range ids {
		if m := e.tree.Get(id); e.opts.keep(m) {
			kept = append(kept, m)
		}
	}
	for i, m := range kept {
		branch, next := "├── ", "│   "
		if i == len(kept)-1 {
			branch, next = "└── ", "    "
		}
		sb.WriteString(e.styles.Dim.Render(indent + branch))
		sb.WriteString(e.label(m))
		sb.WriteByte('\n')
		e.draw(sb, m.Children, indent+next)
	}
}

func (e *TreeEncoder) label(m *parser.Marker) string {
	kind := strings.ToLower(m.Kind.String())
	var style lipgloss.Style
	switch {
	case m.Kind.IsTrivia():
		style = e.styles.Trivia
	case m.Kind.IsStatement():
		style = e.styles.Statement
	case m.Kind.IsContainer() || m.Kind.IsType():
		style = e.styles.Container
	default:
		style = e.styles.Member
	}

	parts := []string{style.Render(kind)}
	if mods := m.Modifiers.Keywords(); len(mods) > 0 {
		parts = append(parts, strings.Join(mods, " "))
	}
	if m.Name != "" {
		parts = append(parts, e.styles.Name.Render(m.Name))
	}
	if detail := Detail(m); detail != "" {
		parts = append(parts, detail)
	}
	parts = append(parts, e.styles.Dim.Render(fmt.Sprintf("[%d:%d-%d:%d]", m.StartLine, m.StartColumn, m.EndLine, m.EndColumn)))
	return strings.Join(parts, " ")
}
