// Package crosscheck compares the declarations found by the marker scanner
// with those found by the tree-sitter C# grammar. It is a verification aid:
// the scanner must agree with a full grammar on every namespace and type it
// reports.
package crosscheck

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/dhamidi/csmark/csharp/parser"
)

// Decl is a namespace or type declaration.
type Decl struct {
	Kind     parser.Kind
	FullName string
	Line     int
}

func (d Decl) key() string {
	return d.Kind.String() + " " + d.FullName
}

func (d Decl) String() string {
	return fmt.Sprintf("%s %s (line %d)", d.Kind, d.FullName, d.Line)
}

// Result lists declarations found by both sides and by one side only.
type Result struct {
	Matched      []Decl
	OnlyMarkers  []Decl
	OnlyGrammar  []Decl
	GrammarError bool
}

// Agree reports whether both sides found the same declarations.
func (r *Result) Agree() bool {
	return len(r.OnlyMarkers) == 0 && len(r.OnlyGrammar) == 0
}

var nodeKinds = map[string]parser.Kind{
	"namespace_declaration":             parser.KindNamespace,
	"file_scoped_namespace_declaration": parser.KindNamespace,
	"class_declaration":                 parser.KindClass,
	"interface_declaration":             parser.KindInterface,
	"struct_declaration":                parser.KindStruct,
	"enum_declaration":                  parser.KindEnum,
	"record_declaration":                parser.KindRecord,
	"record_struct_declaration":         parser.KindRecord,
	"delegate_declaration":              parser.KindDelegate,
}

// Check parses src with tree-sitter and compares it with tree.
func Check(src []byte, tree *parser.Tree) (*Result, error) {
	grammar, hasErrors, err := GrammarDecls(src)
	if err != nil {
		return nil, err
	}
	res := Compare(MarkerDecls(tree), grammar)
	res.GrammarError = hasErrors
	return res, nil
}

// GrammarDecls returns the declarations tree-sitter finds in src, and
// whether its parse contained error nodes.
func GrammarDecls(src []byte) ([]Decl, bool, error) {
	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(sitter.NewLanguage(tree_sitter_csharp.Language())); err != nil {
		return nil, false, fmt.Errorf("load C# grammar: %w", err)
	}
	tree := p.Parse(src, nil)
	if tree == nil {
		return nil, false, fmt.Errorf("tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	var decls []Decl
	walk(root, src, "", &decls)
	return decls, root.HasError(), nil
}

func walk(node *sitter.Node, src []byte, prefix string, decls *[]Decl) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		kind, ok := nodeKinds[child.Kind()]
		if !ok {
			walk(child, src, prefix, decls)
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			walk(child, src, prefix, decls)
			continue
		}
		full := join(prefix, nameNode.Utf8Text(src))
		*decls = append(*decls, Decl{
			Kind:     kind,
			FullName: full,
			Line:     int(child.StartPosition().Row) + 1,
		})
		walk(child, src, full, decls)
		if child.Kind() == "file_scoped_namespace_declaration" {
			// later siblings belong to the namespace
			prefix = full
		}
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// MarkerDecls returns the namespace and type declarations of a marker tree.
// File-scoped namespaces are reported as namespaces.
func MarkerDecls(tree *parser.Tree) []Decl {
	var decls []Decl
	tree.Walk(func(id parser.MarkerID, m *parser.Marker, _ int) bool {
		switch {
		case m.Kind == parser.KindNamespace || m.Kind == parser.KindFileNamespace:
			decls = append(decls, Decl{Kind: parser.KindNamespace, FullName: m.FullName(), Line: m.StartLine})
		case m.Kind.IsType():
			decls = append(decls, Decl{Kind: m.Kind, FullName: m.FullName(), Line: m.StartLine})
		case m.Kind.IsStatement() || m.Kind.IsTrivia():
			return false
		}
		return true
	})
	return decls
}

// Compare matches declarations by kind and full name. Duplicates, as with
// partial types, are matched one to one.
func Compare(markers, grammar []Decl) *Result {
	pending := make(map[string][]Decl)
	for _, d := range grammar {
		pending[d.key()] = append(pending[d.key()], d)
	}

	res := &Result{}
	for _, d := range markers {
		if queue := pending[d.key()]; len(queue) > 0 {
			res.Matched = append(res.Matched, d)
			pending[d.key()] = queue[1:]
			continue
		}
		res.OnlyMarkers = append(res.OnlyMarkers, d)
	}
	for _, queue := range pending {
		res.OnlyGrammar = append(res.OnlyGrammar, queue...)
	}
	sort.Slice(res.OnlyGrammar, func(i, j int) bool {
		a, b := res.OnlyGrammar[i], res.OnlyGrammar[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.FullName < b.FullName
	})
	return res
}
