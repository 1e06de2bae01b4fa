package codebase

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/csmark/csharp/parser"
)

const lsName = "csmark"

type LSPServer struct {
	codebase *Codebase
	opts     []Option
	handler  protocol.Handler
	server   *server.Server
	version  string
}

// NewLSPServer creates a language server. The codebase is created on
// initialize, rooted at the client's workspace, with opts applied.
func NewLSPServer(version string, opts ...Option) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
		WorkspaceSymbol:            ls.workspaceSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.codebase = New(rootDir, ls.opts...)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	report, err := ls.codebase.ScanAll(context.Background())
	if err != nil {
		log.Errorf("initial scan: %v", err)
		return nil
	}
	for _, res := range report.Failures() {
		ls.publishDiagnostics(ctx, res.Path)
	}
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publishDiagnostics(ctx, path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.codebase.UpdateFile(path, []byte(textChange.Text))
			ls.publishDiagnostics(ctx, path)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.codebase.UpdateFile(path, []byte(*params.Text))
	} else {
		ls.codebase.ScanFile(path)
	}
	ls.publishDiagnostics(ctx, path)
	return nil
}

func (ls *LSPServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	doc, err := ls.codebase.Document(path)
	if err != nil || doc.Tree() == nil {
		return nil, nil
	}
	return DocumentSymbols(doc.Tree()), nil
}

func (ls *LSPServer) workspaceSymbol(ctx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	var out []protocol.SymbolInformation
	for _, sym := range ls.codebase.SearchTypes(params.Query) {
		pos := protocol.Position{Line: uint32(sym.Line - 1), Character: uint32(sym.Column - 1)}
		container := sym.Namespace
		out = append(out, protocol.SymbolInformation{
			Name: sym.Name,
			Kind: symbolKind(sym.Kind),
			Location: protocol.Location{
				URI:   pathToURI(sym.Path),
				Range: protocol.Range{Start: pos, End: pos},
			},
			ContainerName: &container,
		})
	}
	return out, nil
}

func (ls *LSPServer) publishDiagnostics(ctx *glsp.Context, path string) {
	diagnostics := []protocol.Diagnostic{}
	if f := ls.codebase.GetFile(path); f != nil && f.ParseErr != nil {
		diagnostics = append(diagnostics, Diagnostic(f.ParseErr))
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         pathToURI(path),
		Diagnostics: diagnostics,
	})
}

// Diagnostic converts a parse error to an LSP diagnostic.
func Diagnostic(err error) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lsName
	d := protocol.Diagnostic{
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		d.Message = perr.Message
		start := protocol.Position{Line: uint32(max(perr.Line-1, 0)), Character: uint32(max(perr.Column-1, 0))}
		end := start
		end.Character++
		d.Range = protocol.Range{Start: start, End: end}
	}
	return d
}

// DocumentSymbols converts a marker tree into a nested outline. Comments,
// directives and statements are left out.
func DocumentSymbols(tree *parser.Tree) []protocol.DocumentSymbol {
	var convert func(ids []parser.MarkerID) []protocol.DocumentSymbol
	convert = func(ids []parser.MarkerID) []protocol.DocumentSymbol {
		var out []protocol.DocumentSymbol
		for _, id := range ids {
			m := tree.Get(id)
			switch {
			case m.Kind.IsTrivia(), m.Kind.IsStatement(), m.Kind.IsAccessor():
				continue
			case m.Kind == parser.KindAttribute, m.Kind == parser.KindUsing:
				continue
			}
			name := m.Name
			if name == "" {
				name = m.Kind.String()
			}
			rng := markerRange(m)
			sym := protocol.DocumentSymbol{
				Name:           name,
				Kind:           symbolKind(m.Kind),
				Range:          rng,
				SelectionRange: rng,
				Children:       convert(m.Children),
			}
			if detail := symbolDetail(m); detail != "" {
				sym.Detail = &detail
			}
			out = append(out, sym)
		}
		return out
	}
	return convert(tree.Roots)
}

func markerRange(m *parser.Marker) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(m.StartLine - 1), Character: uint32(m.StartColumn - 1)},
		End:   protocol.Position{Line: uint32(m.EndLine - 1), Character: uint32(m.EndColumn)},
	}
}

func symbolDetail(m *parser.Marker) string {
	switch {
	case m.Kind == parser.KindMethod || m.Kind == parser.KindDelegate:
		return strings.TrimSpace(m.DataType + " " + m.Name + m.Generics + "(" + strings.Join(m.Params, ", ") + ")")
	case m.Kind == parser.KindConstructor:
		return m.Name + "(" + strings.Join(m.Params, ", ") + ")"
	case m.DataType != "":
		return m.DataType
	case m.Kind.IsType() && len(m.Inherits) > 0:
		return ": " + strings.Join(m.Inherits, ", ")
	case m.Value != "":
		return m.Value
	}
	return ""
}

var symbolKinds = map[parser.Kind]protocol.SymbolKind{
	parser.KindNamespace:     protocol.SymbolKindNamespace,
	parser.KindFileNamespace: protocol.SymbolKindNamespace,
	parser.KindClass:         protocol.SymbolKindClass,
	parser.KindRecord:        protocol.SymbolKindClass,
	parser.KindInterface:     protocol.SymbolKindInterface,
	parser.KindStruct:        protocol.SymbolKindStruct,
	parser.KindEnum:          protocol.SymbolKindEnum,
	parser.KindEnumValue:     protocol.SymbolKindEnumMember,
	parser.KindDelegate:      protocol.SymbolKindFunction,
	parser.KindEvent:         protocol.SymbolKindEvent,
	parser.KindConst:         protocol.SymbolKindConstant,
	parser.KindOperator:      protocol.SymbolKindOperator,
	parser.KindConversion:    protocol.SymbolKindOperator,
	parser.KindConstructor:   protocol.SymbolKindConstructor,
	parser.KindDestructor:    protocol.SymbolKindMethod,
	parser.KindIndexer:       protocol.SymbolKindProperty,
	parser.KindProperty:      protocol.SymbolKindProperty,
	parser.KindField:         protocol.SymbolKindField,
	parser.KindMethod:        protocol.SymbolKindMethod,
}

func symbolKind(kind parser.Kind) protocol.SymbolKind {
	if k, ok := symbolKinds[kind]; ok {
		return k
	}
	return protocol.SymbolKindFunction
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
