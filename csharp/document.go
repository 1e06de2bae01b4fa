package csharp

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dhamidi/csmark/csharp/parser"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("csmark.document")

// State is the parse state of a Document.
type State int

const (
	// StateUnparsed means text is loaded but has never been scanned.
	StateUnparsed State = iota
	// StateLazy means the last scan failed or the text changed since the
	// last scan. The document needs a re-scan.
	StateLazy
	// StateParsed means the current text was scanned successfully.
	StateParsed
)

var stateNames = map[State]string{
	StateUnparsed: "unparsed",
	StateLazy:     "lazy",
	StateParsed:   "parsed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Source reads the text behind a document path.
type Source interface {
	ReadFile(path string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(path string) ([]byte, error)

func (f SourceFunc) ReadFile(path string) ([]byte, error) {
	return f(path)
}

// OSSource reads documents from the local file system.
var OSSource Source = SourceFunc(os.ReadFile)

// Option configures a Document.
type Option func(*Document)

// WithSource sets where Refresh reads the document text from.
func WithSource(src Source) Option {
	return func(d *Document) {
		d.source = src
	}
}

// WithParserOptions passes options through to every scan.
func WithParserOptions(opts ...parser.Option) Option {
	return func(d *Document) {
		d.parserOpts = append(d.parserOpts, opts...)
	}
}

// snapshot is the immutable result of one successful parse.
type snapshot struct {
	tree  *parser.Tree
	text  string
	lines []string
	info  *AtomicGenerationInfo
}

// Document owns the text of one source file and the marker tree scanned from
// it. Mutating methods serialize on a per-document mutex; Tree and
// GenerationInfo read the last published snapshot without locking.
type Document struct {
	path       string
	source     Source
	parserOpts []parser.Option

	mu         sync.Mutex
	text       string
	lines      []string
	state      State
	errors     []string
	err        error
	generation uint64
	texts      map[parser.MarkerID]string

	current atomic.Pointer[snapshot]
}

// NewDocument creates an unparsed document for path. The path is used in
// error messages and by Refresh.
func NewDocument(path string, opts ...Option) *Document {
	d := &Document{
		path:   path,
		source: OSSource,
		state:  StateUnparsed,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open reads path through the document's Source and parses it.
func Open(path string, opts ...Option) (*Document, error) {
	d := NewDocument(path, opts...)
	if err := d.Refresh(); err != nil {
		return d, err
	}
	return d, nil
}

func (d *Document) Path() string {
	return d.path
}

// Load replaces the document text without scanning it. A previously parsed
// document becomes lazy; its last tree stays published until the next Parse.
func (d *Document) Load(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadLocked(text)
}

func (d *Document) loadLocked(text string) {
	d.text = parser.NormalizeNewlines(text)
	d.lines = parser.SplitLines(d.text)
	if d.state == StateParsed {
		d.state = StateLazy
	}
}

// Parse loads text and scans it. On a syntax error the error is recorded,
// the published tree is dropped and the document becomes lazy.
func (d *Document) Parse(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadLocked(text)
	return d.parseLocked()
}

// Reparse scans the currently loaded text again.
func (d *Document) Reparse() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.parseLocked()
}

// Ensure scans the loaded text unless the document is already parsed, and
// returns the current tree.
func (d *Document) Ensure() (*parser.Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateParsed {
		if err := d.parseLocked(); err != nil {
			return nil, err
		}
	}
	return d.current.Load().tree, nil
}

// Refresh re-reads the document from its Source and parses the new text.
func (d *Document) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.source.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", d.path, err)
	}
	d.loadLocked(string(data))
	return d.parseLocked()
}

func (d *Document) parseLocked() error {
	opts := append([]parser.Option{parser.WithFile(d.path)}, d.parserOpts...)
	d.errors = nil
	d.err = nil
	d.texts = nil

	tree, err := parser.Scan(d.text, opts...)
	if err != nil {
		d.errors = append(d.errors, err.Error())
		d.err = err
		d.state = StateLazy
		d.current.Store(nil)
		log.Debugf("parse %s failed: %v", d.path, err)
		return err
	}

	d.generation++
	snap := &snapshot{tree: tree, text: d.text, lines: d.lines}
	snap.info = newGenerationInfo(d.generation, tree, snap.text, snap.lines)
	d.current.Store(snap)
	d.state = StateParsed
	log.Debugf("parsed %s: %d markers, generation %d", d.path, tree.Len(), d.generation)
	return nil
}

// State returns the current parse state.
func (d *Document) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Succeeded reports whether the last scan succeeded.
func (d *Document) Succeeded() bool {
	return d.current.Load() != nil
}

// Errors returns the messages recorded by the last scan.
func (d *Document) Errors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.errors...)
}

// Err returns the error of the last scan, or nil.
func (d *Document) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Text returns the loaded text with normalized line endings.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Lines returns the loaded text split into lines.
func (d *Document) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines
}

// Tree returns the last successfully scanned tree, or nil. The tree must be
// treated as read-only.
func (d *Document) Tree() *parser.Tree {
	if snap := d.current.Load(); snap != nil {
		return snap.tree
	}
	return nil
}

// Generation counts successful parses of this document.
func (d *Document) Generation() uint64 {
	if snap := d.current.Load(); snap != nil {
		return snap.info.Generation
	}
	return 0
}

// GenerationInfo returns the rendering record of the last successful parse,
// or nil.
func (d *Document) GenerationInfo() *AtomicGenerationInfo {
	if snap := d.current.Load(); snap != nil {
		return snap.info
	}
	return nil
}

// Preamble returns the text before the first namespace declaration.
func (d *Document) Preamble() string {
	if info := d.GenerationInfo(); info != nil {
		return info.Preamble()
	}
	return ""
}

// LoadMarkerText returns the source text a marker spans in the tree it came
// from. Results are cached until the next parse.
func (d *Document) LoadMarkerText(id parser.MarkerID) (string, error) {
	snap := d.current.Load()
	if snap == nil {
		return "", fmt.Errorf("%s: document is not parsed", d.path)
	}
	m := snap.tree.Get(id)
	if m == nil {
		return "", fmt.Errorf("%s: no marker %d", d.path, id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.Load() == snap {
		if text, ok := d.texts[id]; ok {
			return text, nil
		}
	}
	text := sliceText(snap.text, m)
	if d.current.Load() == snap {
		if d.texts == nil {
			d.texts = make(map[parser.MarkerID]string)
		}
		d.texts[id] = text
	}
	return text, nil
}

func sliceText(text string, m *parser.Marker) string {
	start, end := m.StartPos, m.EndPos+1
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}
