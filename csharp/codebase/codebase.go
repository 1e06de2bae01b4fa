package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/csmark/csharp"
	"github.com/dhamidi/csmark/csharp/parser"
)

var log = commonlog.GetLogger("csmark.codebase")

const (
	DefaultCacheSize = 256
	DefaultJobs      = 4
)

// Status is the outcome of scanning one file.
type Status string

const (
	StatusParsed    Status = "parsed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"
)

// Symbol is a type declaration found in a file.
type Symbol struct {
	Name      string
	FullName  string
	Namespace string
	Kind      parser.Kind
	Path      string
	Line      int
	Column    int
}

// FileInfo summarizes the last scan of one file. It stays in the codebase
// after the file's document is evicted from the cache.
type FileInfo struct {
	Path       string
	Hash       uint64
	Size       int
	Markers    int
	Namespaces []string
	Types      []Symbol
	ParseErr   error
}

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	files   map[string]*FileInfo
	docs    *lru.Cache[string, *csharp.Document]
	types   map[string]*Symbol
	byNS    map[string][]*Symbol

	include []string
	exclude []string
	defines []string
	jobs    int
	source  csharp.Source
}

type Option func(*Codebase)

// WithInclude limits scans to paths matching one of the doublestar patterns,
// relative to the root directory. Without patterns every .cs file matches.
func WithInclude(patterns ...string) Option {
	return func(c *Codebase) {
		c.include = append(c.include, patterns...)
	}
}

// WithExclude skips paths matching any of the patterns.
func WithExclude(patterns ...string) Option {
	return func(c *Codebase) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithDefines sets the preprocessor symbols used for every file.
func WithDefines(symbols ...string) Option {
	return func(c *Codebase) {
		c.defines = append(c.defines, symbols...)
	}
}

// WithJobs bounds the number of files parsed concurrently by ScanAll.
func WithJobs(n int) Option {
	return func(c *Codebase) {
		if n > 0 {
			c.jobs = n
		}
	}
}

// WithCacheSize bounds the number of parsed documents kept in memory.
func WithCacheSize(n int) Option {
	return func(c *Codebase) {
		if n > 0 {
			c.docs, _ = lru.New[string, *csharp.Document](n)
		}
	}
}

// WithSource sets where file contents are read from.
func WithSource(src csharp.Source) Option {
	return func(c *Codebase) {
		c.source = src
	}
}

func New(rootDir string, opts ...Option) *Codebase {
	// lru.New only fails for non-positive sizes
	docs, _ := lru.New[string, *csharp.Document](DefaultCacheSize)
	c := &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
		docs:    docs,
		types:   make(map[string]*Symbol),
		byNS:    make(map[string][]*Symbol),
		jobs:    DefaultJobs,
		source:  csharp.OSSource,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// Matches reports whether path is a source file this codebase scans.
func (c *Codebase) Matches(path string) bool {
	rel := c.relative(path)
	for _, pattern := range c.exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return false
		}
	}
	if len(c.include) == 0 {
		return strings.EqualFold(filepath.Ext(path), ".cs")
	}
	for _, pattern := range c.include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func (c *Codebase) excludedDir(path string) bool {
	rel := c.relative(path)
	if rel == "." {
		return false
	}
	for _, pattern := range c.exclude {
		dir := strings.TrimSuffix(pattern, "/**")
		if matched, _ := doublestar.Match(dir, rel); matched {
			return true
		}
	}
	return false
}

func (c *Codebase) relative(path string) string {
	rel, err := filepath.Rel(c.rootDir, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// Files lists the matching files under the root directory in lexical order.
// Hidden directories are skipped.
func (c *Codebase) Files(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("walk %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != c.rootDir && (strings.HasPrefix(d.Name(), ".") || c.excludedDir(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.Matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// FileResult is the outcome of scanning one file in a bulk scan.
type FileResult struct {
	Path   string
	Status Status
	Err    error
}

// Report summarizes a bulk scan.
type Report struct {
	Results []FileResult
}

func (r *Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the results that did not parse, in path order.
func (r *Report) Failures() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// ScanAll scans every matching file under the root directory and drops
// files that no longer exist. Syntax errors are recorded per file and do
// not fail the scan.
func (c *Codebase) ScanAll(ctx context.Context) (*Report, error) {
	paths, err := c.Files(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			status, err := c.scanFile(path)
			results[i] = FileResult{Path: path, Status: status, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		seen[path] = true
	}
	c.mu.Lock()
	for path := range c.files {
		if !seen[path] {
			c.removeFileLocked(path)
		}
	}
	c.rebuildIndexLocked()
	c.mu.Unlock()

	report := &Report{Results: results}
	log.Infof("scanned %d files in %s: %d parsed, %d unchanged, %d failed",
		len(paths), c.rootDir, report.Count(StatusParsed), report.Count(StatusUnchanged),
		report.Count(StatusFailed)+report.Count(StatusError))
	return report, nil
}

// ScanFile reads path from the codebase's source and updates it.
func (c *Codebase) ScanFile(path string) error {
	_, err := c.scanFile(path)
	return err
}

func (c *Codebase) scanFile(path string) (Status, error) {
	content, err := c.source.ReadFile(path)
	if err != nil {
		log.Warningf("read %s: %v", path, err)
		return StatusError, fmt.Errorf("read %s: %w", path, err)
	}
	return c.update(path, content)
}

// UpdateFile parses content as the new text of path. Content identical to
// the last scan is not parsed again. The returned error is the file's parse
// error, if any.
func (c *Codebase) UpdateFile(path string, content []byte) error {
	_, err := c.update(path, content)
	return err
}

func (c *Codebase) update(path string, content []byte) (Status, error) {
	hash := xxhash.Sum64(content)

	c.mu.RLock()
	prev := c.files[path]
	c.mu.RUnlock()
	if prev != nil && prev.Hash == hash && prev.Size == len(content) {
		if doc, ok := c.docs.Peek(path); (ok && doc.State() == csharp.StateParsed) || prev.ParseErr != nil {
			return statusOf(prev.ParseErr), prev.ParseErr
		}
	}

	doc := c.document(path)
	err := doc.Parse(string(content))

	info := &FileInfo{
		Path:     path,
		Hash:     hash,
		Size:     len(content),
		ParseErr: err,
	}
	if tree := doc.Tree(); tree != nil {
		info.Markers = tree.Len()
		info.Namespaces, info.Types = symbols(path, tree)
	}

	c.mu.Lock()
	c.files[path] = info
	c.rebuildIndexLocked()
	c.mu.Unlock()

	if err != nil {
		log.Warningf("%v", err)
		return StatusFailed, err
	}
	if prev != nil && prev.Hash == hash {
		return StatusUnchanged, nil
	}
	return StatusParsed, nil
}

func statusOf(err error) Status {
	if err != nil {
		return StatusFailed
	}
	return StatusUnchanged
}

// document returns the cached document for path, creating an unparsed one
// on a miss.
func (c *Codebase) document(path string) *csharp.Document {
	if doc, ok := c.docs.Get(path); ok {
		return doc
	}
	doc := csharp.NewDocument(path,
		csharp.WithSource(c.source),
		csharp.WithParserOptions(parser.WithDefines(c.defines...)))
	if prev, ok, _ := c.docs.PeekOrAdd(path, doc); ok {
		return prev
	}
	return doc
}

// Document returns the parsed document for path. Evicted documents are read
// and parsed again.
func (c *Codebase) Document(path string) (*csharp.Document, error) {
	doc := c.document(path)
	if doc.State() == csharp.StateUnparsed {
		if _, err := c.scanFile(path); err != nil {
			return doc, err
		}
		return doc, nil
	}
	if _, err := doc.Ensure(); err != nil {
		return doc, err
	}
	return doc, nil
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeFileLocked(path)
	c.rebuildIndexLocked()
}

func (c *Codebase) removeFileLocked(path string) {
	delete(c.files, path)
	c.docs.Remove(path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Paths returns every known file in lexical order.
func (c *Codebase) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for path := range c.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Errors returns the files whose last scan failed, in path order.
func (c *Codebase) Errors() []*FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*FileInfo
	for _, f := range c.files {
		if f.ParseErr != nil {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (c *Codebase) rebuildIndexLocked() {
	types := make(map[string]*Symbol)
	byNS := make(map[string][]*Symbol)
	for _, f := range c.files {
		for _, ns := range f.Namespaces {
			if _, ok := byNS[ns]; !ok {
				byNS[ns] = nil
			}
		}
		for i := range f.Types {
			sym := &f.Types[i]
			if prev, ok := types[sym.FullName]; !ok || sym.Path < prev.Path {
				types[sym.FullName] = sym
			}
			byNS[sym.Namespace] = append(byNS[sym.Namespace], sym)
		}
	}
	for _, syms := range byNS {
		sort.Slice(syms, func(i, j int) bool {
			if syms[i].FullName != syms[j].FullName {
				return syms[i].FullName < syms[j].FullName
			}
			return syms[i].Path < syms[j].Path
		})
	}
	c.types = types
	c.byNS = byNS
}

// Namespaces returns every declared namespace in lexical order. Types
// outside any namespace are listed under "".
func (c *Codebase) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byNS))
	for ns := range c.byNS {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// TypesIn returns the types declared directly in namespace ns.
func (c *Codebase) TypesIn(ns string) []Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Symbol, 0, len(c.byNS[ns]))
	for _, sym := range c.byNS[ns] {
		out = append(out, *sym)
	}
	return out
}

// FindType looks a type up by its dotted full name. When several files
// declare the same name, as partial types do, the lexically first path wins.
func (c *Codebase) FindType(fullName string) *Symbol {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sym, ok := c.types[fullName]; ok {
		out := *sym
		return &out
	}
	return nil
}

// SearchTypes returns types whose simple or full name contains query,
// ignoring case.
func (c *Codebase) SearchTypes(query string) []Symbol {
	query = strings.ToLower(query)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Symbol
	for _, sym := range c.types {
		if strings.Contains(strings.ToLower(sym.FullName), query) {
			out = append(out, *sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func symbols(path string, tree *parser.Tree) (namespaces []string, types []Symbol) {
	seen := make(map[string]bool)
	tree.Walk(func(id parser.MarkerID, m *parser.Marker, _ int) bool {
		switch {
		case m.Kind == parser.KindNamespace || m.Kind == parser.KindFileNamespace:
			if ns := tree.Namespace(id); !seen[ns] {
				seen[ns] = true
				namespaces = append(namespaces, ns)
			}
		case m.Kind.IsType():
			types = append(types, Symbol{
				Name:      m.Name,
				FullName:  m.FullName(),
				Namespace: tree.Namespace(id),
				Kind:      m.Kind,
				Path:      path,
				Line:      m.StartLine,
				Column:    m.StartColumn,
			})
		case m.Kind.IsStatement() || m.Kind.IsTrivia():
			return false
		}
		return true
	})
	return namespaces, types
}
