package parser

import (
	"errors"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("csmark.parser")

// frame is one open block. Opaque frames carry no marker; their children are
// handed to the enclosing frame when they close.
type frame struct {
	context    Kind
	marker     MarkerID
	owner      MarkerID
	children   []MarkerID
	blockLevel bool
	fileScoped bool
	typeName   string
	open       int

	savedParen   int
	savedBracket int

	// inline frames are expression braces inside a pending statement; the
	// statement's lookback is suspended while they are open.
	inline       bool
	savedLook    string
	savedStart   int
	savedAssign  bool
	savedSpace   bool
	savedTrivia  []MarkerID
	savedLastSig int
}

type scanner struct {
	file        string
	symbols     []string
	statements  bool
	consolidate bool

	src    string
	lines  *lineIndex
	tree   *Tree
	frames []frame
	pp     *preprocessor

	look         strings.Builder
	pendingSpace bool
	declStart    int
	lastSig      int
	attrs        []string
	attrStart    int
	trivia       []MarkerID
	parenDepth   int
	bracketDepth int
	topAssign    bool
	pendingInit  MarkerID
	atLineStart  bool

	bags map[MarkerID]map[string]bool
	err  *ParseError
}

// Scan converts source text into a marker tree in a single pass. Line endings
// are normalized first, so positions refer to the normalized text. A span that
// cannot begin any declaration aborts the scan with a *ParseError and no tree.
func Scan(src string, opts ...Option) (*Tree, error) {
	s := &scanner{
		statements:  true,
		consolidate: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.init(NormalizeNewlines(src))
	s.run()
	if s.err != nil {
		return nil, s.err
	}
	s.finish()
	if s.consolidate {
		Consolidate(s.tree)
	}
	return s.tree, nil
}

func (s *scanner) init(src string) {
	s.src = src
	s.lines = newLineIndex(src)
	s.tree = &Tree{File: s.file}
	s.frames = []frame{{context: KindCode, marker: NoMarker, owner: NoMarker}}
	s.pp = newPreprocessor(s.symbols)
	s.pendingInit = NoMarker
	s.atLineStart = true
	s.bags = make(map[MarkerID]map[string]bool)
	s.reset()
}

func (s *scanner) top() *frame {
	return &s.frames[len(s.frames)-1]
}

func (s *scanner) run() {
	src := s.src
	n := len(src)
	i := 0
	for i < n && s.err == nil {
		ch := src[i]
		switch {
		case ch == '\n':
			s.atLineStart = true
			s.pendingSpace = true
			i++
			continue
		case isSpace(ch):
			s.pendingSpace = true
			i++
			continue
		case ch == '#' && s.atLineStart:
			i = s.directive(i)
			continue
		}
		s.atLineStart = false

		if !s.pp.active() {
			i = s.skipLine(i)
			continue
		}
		if isCommentStart(src, i) {
			i = s.comment(i)
			continue
		}
		if s.pendingInit != NoMarker {
			if ch == '=' && i+1 < n && src[i+1] != '=' && src[i+1] != '>' {
				i = s.initializer(i)
				continue
			}
			s.pendingInit = NoMarker
		}

		switch {
		case isLiteralStart(src, i):
			end, ok := SkipLiteral(src, i)
			if !ok {
				line, _ := s.lines.position(i)
				log.Warningf("%s: unterminated literal at line %d", s.name(), line)
			}
			s.appendText(src[i:end+1], i, end)
			i = end + 1
			continue
		case isIdentStart(src, i):
			end := identEnd(src, i)
			s.appendText(src[i:end], i, end-1)
			s.record(src[i:end])
			i = end
			continue
		case isDigit(ch):
			end := numberEnd(src, i)
			s.appendText(src[i:end], i, end-1)
			i = end
			continue
		}

		switch ch {
		case '[':
			i = s.bracket(i)
			continue
		case ']':
			if s.bracketDepth > 0 {
				s.bracketDepth--
			}
		case '(':
			s.parenDepth++
		case ')':
			if s.parenDepth > 0 {
				s.parenDepth--
			}
		case ';':
			s.semicolon(i)
			i++
			continue
		case ',':
			if s.top().context == KindEnum && s.parenDepth == 0 && s.bracketDepth == 0 {
				s.enumValue()
				i++
				continue
			}
		case ':':
			if s.label(i) {
				i++
				continue
			}
		case '{':
			i = s.openBrace(i)
			continue
		case '}':
			s.closeBrace(i)
			i++
			continue
		case '=':
			if i+1 < n && src[i+1] == '>' {
				if next, ok := s.arrow(i); ok {
					i = next
					continue
				}
				s.appendText("=>", i, i+1)
				i += 2
				continue
			}
			if s.parenDepth == 0 && s.bracketDepth == 0 && isAssignment(src, i) {
				s.topAssign = true
			}
		}
		s.appendText(src[i:i+1], i, i)
		i++
	}
}

func (s *scanner) name() string {
	if s.file == "" {
		return "<input>"
	}
	return s.file
}

func numberEnd(s string, i int) int {
	j := i
	for j < len(s) && (isIdentPart(s[j]) || (s[j] == '.' && j+1 < len(s) && isDigit(s[j+1]))) {
		j++
	}
	return j
}

// isAssignment reports whether the '=' at s[i] assigns rather than compares.
func isAssignment(s string, i int) bool {
	if i+1 < len(s) && s[i+1] == '=' {
		return false
	}
	if i > 0 && strings.IndexByte("=!<>", s[i-1]) >= 0 {
		return false
	}
	return true
}

// Lookback

func (s *scanner) appendText(text string, start, end int) {
	if s.declStart < 0 {
		s.declStart = start
	}
	if s.pendingSpace && s.look.Len() > 0 {
		s.look.WriteByte(' ')
	}
	s.pendingSpace = false
	s.look.WriteString(text)
	s.lastSig = end
}

func (s *scanner) reset() {
	s.look.Reset()
	s.pendingSpace = false
	s.declStart = -1
	s.attrs = nil
	s.attrStart = -1
	s.topAssign = false
	s.parenDepth = 0
	s.bracketDepth = 0
}

func (s *scanner) headerPending() bool {
	return s.declStart >= 0 || len(s.attrs) > 0
}

func (s *scanner) start() int {
	if len(s.attrs) > 0 {
		return s.attrStart
	}
	return s.declStart
}

func (s *scanner) lookback(term Terminator) Lookback {
	top := s.top()
	return Lookback{
		Text:       strings.TrimSpace(s.look.String()),
		Terminator: term,
		Context:    top.context,
		TypeName:   top.typeName,
	}
}

// Unresolved names

func (s *scanner) record(word string) {
	word = strings.TrimPrefix(word, "@")
	if IsReserved(word) {
		return
	}
	owner := s.top().owner
	seen := s.bags[owner]
	if seen == nil {
		seen = make(map[string]bool)
		s.bags[owner] = seen
	}
	if seen[word] {
		return
	}
	seen[word] = true
	if owner == NoMarker {
		s.tree.Unresolved = append(s.tree.Unresolved, word)
		return
	}
	s.tree.Markers[owner].Unresolved = append(s.tree.Markers[owner].Unresolved, word)
}

// collectWords records the identifiers of text consumed in one step.
func (s *scanner) collectWords(text string) {
	for i := 0; i < len(text); {
		switch {
		case isLiteralStart(text, i):
			end, _ := SkipLiteral(text, i)
			i = end + 1
		case isCommentStart(text, i):
			end, _ := SkipComment(text, i)
			i = end + 1
		case isIdentStart(text, i):
			end := identEnd(text, i)
			s.record(text[i:end])
			i = end
		case isDigit(text[i]):
			i = numberEnd(text, i)
		default:
			i++
		}
	}
}

// Markers

func (s *scanner) path() string {
	owner := s.top().owner
	if owner == NoMarker {
		return ""
	}
	return s.tree.Markers[owner].FullName()
}

func (s *scanner) newMarker(kind Kind, start, end int) Marker {
	m := Marker{
		Kind:       kind,
		StartPos:   start,
		Parent:     s.top().owner,
		ParentPath: s.path(),
	}
	m.StartLine, m.StartColumn = s.lines.position(start)
	s.setEnd(&m, end)
	return m
}

func (s *scanner) setEnd(m *Marker, end int) {
	m.EndPos = end
	m.EndLine, m.EndColumn = s.lines.position(end)
}

func (s *scanner) add(m Marker) MarkerID {
	id := MarkerID(len(s.tree.Markers))
	s.tree.Markers = append(s.tree.Markers, m)
	return id
}

// emit appends a classified declaration to the current frame. Pending header
// trivia become its children.
func (s *scanner) emit(d *Declaration, start, end int) MarkerID {
	m := s.newMarker(d.Kind, start, end)
	m.Name = d.Name
	m.Generics = d.Generics
	m.DataType = d.DataType
	m.Params = d.Params
	m.ParamText = d.ParamText
	m.Inherits = d.Inherits
	m.InheritText = d.InheritText
	m.Where = d.Where
	m.Value = d.Value
	m.ExplicitInterface = d.ExplicitInterface
	m.Modifiers = d.Modifiers
	m.Attributes = s.attrs
	if d.Kind == KindMethod && d.Modifiers.Has(ModExtern) && len(s.attrs) > 0 {
		m.Import = nativeImport(s.attrs)
	}
	id := s.add(m)
	s.adoptTrivia(id)
	top := s.top()
	top.children = append(top.children, id)
	return id
}

func (s *scanner) adoptTrivia(id MarkerID) {
	if len(s.trivia) == 0 {
		return
	}
	path := s.tree.Markers[id].FullName()
	for _, t := range s.trivia {
		s.tree.Markers[t].Parent = id
		s.tree.Markers[t].ParentPath = path
	}
	s.tree.Markers[id].Children = append(s.tree.Markers[id].Children, s.trivia...)
	s.trivia = nil
}

func (s *scanner) flushTrivia() {
	if len(s.trivia) == 0 {
		return
	}
	top := s.top()
	top.children = append(top.children, s.trivia...)
	s.trivia = nil
}

// emitTrivia records a comment, directive or attribute marker. While a
// declaration header is pending the marker is held for that declaration.
func (s *scanner) emitTrivia(kind Kind, start, end int, name, value string) {
	m := s.newMarker(kind, start, end)
	m.Name = name
	m.Value = value
	id := s.add(m)
	if s.headerPending() {
		s.trivia = append(s.trivia, id)
		return
	}
	top := s.top()
	top.children = append(top.children, id)
}

func (s *scanner) fail(offset int, err error) {
	if offset < 0 {
		offset = 0
	}
	line, col := s.lines.position(offset)
	s.err = &ParseError{
		Message: err.Error(),
		Offset:  offset,
		Line:    line,
		Column:  col,
		File:    s.file,
		Source:  lineAt(s.src, offset),
	}
	log.Errorf("%s", s.err.Error())
}

// Trivia

func (s *scanner) comment(i int) int {
	end, kind := SkipComment(s.src, i)
	if kind == KindBlockComment || kind == KindDocComment {
		if !strings.HasSuffix(s.src[i:end+1], "*/") && s.src[i+1] == '*' {
			line, _ := s.lines.position(i)
			log.Warningf("%s: unterminated comment at line %d", s.name(), line)
		}
	}
	s.emitTrivia(kind, i, lastNonSpace(s.src, i, end+1), "", "")
	s.pendingSpace = true
	return end + 1
}

func (s *scanner) directive(i int) int {
	end := strings.IndexByte(s.src[i:], '\n')
	if end < 0 {
		end = len(s.src)
	} else {
		end += i
	}
	keyword, arg := splitDirective(s.src[i+1 : end])
	if !s.pp.directive(keyword, arg) {
		line, _ := s.lines.position(i)
		log.Warningf("%s: unbalanced #%s at line %d", s.name(), keyword, line)
	}
	s.emitTrivia(KindDirective, i, lastNonSpace(s.src, i, end), keyword, arg)
	return end
}

// skipLine passes over one line of an inactive conditional region.
func (s *scanner) skipLine(i int) int {
	end := strings.IndexByte(s.src[i:], '\n')
	if end < 0 {
		return len(s.src)
	}
	return i + end
}

// Structural characters

func (s *scanner) bracket(i int) int {
	top := s.top()
	if top.blockLevel || s.parenDepth > 0 || s.bracketDepth > 0 || s.declStart >= 0 {
		s.bracketDepth++
		s.appendText("[", i, i)
		return i + 1
	}
	text, end, ok := ExtractBalanced(s.src, i, '[', ']')
	if !ok || !isAttributeShape(text) {
		s.bracketDepth++
		s.appendText("[", i, i)
		return i + 1
	}
	section := normalizeCode(text)
	s.collectWords(text)
	switch target := attributeTarget(section); target {
	case "assembly", "module":
		s.emitTrivia(KindAttribute, i, end, target, section)
	default:
		if len(s.attrs) == 0 {
			s.attrStart = i
		}
		s.attrs = append(s.attrs, section)
	}
	return end + 1
}

// label consumes a switch label in a block context.
func (s *scanner) label(i int) bool {
	if !s.top().blockLevel || s.parenDepth > 0 || s.bracketDepth > 0 {
		return false
	}
	if (i+1 < len(s.src) && s.src[i+1] == ':') || (i > 0 && s.src[i-1] == ':') {
		return false
	}
	word, _ := splitWord(strings.TrimSpace(s.look.String()))
	if word != "case" && word != "default" {
		return false
	}
	s.flushTrivia()
	s.reset()
	return true
}

func (s *scanner) semicolon(i int) {
	top := s.top()
	if s.parenDepth > 0 || s.bracketDepth > 0 {
		s.appendText(";", i, i)
		return
	}
	switch {
	case top.context == KindEnum:
		s.enumValue()
	case top.blockLevel:
		s.statementEnd(i)
	default:
		s.declaration(i)
	}
	if s.err == nil {
		s.flushTrivia()
		s.reset()
	}
}

func (s *scanner) declaration(i int) {
	lb := s.lookback(TermSemicolon)
	if lb.Text == "" {
		return
	}
	d, err := Classify(lb)
	if err != nil {
		s.classifyFailed(lb, err)
		if s.err == nil {
			s.statementEnd(i)
		}
		return
	}
	if len(d.Declarators) > 0 {
		s.emitDeclarators(d, s.start(), i)
		return
	}
	id := s.emit(d, s.start(), i)
	if d.Kind == KindFileNamespace {
		if len(s.frames) > 1 {
			log.Warningf("%s: file-scoped namespace %s inside a block", s.name(), d.Name)
		}
		s.frames = append(s.frames, frame{
			context:    KindFileNamespace,
			marker:     id,
			owner:      id,
			fileScoped: true,
			open:       i,
		})
	}
}

// emitDeclarators emits one marker per name of a multi-variable declaration.
// Each marker spans its own declarator; the first also covers the type and
// modifiers, the last the terminating ';'. Header trivia go to the declarator
// they fall in.
func (s *scanner) emitDeclarators(d *Declaration, start, end int) {
	more := d.Declarators
	first := *d
	first.Declarators = nil

	cuts := topLevelCommas(s.src[start:end])
	if len(cuts) < len(more) {
		s.emit(&first, start, end)
		return
	}
	cuts = cuts[len(cuts)-len(more):]

	type segment struct {
		decl       Declaration
		start, end int
	}
	segs := make([]segment, 0, len(more)+1)
	segs = append(segs, segment{first, start, s.trimEnd(start, start+cuts[0]-1)})
	for k, extra := range more {
		segStart := start + cuts[k] + 1
		for segStart < end && isSpace(s.src[segStart]) {
			segStart++
		}
		segEnd := end
		if k+1 < len(cuts) {
			segEnd = s.trimEnd(segStart, start+cuts[k+1]-1)
		}
		decl := first
		decl.Name = extra.Name
		decl.Value = extra.Value
		segs = append(segs, segment{decl, segStart, segEnd})
	}

	trivia := s.trivia
	for k := range segs {
		var own []MarkerID
		for _, t := range trivia {
			pos := s.tree.Markers[t].StartPos
			if k == 0 && pos <= segs[0].end || pos >= segs[k].start && pos <= segs[k].end {
				own = append(own, t)
			}
		}
		s.trivia = own
		s.emit(&segs[k].decl, segs[k].start, segs[k].end)
	}
	s.trivia = nil
}

// trimEnd moves end back over whitespace, stopping at start.
func (s *scanner) trimEnd(start, end int) int {
	for end > start && isSpace(s.src[end]) {
		end--
	}
	return end
}

func (s *scanner) classifyFailed(lb Lookback, err error) {
	if errors.Is(err, ErrSyntax) {
		s.fail(s.declStart, err)
		return
	}
	log.Debugf("%s: unclassified %q", s.name(), lb.Text)
}

func (s *scanner) enumValue() {
	lb := s.lookback(TermComma)
	if lb.Text == "" {
		s.flushTrivia()
		s.reset()
		return
	}
	d, err := Classify(lb)
	if err != nil {
		s.classifyFailed(lb, err)
		if s.err == nil {
			s.flushTrivia()
			s.reset()
		}
		return
	}
	end := s.lastSig
	for _, t := range s.trivia {
		if e := s.tree.Markers[t].EndPos; e > end {
			end = e
		}
	}
	s.emit(d, s.start(), end)
	s.reset()
}

// statementEnd emits a statement marker for a ';' terminated statement that
// begins with a control keyword.
func (s *scanner) statementEnd(i int) {
	if !s.statements {
		return
	}
	text := strings.TrimSpace(s.look.String())
	word, rest := splitWord(text)
	kind := LookupStatement(word)
	switch kind {
	case KindIf, KindFor, KindForeach, KindWhile, KindLock, KindUsingBlock, KindFixed:
		if !strings.HasPrefix(rest, "(") {
			return
		}
	case KindElse, KindDo:
	default:
		return
	}
	s.emitStatement(kind, rest, i)
}

func (s *scanner) emitStatement(kind Kind, rest string, end int) MarkerID {
	m := s.newMarker(kind, s.declStart, end)
	m.Value = statementHeader(rest)
	id := s.add(m)
	s.adoptTrivia(id)
	top := s.top()
	top.children = append(top.children, id)
	return id
}

// statementHeader returns the parenthesized condition when rest starts with
// one, otherwise rest itself.
func statementHeader(rest string) string {
	if strings.HasPrefix(rest, "(") {
		if text, _, ok := ExtractBalanced(rest, 0, '(', ')'); ok {
			return text
		}
	}
	return rest
}

func splitWord(text string) (word, rest string) {
	if !isIdentStart(text, 0) {
		return "", text
	}
	end := identEnd(text, 0)
	return text[:end], strings.TrimSpace(text[end:])
}

func (s *scanner) push(f frame) {
	f.savedParen = s.parenDepth
	f.savedBracket = s.bracketDepth
	s.frames = append(s.frames, f)
}

func (s *scanner) openBrace(i int) int {
	top := s.top()
	if top.blockLevel {
		s.openBlock(i)
		return i + 1
	}
	if s.parenDepth > 0 || s.bracketDepth > 0 || s.topAssign {
		return s.consumeInitializer(i)
	}

	lb := s.lookback(TermBrace)
	var d *Declaration
	var err error = ErrNoMatch
	if lb.Text != "" {
		d, err = Classify(lb)
	}
	if err != nil {
		if lb.Text != "" {
			s.classifyFailed(lb, err)
		}
		if s.err != nil {
			return len(s.src)
		}
		word, rest := splitWord(lb.Text)
		if kind := LookupStatement(word); s.statements && kind != KindCode {
			s.openStatement(i, kind, rest)
			return i + 1
		}
		s.flushTrivia()
		s.push(frame{
			context:    KindCode,
			marker:     NoMarker,
			owner:      top.owner,
			blockLevel: true,
			typeName:   top.typeName,
			open:       i,
		})
		s.reset()
		return i + 1
	}

	id := s.emit(d, s.start(), i)
	typeName := top.typeName
	switch d.Kind {
	case KindClass, KindStruct, KindRecord, KindInterface:
		typeName = d.Name
	}
	s.push(frame{
		context:    d.Kind,
		marker:     id,
		owner:      id,
		blockLevel: d.Kind.IsBlockLevel(),
		typeName:   typeName,
		open:       i,
	})
	s.reset()
	return i + 1
}

// openBlock opens a brace inside a statement context: a statement body, an
// expression brace such as a lambda body or initializer, or a bare block.
func (s *scanner) openBlock(i int) {
	top := s.top()
	if s.parenDepth > 0 || s.bracketDepth > 0 || s.topAssign {
		f := frame{
			context:      KindCode,
			marker:       NoMarker,
			owner:        top.owner,
			blockLevel:   true,
			typeName:     top.typeName,
			open:         i,
			inline:       true,
			savedLook:    s.look.String(),
			savedStart:   s.declStart,
			savedAssign:  s.topAssign,
			savedSpace:   s.pendingSpace,
			savedTrivia:  s.trivia,
			savedLastSig: s.lastSig,
		}
		s.push(f)
		s.trivia = nil
		s.look.Reset()
		s.pendingSpace = false
		s.declStart = -1
		s.topAssign = false
		s.parenDepth = 0
		s.bracketDepth = 0
		return
	}

	word, rest := splitWord(strings.TrimSpace(s.look.String()))
	if kind := LookupStatement(word); s.statements && kind != KindCode {
		s.openStatement(i, kind, rest)
		return
	}
	s.flushTrivia()
	s.push(frame{
		context:    KindCode,
		marker:     NoMarker,
		owner:      top.owner,
		blockLevel: true,
		typeName:   top.typeName,
		open:       i,
	})
	s.reset()
}

func (s *scanner) openStatement(i int, kind Kind, rest string) {
	typeName := s.top().typeName
	id := s.emitStatement(kind, rest, i)
	s.push(frame{
		context:    kind,
		marker:     id,
		owner:      id,
		blockLevel: true,
		typeName:   typeName,
		open:       i,
	})
	s.reset()
}

// consumeInitializer takes a brace inside a declaration header, such as a
// collection initializer, as one span of text.
func (s *scanner) consumeInitializer(i int) int {
	text, end, ok := ExtractBalanced(s.src, i, '{', '}')
	if !ok {
		line, _ := s.lines.position(i)
		log.Warningf("%s: unbalanced initializer at line %d", s.name(), line)
		end = len(s.src) - 1
		text = s.src[i:]
	}
	s.appendText(normalizeCode(text), i, end)
	s.collectWords(text)
	return end + 1
}

func (s *scanner) closeBrace(i int) {
	top := s.top()
	if len(s.frames) == 1 || top.fileScoped {
		line, _ := s.lines.position(i)
		log.Warningf("%s: unmatched '}' at line %d", s.name(), line)
		s.flushTrivia()
		s.reset()
		return
	}
	if top.context == KindEnum {
		s.enumValue()
		if s.err != nil {
			return
		}
	} else if text := strings.TrimSpace(s.look.String()); text != "" && !top.blockLevel && !top.inline {
		log.Debugf("%s: unterminated declaration %q", s.name(), text)
	}
	s.flushTrivia()
	s.reset()

	f := s.pop()
	s.parenDepth = f.savedParen
	s.bracketDepth = f.savedBracket
	if f.marker != NoMarker {
		m := &s.tree.Markers[f.marker]
		s.setEnd(m, i)
		m.Children = append(m.Children, f.children...)
		if m.Kind.HasAccessors() {
			s.pendingInit = f.marker
		}
	} else if f.inline {
		s.look.WriteString(f.savedLook)
		s.declStart = f.savedStart
		s.topAssign = f.savedAssign
		s.pendingSpace = f.savedSpace
		s.lastSig = f.savedLastSig
		s.trivia = append(f.savedTrivia, f.children...)
		if s.declStart < 0 {
			s.declStart = f.open
		}
		s.appendText("{}", i, i)
	} else {
		parent := s.top()
		parent.children = append(parent.children, f.children...)
	}
}

func (s *scanner) pop() frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// arrow handles '=>' introducing an expression-bodied member. The body is
// consumed through its terminating ';'.
func (s *scanner) arrow(i int) (int, bool) {
	top := s.top()
	if top.blockLevel || top.context == KindEnum || s.parenDepth > 0 || s.bracketDepth > 0 || s.topAssign {
		return 0, false
	}
	lb := s.lookback(TermArrow)
	if lb.Text == "" {
		return 0, false
	}
	end, ok := skipToTerminator(s.src, i+2)
	body := s.src[i+2 : end+1]
	if !ok {
		end = lastNonSpace(s.src, i, end+1)
		line, _ := s.lines.position(i)
		log.Warningf("%s: unterminated expression body at line %d", s.name(), line)
	}
	d, err := Classify(lb)
	if err != nil {
		s.classifyFailed(lb, err)
		if s.err != nil {
			return len(s.src), true
		}
		s.collectWords(body)
		s.flushTrivia()
		s.reset()
		return end + 1, true
	}
	id := s.emit(d, s.start(), end)
	s.collectWords(body)
	if d.Kind == KindProperty || d.Kind == KindIndexer {
		get := s.newMarker(KindGet, i, end)
		get.Parent = id
		get.ParentPath = s.tree.Markers[id].FullName()
		getID := s.add(get)
		s.tree.Markers[id].Children = append(s.tree.Markers[id].Children, getID)
	}
	s.reset()
	return end + 1, true
}

// initializer extends the pending property with a trailing '= value;'.
func (s *scanner) initializer(i int) int {
	id := s.pendingInit
	s.pendingInit = NoMarker
	end, ok := skipToTerminator(s.src, i+1)
	valueEnd := end
	if !ok {
		end = lastNonSpace(s.src, i, end+1)
		valueEnd = end + 1
		line, _ := s.lines.position(i)
		log.Warningf("%s: unterminated initializer at line %d", s.name(), line)
	}
	value := s.src[i+1 : valueEnd]
	s.collectWords(value)

	m := &s.tree.Markers[id]
	m.Value = strings.TrimSpace(normalizeCode(value))
	s.setEnd(m, end)

	top := s.top()
	for k, c := range top.children {
		if c != id {
			continue
		}
		trailing := top.children[k+1:]
		for _, t := range trailing {
			s.tree.Markers[t].Parent = id
			s.tree.Markers[t].ParentPath = m.FullName()
		}
		m.Children = append(m.Children, trailing...)
		top.children = top.children[:k+1]
		break
	}
	s.reset()
	return end + 1
}

func (s *scanner) finish() {
	if text := strings.TrimSpace(s.look.String()); text != "" {
		log.Debugf("%s: trailing text %q", s.name(), text)
	}
	s.flushTrivia()
	end := lastNonSpace(s.src, 0, len(s.src))
	for len(s.frames) > 1 {
		f := s.pop()
		if !f.fileScoped {
			line, _ := s.lines.position(f.open)
			log.Warningf("%s: unterminated block opened at line %d", s.name(), line)
		}
		if f.marker != NoMarker {
			m := &s.tree.Markers[f.marker]
			s.setEnd(m, end)
			m.Children = append(m.Children, f.children...)
			continue
		}
		parent := s.top()
		if f.inline {
			parent.children = append(parent.children, f.savedTrivia...)
		}
		parent.children = append(parent.children, f.children...)
	}
	s.tree.Roots = s.frames[0].children
	if len(s.pp.stack) > 0 {
		log.Warningf("%s: %d unterminated #if", s.name(), len(s.pp.stack))
	}
	s.preamble()
}

// preamble bounds the text before the first namespace declaration, or before
// the first type or member when the file declares no namespace.
func (s *scanner) preamble() {
	t := s.tree
	t.PreambleStart = 0
	t.PreambleEnd = len(s.src)
	for _, id := range t.Roots {
		if k := t.Markers[id].Kind; k == KindNamespace || k == KindFileNamespace {
			t.PreambleEnd = t.Markers[id].StartPos
			return
		}
	}
	for _, id := range t.Roots {
		if k := t.Markers[id].Kind; k.IsType() || k.IsMember() {
			t.PreambleEnd = t.Markers[id].StartPos
			return
		}
	}
}
