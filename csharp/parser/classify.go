package parser

import (
	"fmt"
	"strings"
)

// Terminator is the structural character that ended a lookback.
type Terminator byte

const (
	TermSemicolon Terminator = ';'
	TermBrace     Terminator = '{'
	TermArrow     Terminator = '>'
	TermComma     Terminator = ','
	TermClose     Terminator = '}'
)

// Lookback is the normalized text accumulated since the previous structural
// terminator, with the context it was collected in.
type Lookback struct {
	Text       string
	Terminator Terminator
	// Context is the kind of the enclosing block, KindCode at file level.
	Context Kind
	// TypeName is the name of the innermost enclosing type, used to recognize
	// constructors and destructors.
	TypeName string
}

// Declaration is the result of classifying a lookback.
type Declaration struct {
	Kind              Kind
	Name              string
	Generics          string
	DataType          string
	Params            []string
	ParamText         string
	Inherits          []string
	InheritText       string
	Where             string
	Value             string
	ExplicitInterface string
	Modifiers         Modifiers
	// Declarators holds the names after the first in a field, const or event
	// declaration such as "int a, b = 2".
	Declarators []Declarator
}

// Declarator is one additional name declared by a multi-variable declaration.
type Declarator struct {
	Name  string
	Value string
}

func canStartDeclaration(ch byte) bool {
	return isLetter(ch) || ch == '@' || ch == '~' || ch == '('
}

// Classify strips keywords from the lookback and determines the declared
// kind, name, data type, generics, parameters, inheritance and where clause.
// It returns an error wrapping ErrSyntax when the text cannot begin any
// declaration and ErrNoMatch when the text is not a recognized declaration
// shape.
func Classify(lb Lookback) (*Declaration, error) {
	text := strings.TrimSpace(lb.Text)
	if text == "" {
		return nil, ErrNoMatch
	}
	if lb.Context == KindEnum {
		if !isLetter(text[0]) && text[0] != '@' {
			return nil, fmt.Errorf("%w: unexpected %q at start of enum member", ErrSyntax, text[0])
		}
		return classifyEnumValue(text)
	}
	if text[0] == '[' {
		return nil, ErrNoMatch
	}
	if !canStartDeclaration(text[0]) {
		return nil, fmt.Errorf("%w: unexpected %q at start of declaration", ErrSyntax, text[0])
	}

	c := &cursor{s: text}
	d := &Declaration{Kind: KindCode}
	if err := c.keywords(d, lb); err != nil {
		return nil, err
	}

	switch {
	case d.Kind == KindNamespace:
		return classifyNamespace(c, d, lb)
	case d.Kind == KindUsing:
		return classifyUsing(c, d, lb)
	case d.Kind.IsAccessor():
		if c.skipSpace(); !c.done() {
			return nil, ErrNoMatch
		}
		return d, nil
	case d.Kind == KindDelegate:
		return classifyDelegate(c, d)
	case d.Kind == KindClass, d.Kind == KindStruct, d.Kind == KindInterface,
		d.Kind == KindRecord, d.Kind == KindEnum:
		return classifyType(c, d)
	}
	if lb.Context.HasAccessors() {
		return nil, ErrNoMatch
	}
	return classifyMember(c, d, lb)
}

// keywords consumes leading modifier and kind keywords.
func (c *cursor) keywords(d *Declaration, lb Lookback) error {
	for {
		c.skipSpace()
		save := c.pos
		w := c.word()
		if w == "" {
			return nil
		}
		if mod := LookupModifier(w); mod != 0 {
			if w == "global" && c.peek() == ':' {
				c.pos = save
				return nil
			}
			if (w == "file" || w == "required") && !c.followedByWord() {
				c.pos = save
				return nil
			}
			d.Modifiers |= mod
			continue
		}
		switch w {
		case "class":
			d.Kind = KindClass
			return nil
		case "struct":
			d.Kind = KindStruct
			return nil
		case "interface":
			d.Kind = KindInterface
			return nil
		case "enum":
			d.Kind = KindEnum
			return nil
		case "record":
			if !c.followedByWord() {
				c.pos = save
				return nil
			}
			d.Kind = KindRecord
			inner := c.pos
			switch c.skipSpace(); c.word() {
			case "struct":
				d.DataType = "struct"
			case "class":
				d.DataType = "class"
			default:
				c.pos = inner
			}
			return nil
		case "delegate":
			d.Kind = KindDelegate
			return nil
		case "event":
			d.Kind = KindEvent
			return nil
		case "const":
			d.Kind = KindConst
			return nil
		case "namespace":
			d.Kind = KindNamespace
			return nil
		case "using":
			d.Kind = KindUsing
			return nil
		case "fixed", "scoped":
			continue
		case "get", "set", "init", "add", "remove":
			if lb.Context.HasAccessors() {
				d.Kind = accessorKinds[w]
				return nil
			}
			c.pos = save
			return nil
		}
		if declarationBreakers[w] {
			return ErrNoMatch
		}
		c.pos = save
		return nil
	}
}

var accessorKinds = map[string]Kind{
	"get":    KindGet,
	"set":    KindSet,
	"init":   KindInit,
	"add":    KindAdd,
	"remove": KindRemove,
}

func classifyEnumValue(text string) (*Declaration, error) {
	c := &cursor{s: text}
	name := c.word()
	if name == "" {
		return nil, ErrNoMatch
	}
	d := &Declaration{Kind: KindEnumValue, Name: name}
	c.skipSpace()
	if c.done() {
		return d, nil
	}
	if c.peek() != '=' {
		return nil, ErrNoMatch
	}
	c.pos++
	d.Value = strings.TrimSpace(c.rest())
	return d, nil
}

func classifyNamespace(c *cursor, d *Declaration, lb Lookback) (*Declaration, error) {
	name := strings.TrimSpace(c.rest())
	if name == "" || !isIdentStart(name, 0) {
		return nil, ErrNoMatch
	}
	d.Name = strings.ReplaceAll(name, " ", "")
	if lb.Terminator == TermSemicolon {
		d.Kind = KindFileNamespace
	}
	return d, nil
}

func classifyUsing(c *cursor, d *Declaration, lb Lookback) (*Declaration, error) {
	if lb.Terminator != TermSemicolon {
		return nil, ErrNoMatch
	}
	c.skipSpace()
	save := c.pos
	if c.word() == "static" {
		d.Modifiers |= ModStatic
	} else {
		c.pos = save
	}
	rest := strings.TrimSpace(c.rest())
	if rest == "" || rest[0] == '(' {
		return nil, ErrNoMatch
	}
	if eq := strings.IndexByte(rest, '='); eq > 0 {
		alias := strings.TrimSpace(rest[:eq])
		if !isIdentStart(alias, 0) || identEnd(alias, 0) != len(alias) {
			return nil, ErrNoMatch
		}
		d.Name = alias
		d.Value = strings.TrimSpace(rest[eq+1:])
		return d, nil
	}
	d.Name = rest
	return d, nil
}

func classifyDelegate(c *cursor, d *Declaration) (*Declaration, error) {
	typ, ok := c.typeName()
	if !ok {
		return nil, ErrNoMatch
	}
	d.DataType = typ
	c.skipSpace()
	d.Name = c.word()
	if d.Name == "" {
		return nil, ErrNoMatch
	}
	d.Generics = c.generics()
	if !c.params(d, '(', ')') {
		return nil, ErrNoMatch
	}
	c.where(d)
	return d, nil
}

func classifyType(c *cursor, d *Declaration) (*Declaration, error) {
	c.skipSpace()
	d.Name = c.word()
	if d.Name == "" {
		return nil, ErrNoMatch
	}
	d.Generics = c.generics()
	if d.Kind == KindRecord || d.Kind == KindClass || d.Kind == KindStruct {
		c.skipSpace()
		if c.peek() == '(' {
			if !c.params(d, '(', ')') {
				return nil, ErrNoMatch
			}
		}
	}
	c.inherits(d)
	c.where(d)
	return d, nil
}

func classifyMember(c *cursor, d *Declaration, lb Lookback) (*Declaration, error) {
	c.skipSpace()

	if c.peek() == '~' {
		c.pos++
		c.skipSpace()
		d.Name = c.word()
		if d.Name == "" || (lb.TypeName != "" && d.Name != lb.TypeName) {
			return nil, ErrNoMatch
		}
		if !c.params(d, '(', ')') {
			return nil, ErrNoMatch
		}
		d.Kind = KindDestructor
		return d, nil
	}

	if d.Modifiers&(ModImplicit|ModExplicit) != 0 {
		save := c.pos
		if c.word() == "operator" {
			return classifyConversion(c, d)
		}
		c.pos = save
	}

	if c.constructorAhead(lb.TypeName) {
		d.Name = c.word()
		d.Kind = KindConstructor
		if !c.params(d, '(', ')') {
			return nil, ErrNoMatch
		}
		c.inherits(d)
		return d, nil
	}

	if d.Kind == KindCode || d.Kind == KindEvent || d.Kind == KindConst {
		typ, ok := c.typeName()
		if !ok {
			return nil, ErrNoMatch
		}
		d.DataType = typ
	}

	c.skipSpace()
	prefix, name, generics := c.memberName()
	if name == "" {
		return nil, ErrNoMatch
	}
	if prefix != "" {
		d.ExplicitInterface = prefix
		d.Modifiers |= ModExplicitInterface
	}

	if name == "operator" {
		return classifyOperator(c, d)
	}

	d.Name = name
	d.Generics = generics

	switch d.Kind {
	case KindEvent, KindConst:
		c.declarators(d, lb.Terminator)
		return d, nil
	}

	c.skipSpace()
	switch {
	case name == "this" && c.peek() == '[':
		if !c.params(d, '[', ']') {
			return nil, ErrNoMatch
		}
		d.Kind = KindIndexer
		return d, nil
	case c.peek() == '(':
		if !c.params(d, '(', ')') {
			return nil, ErrNoMatch
		}
		d.Kind = KindMethod
		c.where(d)
		return d, nil
	}

	switch lb.Terminator {
	case TermSemicolon:
		d.Kind = KindField
		c.declarators(d, lb.Terminator)
	default:
		d.Kind = KindProperty
		d.Value = c.initializer()
	}
	return d, nil
}

func classifyOperator(c *cursor, d *Declaration) (*Declaration, error) {
	c.skipSpace()
	open := strings.IndexByte(c.s[c.pos:], '(')
	if open <= 0 {
		return nil, ErrNoMatch
	}
	symbol := strings.TrimSpace(c.s[c.pos : c.pos+open])
	c.pos += open
	d.Kind = KindOperator
	d.Value = symbol
	d.Name = "operator" + strings.ReplaceAll(symbol, " ", "")
	if !c.params(d, '(', ')') {
		return nil, ErrNoMatch
	}
	return d, nil
}

func classifyConversion(c *cursor, d *Declaration) (*Declaration, error) {
	c.skipSpace()
	typ, ok := c.typeName()
	if !ok {
		return nil, ErrNoMatch
	}
	d.Kind = KindConversion
	d.Name = typ
	d.DataType = typ
	if !c.params(d, '(', ')') {
		return nil, ErrNoMatch
	}
	return d, nil
}

// cursor walks normalized lookback text.
type cursor struct {
	s   string
	pos int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.s)
}

func (c *cursor) peek() byte {
	if c.pos >= len(c.s) {
		return 0
	}
	return c.s[c.pos]
}

func (c *cursor) peekN(n int) byte {
	if c.pos+n >= len(c.s) {
		return 0
	}
	return c.s[c.pos+n]
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.s) && isSpace(c.s[c.pos]) {
		c.pos++
	}
}

func (c *cursor) rest() string {
	if c.pos >= len(c.s) {
		return ""
	}
	return c.s[c.pos:]
}

// word consumes an identifier or keyword and returns it.
func (c *cursor) word() string {
	if !isIdentStart(c.s, c.pos) {
		return ""
	}
	end := identEnd(c.s, c.pos)
	w := c.s[c.pos:end]
	c.pos = end
	return w
}

func (c *cursor) followedByWord() bool {
	save := c.pos
	defer func() { c.pos = save }()
	c.skipSpace()
	return isIdentStart(c.s, c.pos)
}

// constructorAhead reports whether the cursor sits on typeName followed by a
// parameter list.
func (c *cursor) constructorAhead(typeName string) bool {
	if typeName == "" {
		return false
	}
	save := c.pos
	defer func() { c.pos = save }()
	if c.word() != typeName {
		return false
	}
	c.skipSpace()
	return c.peek() == '('
}

// balanced consumes a balanced span starting at the cursor.
func (c *cursor) balanced(open, close byte) (string, bool) {
	if c.peek() != open {
		return "", false
	}
	text, end, ok := ExtractBalanced(c.s, c.pos, open, close)
	if !ok {
		return "", false
	}
	c.pos = end + 1
	return text, true
}

// generics consumes an optional generic parameter span.
func (c *cursor) generics() string {
	save := c.pos
	c.skipSpace()
	if c.peek() != '<' {
		c.pos = save
		return ""
	}
	text, ok := c.balanced('<', '>')
	if !ok {
		c.pos = save
		return ""
	}
	return text
}

// qualified consumes a possibly qualified and generic type or member name.
func (c *cursor) qualified() bool {
	if c.word() == "" {
		return false
	}
	if c.peek() == ':' && c.peekN(1) == ':' {
		c.pos += 2
		if c.word() == "" {
			return false
		}
	}
	for {
		save := c.pos
		c.skipSpace()
		if c.peek() == '<' {
			if _, ok := c.balanced('<', '>'); !ok {
				c.pos = save
				return true
			}
			save = c.pos
			c.skipSpace()
		}
		if c.peek() == '.' && isIdentStart(c.s, c.pos+1) {
			c.pos++
			c.word()
			continue
		}
		c.pos = save
		return true
	}
}

// typeName consumes a data type: a tuple or qualified name followed by any
// nullable, pointer or array rank suffixes.
func (c *cursor) typeName() (string, bool) {
	c.skipSpace()
	start := c.pos
	if c.peek() == '(' {
		if _, ok := c.balanced('(', ')'); !ok {
			return "", false
		}
	} else {
		w := c.word()
		c.pos = start
		if nonTypeWords[w] || declarationBreakers[w] {
			return "", false
		}
		if !c.qualified() {
			return "", false
		}
	}
	for {
		save := c.pos
		c.skipSpace()
		switch c.peek() {
		case '?', '*':
			c.pos++
			continue
		case '[':
			text, ok := c.balanced('[', ']')
			if ok && strings.Trim(text[1:len(text)-1], ", ") == "" {
				continue
			}
		}
		c.pos = save
		break
	}
	return strings.TrimSpace(c.s[start:c.pos]), true
}

// memberName consumes a member name with an optional explicit interface
// prefix, returning the prefix, the final segment and its generics.
func (c *cursor) memberName() (prefix, name, generics string) {
	var parts []string
	for {
		w := c.word()
		if w == "" {
			return "", "", ""
		}
		if w == "operator" {
			return strings.Join(parts, "."), w, ""
		}
		gen := c.generics()
		save := c.pos
		c.skipSpace()
		if c.peek() == '.' && isIdentStart(c.s, c.pos+1) {
			c.pos++
			parts = append(parts, w+gen)
			continue
		}
		c.pos = save
		return strings.Join(parts, "."), w, gen
	}
}

// params consumes a parameter list delimited by open and close.
func (c *cursor) params(d *Declaration, open, close byte) bool {
	c.skipSpace()
	text, ok := c.balanced(open, close)
	if !ok {
		return false
	}
	d.ParamText = text
	d.Params = splitTopLevel(text[1:len(text)-1], ',')
	return true
}

// initializer returns the text following a top-level '='.
func (c *cursor) initializer() string {
	c.skipSpace()
	return initializerOf(c.rest())
}

// declarators reads the initializer of d and, for ';' terminated
// declarations, any further comma separated names. A malformed name keeps
// the declaration to its first declarator.
func (c *cursor) declarators(d *Declaration, term Terminator) {
	c.skipSpace()
	rest := c.rest()
	cuts := topLevelCommas(rest)
	if term != TermSemicolon || len(cuts) == 0 {
		d.Value = initializerOf(rest)
		return
	}
	d.Value = initializerOf(rest[:cuts[0]])
	var more []Declarator
	for k, cut := range cuts {
		end := len(rest)
		if k+1 < len(cuts) {
			end = cuts[k+1]
		}
		part := strings.TrimSpace(rest[cut+1 : end])
		name, value := part, ""
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			name = strings.TrimSpace(part[:eq])
			value = initializerOf(part)
		}
		if !isIdentifier(name) {
			return
		}
		more = append(more, Declarator{Name: name, Value: value})
	}
	d.Declarators = more
}

func initializerOf(rest string) string {
	eq := strings.IndexByte(rest, '=')
	if eq < 0 || (eq+1 < len(rest) && rest[eq+1] == '>') {
		return ""
	}
	return strings.TrimSpace(rest[eq+1:])
}

// inherits consumes an optional ':' clause. A where token outside brackets
// that does not directly follow ',' or ':' ends the list.
func (c *cursor) inherits(d *Declaration) {
	c.skipSpace()
	if c.peek() != ':' || c.peekN(1) == ':' {
		return
	}
	c.pos++
	start := c.pos
	depth := 0
	prev := byte(':')
	for c.pos < len(c.s) {
		ch := c.s[c.pos]
		switch {
		case isLiteralStart(c.s, c.pos):
			end, _ := SkipLiteral(c.s, c.pos)
			c.pos = end
			prev = '"'
		case ch == '(' || ch == '<' || ch == '[':
			depth++
			prev = ch
		case ch == ')' || ch == '>' || ch == ']':
			if depth > 0 {
				depth--
			}
			prev = ch
		case isIdentStart(c.s, c.pos):
			end := identEnd(c.s, c.pos)
			if depth == 0 && c.s[c.pos:end] == "where" && prev != ',' && prev != ':' {
				c.setInherits(d, c.s[start:c.pos])
				return
			}
			c.pos = end - 1
			prev = 'a'
		case isSpace(ch):
		default:
			prev = ch
		}
		c.pos++
	}
	c.setInherits(d, c.s[start:])
}

func (c *cursor) setInherits(d *Declaration, text string) {
	d.InheritText = strings.TrimSpace(text)
	d.Inherits = splitTopLevel(d.InheritText, ',')
}

// where captures a trailing where clause as raw text.
func (c *cursor) where(d *Declaration) {
	c.skipSpace()
	save := c.pos
	if c.word() != "where" {
		c.pos = save
		return
	}
	d.Where = strings.TrimSpace(c.s[save:])
	c.pos = len(c.s)
}
