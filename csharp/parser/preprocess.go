package parser

import "strings"

// condition tracks one #if group.
type condition struct {
	parentActive bool
	taken        bool
	active       bool
}

// preprocessor evaluates conditional compilation directives.
type preprocessor struct {
	defines map[string]bool
	stack   []condition
}

func newPreprocessor(symbols []string) *preprocessor {
	p := &preprocessor{defines: make(map[string]bool, len(symbols))}
	for _, sym := range symbols {
		p.defines[sym] = true
	}
	return p
}

// active reports whether content at the current position is compiled.
func (p *preprocessor) active() bool {
	if len(p.stack) == 0 {
		return true
	}
	return p.stack[len(p.stack)-1].active
}

// directive applies one directive and reports whether it was well formed.
func (p *preprocessor) directive(keyword, arg string) bool {
	switch keyword {
	case "define":
		if p.active() && arg != "" {
			p.defines[arg] = true
		}
	case "undef":
		if p.active() {
			delete(p.defines, arg)
		}
	case "if":
		parent := p.active()
		on := parent && p.eval(arg)
		p.stack = append(p.stack, condition{parentActive: parent, taken: on, active: on})
	case "elif":
		if len(p.stack) == 0 {
			return false
		}
		top := &p.stack[len(p.stack)-1]
		top.active = top.parentActive && !top.taken && p.eval(arg)
		top.taken = top.taken || top.active
	case "else":
		if len(p.stack) == 0 {
			return false
		}
		top := &p.stack[len(p.stack)-1]
		top.active = top.parentActive && !top.taken
		top.taken = true
	case "endif":
		if len(p.stack) == 0 {
			return false
		}
		p.stack = p.stack[:len(p.stack)-1]
	}
	return true
}

// eval evaluates a conditional expression. Unknown symbols are false.
func (p *preprocessor) eval(expr string) bool {
	if i := strings.Index(expr, "//"); i >= 0 {
		expr = expr[:i]
	}
	e := &exprParser{s: expr, defines: p.defines}
	return e.or()
}

type exprParser struct {
	s       string
	pos     int
	defines map[string]bool
}

func (e *exprParser) skipSpace() {
	for e.pos < len(e.s) && isSpace(e.s[e.pos]) {
		e.pos++
	}
}

func (e *exprParser) accept(op string) bool {
	e.skipSpace()
	if strings.HasPrefix(e.s[e.pos:], op) {
		e.pos += len(op)
		return true
	}
	return false
}

func (e *exprParser) or() bool {
	v := e.and()
	for e.accept("||") {
		r := e.and()
		v = v || r
	}
	return v
}

func (e *exprParser) and() bool {
	v := e.equality()
	for e.accept("&&") {
		r := e.equality()
		v = v && r
	}
	return v
}

func (e *exprParser) equality() bool {
	v := e.unary()
	for {
		switch {
		case e.accept("=="):
			v = v == e.unary()
		case e.accept("!="):
			v = v != e.unary()
		default:
			return v
		}
	}
}

func (e *exprParser) unary() bool {
	if e.accept("!") {
		return !e.unary()
	}
	if e.accept("(") {
		v := e.or()
		e.accept(")")
		return v
	}
	e.skipSpace()
	start := e.pos
	for e.pos < len(e.s) && isIdentPart(e.s[e.pos]) {
		e.pos++
	}
	switch sym := e.s[start:e.pos]; sym {
	case "true":
		return true
	case "false", "":
		return false
	default:
		return e.defines[sym]
	}
}

// splitDirective splits the text after '#' into its keyword and argument.
func splitDirective(line string) (keyword, arg string) {
	line = strings.TrimSpace(line)
	end := 0
	for end < len(line) && isLetter(line[end]) {
		end++
	}
	return line[:end], strings.TrimSpace(line[end:])
}
