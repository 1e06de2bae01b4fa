package parser

import "strings"

// attributeTargets are the targets an attribute section may name before ':'.
var attributeTargets = map[string]bool{
	"assembly": true, "module": true, "field": true, "event": true,
	"method": true, "param": true, "property": true, "return": true,
	"type": true, "typevar": true,
}

// isAttributeShape reports whether text, a balanced "[...]" span, looks like an
// attribute section: an optional target followed by comma-separated entries,
// each a qualified name with an optional argument list.
func isAttributeShape(text string) bool {
	if len(text) < 3 || text[0] != '[' || text[len(text)-1] != ']' {
		return false
	}
	c := &cursor{s: strings.TrimSpace(text[1 : len(text)-1])}
	if c.done() {
		return false
	}
	save := c.pos
	if w := c.word(); attributeTargets[w] {
		c.skipSpace()
		if c.peek() == ':' && c.peekN(1) != ':' {
			c.pos++
		} else {
			c.pos = save
		}
	} else {
		c.pos = save
	}
	for {
		c.skipSpace()
		if !c.qualified() {
			return false
		}
		c.skipSpace()
		if c.peek() == '(' {
			if _, ok := c.balanced('(', ')'); !ok {
				return false
			}
			c.skipSpace()
		}
		if c.done() {
			return true
		}
		if c.peek() != ',' {
			return false
		}
		c.pos++
	}
}

// attributeTarget returns the explicit target of an attribute section, or "".
func attributeTarget(text string) string {
	c := &cursor{s: strings.TrimSpace(strings.TrimPrefix(text, "["))}
	w := c.word()
	c.skipSpace()
	if attributeTargets[w] && c.peek() == ':' && c.peekN(1) != ':' {
		return w
	}
	return ""
}

// nativeImport derives import metadata from DllImport or LibraryImport
// attributes.
func nativeImport(attrs []string) *NativeImport {
	for _, attr := range attrs {
		for _, entry := range splitTopLevel(strings.TrimSpace(attr[1:len(attr)-1]), ',') {
			name := entry
			args := ""
			if open := strings.IndexByte(entry, '('); open >= 0 {
				name = strings.TrimSpace(entry[:open])
				args = entry[open:]
			}
			if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
				name = name[dot+1:]
			}
			name = strings.TrimSuffix(name, "Attribute")
			if name != "DllImport" && name != "LibraryImport" {
				continue
			}
			imp := &NativeImport{}
			if args == "" {
				return imp
			}
			for i, arg := range splitTopLevel(args[1:len(args)-1], ',') {
				key, value, named := strings.Cut(arg, "=")
				if !named {
					if i == 0 {
						imp.Library = unquote(arg)
					}
					continue
				}
				if strings.TrimSpace(key) == "EntryPoint" {
					imp.EntryPoint = unquote(value)
				}
			}
			return imp
		}
	}
	return nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
