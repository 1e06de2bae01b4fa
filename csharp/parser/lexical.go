package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	if ch >= utf8.RuneSelf {
		return true
	}
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

// isIdentStart reports whether an identifier begins at s[i]. A leading '@'
// marks a verbatim identifier such as @class.
func isIdentStart(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	ch := s[i]
	if ch == '@' {
		return i+1 < len(s) && isLetter(s[i+1])
	}
	if ch >= utf8.RuneSelf {
		r, _ := utf8.DecodeRuneInString(s[i:])
		return unicode.IsLetter(r)
	}
	return isLetter(ch)
}

// identEnd returns the index just past the identifier starting at i.
func identEnd(s string, i int) int {
	j := i
	if j < len(s) && s[j] == '@' {
		j++
	}
	for j < len(s) && isIdentPart(s[j]) {
		j++
	}
	return j
}

// isLiteralStart reports whether a string or character literal begins at s[i],
// including the @, $ and $@ prefixed forms.
func isLiteralStart(s string, i int) bool {
	switch s[i] {
	case '"', '\'':
		return true
	case '@':
		return i+1 < len(s) && (s[i+1] == '"' || (s[i+1] == '$' && i+2 < len(s) && s[i+2] == '"'))
	case '$':
		j := i
		for j < len(s) && s[j] == '$' {
			j++
		}
		if j < len(s) && s[j] == '@' {
			j++
		}
		return j < len(s) && s[j] == '"'
	}
	return false
}

// isCommentStart reports whether a line or block comment begins at s[i].
func isCommentStart(s string, i int) bool {
	return s[i] == '/' && i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '*')
}

// SkipLiteral returns the index of the closing quote of the literal that
// begins at i. Backslash escapes are honored in regular literals, doubled
// quotes in verbatim strings, and interpolation holes may nest further
// literals. When the literal is unterminated it returns the last index the
// literal could occupy and false: end of input, or the end of the line for
// literals that cannot span lines.
func SkipLiteral(s string, i int) (int, bool) {
	n := len(s)
	if i >= n {
		return n - 1, false
	}
	if s[i] == '\'' {
		return skipQuoted(s, i+1, '\'')
	}

	j := i
	interpolated := 0
	verbatim := false
	for j < n && (s[j] == '$' || s[j] == '@') {
		if s[j] == '$' {
			interpolated++
		} else {
			verbatim = true
		}
		j++
	}
	if j >= n || s[j] != '"' {
		return i, true
	}

	if !verbatim && strings.HasPrefix(s[j:], `"""`) {
		return skipRawString(s, j)
	}
	if verbatim {
		return skipVerbatim(s, j+1, interpolated > 0)
	}
	if interpolated > 0 {
		return skipInterpolated(s, j+1)
	}
	return skipQuoted(s, j+1, '"')
}

func skipQuoted(s string, j int, quote byte) (int, bool) {
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j, true
		case '\n':
			return j - 1, false
		}
		j++
	}
	return len(s) - 1, false
}

func skipVerbatim(s string, j int, interpolated bool) (int, bool) {
	for j < len(s) {
		switch s[j] {
		case '"':
			if j+1 < len(s) && s[j+1] == '"' {
				j += 2
				continue
			}
			return j, true
		case '{':
			if interpolated {
				if j+1 < len(s) && s[j+1] == '{' {
					j += 2
					continue
				}
				end, ok := skipHole(s, j)
				if !ok {
					return end, false
				}
				j = end + 1
				continue
			}
		}
		j++
	}
	return len(s) - 1, false
}

func skipInterpolated(s string, j int) (int, bool) {
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return j, true
		case '\n':
			return j - 1, false
		case '{':
			if j+1 < len(s) && s[j+1] == '{' {
				j += 2
				continue
			}
			end, ok := skipHole(s, j)
			if !ok {
				return end, false
			}
			j = end + 1
			continue
		}
		j++
	}
	return len(s) - 1, false
}

// skipHole returns the index of the brace closing the interpolation hole
// opened at s[j].
func skipHole(s string, j int) (int, bool) {
	depth := 0
	for j < len(s) {
		switch {
		case isLiteralStart(s, j):
			end, ok := SkipLiteral(s, j)
			if !ok {
				return end, false
			}
			j = end
		case s[j] == '{':
			depth++
		case s[j] == '}':
			depth--
			if depth == 0 {
				return j, true
			}
		}
		j++
	}
	return len(s) - 1, false
}

func skipRawString(s string, j int) (int, bool) {
	quotes := 0
	for j+quotes < len(s) && s[j+quotes] == '"' {
		quotes++
	}
	closing := strings.Repeat(`"`, quotes)
	k := strings.Index(s[j+quotes:], closing)
	if k < 0 {
		return len(s) - 1, false
	}
	return j + quotes + k + quotes - 1, true
}

// SkipComment returns the index of the last character of the comment that
// begins at i and the comment kind. Line comments end before the newline.
func SkipComment(s string, i int) (int, Kind) {
	if s[i+1] == '/' {
		end := strings.IndexByte(s[i:], '\n')
		if end < 0 {
			end = len(s) - i
		}
		kind := KindLineComment
		if i+2 < len(s) && s[i+2] == '/' && (i+3 >= len(s) || s[i+3] != '/') {
			kind = KindDocComment
		}
		return i + end - 1, kind
	}
	end := strings.Index(s[i+2:], "*/")
	if end < 0 {
		return len(s) - 1, KindBlockComment
	}
	kind := KindBlockComment
	if i+2 < len(s) && s[i+2] == '*' && end > 0 {
		kind = KindDocComment
	}
	return i + 2 + end + 1, kind
}

// ExtractBalanced returns the text from s[open] through the matching close
// delimiter inclusive, and the index of that delimiter. Nested pairs, string
// and character literals and comments are skipped. ok is false when the input
// ends before the span is balanced.
func ExtractBalanced(s string, open int, openDelim, closeDelim byte) (text string, closeIndex int, ok bool) {
	if open < 0 || open >= len(s) || s[open] != openDelim {
		return "", -1, false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch {
		case isLiteralStart(s, i):
			end, terminated := SkipLiteral(s, i)
			if !terminated && end >= len(s)-1 {
				return "", -1, false
			}
			i = end
		case isCommentStart(s, i):
			i, _ = SkipComment(s, i)
		case s[i] == openDelim:
			depth++
		case s[i] == closeDelim:
			depth--
			if depth == 0 {
				return s[open : i+1], i, true
			}
		}
	}
	return "", -1, false
}

// skipToTerminator returns the index of the first ';' at nesting depth zero
// at or after from. When a closing brace, bracket or parenthesis at depth zero
// is reached first, or the input ends, it returns the index before it and
// false.
func skipToTerminator(s string, from int) (int, bool) {
	depth := 0
	for i := from; i < len(s); i++ {
		switch {
		case isLiteralStart(s, i):
			i, _ = SkipLiteral(s, i)
		case isCommentStart(s, i):
			i, _ = SkipComment(s, i)
		case s[i] == '(' || s[i] == '[' || s[i] == '{':
			depth++
		case s[i] == ')' || s[i] == ']' || s[i] == '}':
			if depth == 0 {
				return i - 1, false
			}
			depth--
		case s[i] == ';' && depth == 0:
			return i, true
		}
	}
	return len(s) - 1, false
}

// splitTopLevel splits s on sep where sep is not nested inside brackets,
// generics or literals. Entries are trimmed and empty entries dropped.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, angle := 0, 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case isLiteralStart(s, i):
			i, _ = SkipLiteral(s, i)
		case s[i] == '(' || s[i] == '[' || s[i] == '{':
			depth++
		case s[i] == ')' || s[i] == ']' || s[i] == '}':
			if depth > 0 {
				depth--
			}
		case s[i] == '<':
			angle++
		case s[i] == '>':
			if i > 0 && s[i-1] == '=' {
				continue
			}
			if angle > 0 {
				angle--
			}
		case s[i] == sep && depth == 0 && angle == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// topLevelCommas returns the indexes of the commas in s that sit outside
// brackets, generic argument lists, literals and comments. A '<' opens a
// generic list only when it directly follows an identifier.
func topLevelCommas(s string) []int {
	var cuts []int
	depth, angle := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case isLiteralStart(s, i):
			i, _ = SkipLiteral(s, i)
		case isCommentStart(s, i):
			i, _ = SkipComment(s, i)
		case s[i] == '(' || s[i] == '[' || s[i] == '{':
			depth++
		case s[i] == ')' || s[i] == ']' || s[i] == '}':
			if depth > 0 {
				depth--
			}
		case s[i] == '<':
			if i > 0 && isIdentPart(s[i-1]) && i+1 < len(s) && s[i+1] != '=' && s[i+1] != '<' {
				angle++
			}
		case s[i] == '>':
			if angle > 0 && s[i-1] != '=' {
				angle--
			}
		case s[i] == ',' && depth == 0 && angle == 0:
			cuts = append(cuts, i)
		}
	}
	return cuts
}

func isIdentifier(s string) bool {
	return isIdentStart(s, 0) && identEnd(s, 0) == len(s)
}

// normalizeCode collapses whitespace runs to single spaces and drops comments,
// leaving literals untouched.
func normalizeCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		switch {
		case isLiteralStart(s, i):
			end, _ := SkipLiteral(s, i)
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteString(s[i : end+1])
			i = end
		case isCommentStart(s, i):
			i, _ = SkipComment(s, i)
			space = true
		case isSpace(s[i]):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// NormalizeNewlines replaces \r\n and lone \r line endings with \n.
func NormalizeNewlines(s string) string {
	if strings.IndexByte(s, '\r') < 0 {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
