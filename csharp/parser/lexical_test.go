package parser

import (
	"reflect"
	"testing"
)

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  int
		delim [2]byte
		want  string
		close int
		ok    bool
	}{
		{"literal with paren", `Foo(Bar(1,2), "a)b")`, 3, [2]byte{'(', ')'}, `(Bar(1,2), "a)b")`, 19, true},
		{"generics", `List<Dictionary<int, string>> x`, 4, [2]byte{'<', '>'}, `<Dictionary<int, string>>`, 28, true},
		{"attribute", `[Obsolete("]")] void M()`, 0, [2]byte{'[', ']'}, `[Obsolete("]")]`, 14, true},
		{"char literal", `(')')`, 0, [2]byte{'(', ')'}, `(')')`, 4, true},
		{"comment", "(a /* ) */ b)", 0, [2]byte{'(', ')'}, "(a /* ) */ b)", 12, true},
		{"unbalanced", `(a, (b)`, 0, [2]byte{'(', ')'}, "", -1, false},
		{"wrong start", `x(a)`, 0, [2]byte{'(', ')'}, "", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, close, ok := ExtractBalanced(tt.input, tt.open, tt.delim[0], tt.delim[1])
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if text != tt.want {
				t.Errorf("text = %q, want %q", text, tt.want)
			}
			if close != tt.close {
				t.Errorf("close = %d, want %d", close, tt.close)
			}
		})
	}
}

func TestSkipLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		end   int
		ok    bool
	}{
		{"regular", `"a\"b" x`, 5, true},
		{"verbatim", `@"a""b" x`, 6, true},
		{"verbatim multiline", "@\"a\n{\" x", 5, true},
		{"char", `'\'' x`, 3, true},
		{"interpolated", `$"a{b("}")}c" x`, 12, true},
		{"interpolated verbatim", `$@"{x}""" x`, 8, true},
		{"raw", `"""a"b""" x`, 8, true},
		{"unterminated at newline", "\"abc\nx", 3, false},
		{"unterminated at end", `"abc`, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, ok := SkipLiteral(tt.input, 0)
			if end != tt.end {
				t.Errorf("end = %d, want %d", end, tt.end)
			}
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestSkipComment(t *testing.T) {
	tests := []struct {
		input string
		end   int
		kind  Kind
	}{
		{"// hi\nx", 4, KindLineComment},
		{"/// doc", 6, KindDocComment},
		{"//// rule", 8, KindLineComment},
		{"/* a */ x", 6, KindBlockComment},
		{"/** d */", 7, KindDocComment},
		{"/**/", 3, KindBlockComment},
		{"/* open", 6, KindBlockComment},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			end, kind := SkipComment(tt.input, 0)
			if end != tt.end {
				t.Errorf("end = %d, want %d", end, tt.end)
			}
			if kind != tt.kind {
				t.Errorf("kind = %v, want %v", kind, tt.kind)
			}
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel(`int a, Dictionary<int, string> b, Func<int> f = () => 1, string s = ","`, ',')
	want := []string{"int a", "Dictionary<int, string> b", "Func<int> f = () => 1", `string s = ","`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTopLevel = %q, want %q", got, want)
	}
	if got := splitTopLevel("  ", ','); got != nil {
		t.Errorf("splitTopLevel(blank) = %q, want nil", got)
	}
}

func TestSkipToTerminator(t *testing.T) {
	tests := []struct {
		input string
		end   int
		ok    bool
	}{
		{"x => { a; };", 11, true},
		{`"a;b";`, 5, true},
		{"a + b }", 5, false},
		{"a + b", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			end, ok := skipToTerminator(tt.input, 0)
			if end != tt.end || ok != tt.ok {
				t.Errorf("skipToTerminator = (%d, %v), want (%d, %v)", end, ok, tt.end, tt.ok)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	got := normalizeCode(" int   x /* c */ =\n\t\"a  b\"; ")
	want := `int x = "a  b";`
	if got != want {
		t.Errorf("normalizeCode = %q, want %q", got, want)
	}
}

func TestNormalizeNewlines(t *testing.T) {
	if got := NormalizeNewlines("a\r\nb\rc\n"); got != "a\nb\nc\n" {
		t.Errorf("NormalizeNewlines = %q", got)
	}
}

func TestLinePosition(t *testing.T) {
	li := newLineIndex("ab\ncd\n\nx")
	tests := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{7, 4, 1},
	}
	for _, tt := range tests {
		line, col := li.position(tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		start bool
		end   int
	}{
		{"foo bar", true, 3},
		{"_x1;", true, 3},
		{"@class x", true, 6},
		{"9lives", false, 0},
		{"@9", false, 0},
		{"été", true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isIdentStart(tt.input, 0); got != tt.start {
				t.Fatalf("isIdentStart = %v, want %v", got, tt.start)
			}
			if !tt.start {
				return
			}
			if got := identEnd(tt.input, 0); got != tt.end {
				t.Errorf("identEnd = %d, want %d", got, tt.end)
			}
		})
	}
}
