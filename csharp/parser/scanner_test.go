package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string, opts ...Option) *Tree {
	t.Helper()
	tree, err := Scan(src, opts...)
	require.NoError(t, err)
	require.NotNil(t, tree)
	checkTree(t, src, tree)
	return tree
}

func kindsOf(tree *Tree, ids []MarkerID) []Kind {
	out := make([]Kind, 0, len(ids))
	for _, id := range ids {
		out = append(out, tree.Markers[id].Kind)
	}
	return out
}

func namesOf(tree *Tree, ids []MarkerID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, tree.Markers[id].Name)
	}
	return out
}

func textOf(src string, m *Marker) string {
	return src[m.StartPos : m.EndPos+1]
}

// checkTree asserts position and nesting soundness for every reachable marker.
func checkTree(t *testing.T, src string, tree *Tree) {
	t.Helper()
	src = NormalizeNewlines(src)
	var check func(parent MarkerID, ids []MarkerID)
	check = func(parent MarkerID, ids []MarkerID) {
		prevEnd := -1
		for _, id := range ids {
			m := &tree.Markers[id]
			if m.StartPos < 0 || m.StartPos > m.EndPos || m.EndPos >= len(src) {
				t.Errorf("%v %q: bad span [%d, %d] for input of %d bytes", m.Kind, m.Name, m.StartPos, m.EndPos, len(src))
				continue
			}
			if m.StartLine > m.EndLine {
				t.Errorf("%v %q: start line %d after end line %d", m.Kind, m.Name, m.StartLine, m.EndLine)
			}
			if m.Kind == KindCode {
				t.Errorf("unclassified marker at %d", m.StartPos)
			}
			if m.StartPos <= prevEnd {
				t.Errorf("%v %q at %d overlaps previous sibling ending at %d", m.Kind, m.Name, m.StartPos, prevEnd)
			}
			prevEnd = m.EndPos
			if m.Parent != parent {
				t.Errorf("%v %q: parent = %d, want %d", m.Kind, m.Name, m.Parent, parent)
			}
			if p := tree.Get(parent); p != nil && (m.StartPos < p.StartPos || m.EndPos > p.EndPos) {
				t.Errorf("%v %q [%d, %d] outside parent %v [%d, %d]", m.Kind, m.Name, m.StartPos, m.EndPos, p.Kind, p.StartPos, p.EndPos)
			}
			check(id, m.Children)
		}
	}
	check(NoMarker, tree.Roots)
}

func TestScanMethod(t *testing.T) {
	src := "class Calc\n{\n    public static int Add(int a, int b)\n    {\n        return a + b;\n    }\n}\n"
	tree := scan(t, src)

	id, m := tree.Find("Calc.Add")
	require.NotNil(t, m)
	assert.Equal(t, KindMethod, m.Kind)
	assert.Equal(t, "int", m.DataType)
	assert.Equal(t, []string{"int a", "int b"}, m.Params)
	assert.Equal(t, ModPublic|ModStatic, m.Modifiers)
	assert.True(t, strings.HasPrefix(textOf(src, m), "public static int Add"))
	assert.True(t, strings.HasSuffix(textOf(src, m), "}"))
	assert.Equal(t, 3, m.StartLine)
	assert.Equal(t, 6, m.EndLine)

	class := tree.Get(m.Parent)
	require.NotNil(t, class)
	assert.Equal(t, KindClass, class.Kind)
	assert.Equal(t, []MarkerID{id}, class.Children)
}

func TestScanGenericClass(t *testing.T) {
	tree := scan(t, "public class Foo<T> : Base, IThing { }")
	require.Len(t, tree.Roots, 1)
	m := tree.Get(tree.Roots[0])
	assert.Equal(t, KindClass, m.Kind)
	assert.Equal(t, "Foo", m.Name)
	assert.Equal(t, "<T>", m.Generics)
	assert.Equal(t, []string{"Base", "IThing"}, m.Inherits)
}

func TestScanField(t *testing.T) {
	src := "class A\n{\n    private readonly string _name;\n}"
	tree := scan(t, src)
	_, m := tree.Find("A._name")
	require.NotNil(t, m)
	assert.Equal(t, KindField, m.Kind)
	assert.Equal(t, "string", m.DataType)
	assert.Equal(t, ModPrivate|ModReadonly, m.Modifiers)
	assert.Equal(t, "private readonly string _name;", textOf(src, m))
	assert.Equal(t, 3, m.StartLine)
	assert.Equal(t, 5, m.StartColumn)
	assert.Equal(t, 34, m.EndColumn)
}

func TestScanMultipleDeclarators(t *testing.T) {
	src := "class A\n{\n    private int a, b;\n    const int C = 1, D = 2;\n    int E;\n}"
	tree := scan(t, src)
	class := tree.Get(tree.Roots[0])
	assert.Equal(t, []string{"a", "b", "C", "D", "E"}, namesOf(tree, class.Children))
	assert.Equal(t, []Kind{KindField, KindField, KindConst, KindConst, KindField}, kindsOf(tree, class.Children))

	_, a := tree.Find("A.a")
	require.NotNil(t, a)
	assert.Equal(t, "private int a", textOf(src, a))
	_, b := tree.Find("A.b")
	require.NotNil(t, b)
	assert.Equal(t, "b;", textOf(src, b))
	assert.Equal(t, "int", b.DataType)
	assert.Equal(t, ModPrivate, b.Modifiers)

	_, c := tree.Find("A.C")
	require.NotNil(t, c)
	assert.Equal(t, "1", c.Value)
	_, d := tree.Find("A.D")
	require.NotNil(t, d)
	assert.Equal(t, "2", d.Value)
	assert.Equal(t, "D = 2;", textOf(src, d))
}

func TestScanTopLevelAwait(t *testing.T) {
	tree := scan(t, "Console.WriteLine(1);\nawait Foo();\nclass A { }")
	for _, id := range tree.Roots {
		m := tree.Get(id)
		assert.NotEqual(t, KindMethod, m.Kind, "statement %q classified as a method", m.Name)
	}
	_, m := tree.Find("A")
	assert.NotNil(t, m)
}

func TestScanEnum(t *testing.T) {
	src := "enum Color { Red, Green = 2, Blue }"
	tree := scan(t, src)
	require.Len(t, tree.Roots, 1)
	enum := tree.Get(tree.Roots[0])
	assert.Equal(t, KindEnum, enum.Kind)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, namesOf(tree, enum.Children))
	assert.Equal(t, []Kind{KindEnumValue, KindEnumValue, KindEnumValue}, kindsOf(tree, enum.Children))

	green := tree.Get(enum.Children[1])
	assert.Equal(t, "2", green.Value)
	assert.Equal(t, "Green = 2", textOf(src, green))
	assert.Equal(t, "Blue", textOf(src, tree.Get(enum.Children[2])))
}

func TestScanEnumTrailingComma(t *testing.T) {
	tree := scan(t, "enum E : byte\n{\n    [Description(\"a\")] A = 1 << 0,\n    B = (1 << 1), // second\n    C,\n}")
	enum := tree.Get(tree.Roots[0])
	assert.Equal(t, []string{"byte"}, enum.Inherits)
	values := tree.OfKind(KindEnumValue)
	assert.Equal(t, []string{"A", "B", "C"}, namesOf(tree, values))
	assert.Equal(t, []string{`[Description("a")]`}, tree.Get(values[0]).Attributes)
	assert.Equal(t, "(1 << 1)", tree.Get(values[1]).Value)
}

func TestScanDoWhile(t *testing.T) {
	src := "do { x++; } while (x < 10);"
	tree := scan(t, src)
	require.Len(t, tree.Roots, 1)
	m := tree.Get(tree.Roots[0])
	assert.Equal(t, KindDoWhile, m.Kind)
	assert.Equal(t, src, textOf(src, m))
	assert.Equal(t, "(x < 10)", m.Value)
}

func TestScanDoWhileInMethod(t *testing.T) {
	src := `class A {
    void M() {
        int x = 0;
        do {
            x++;
        } // loop
        while (x < 10);
    }
}`
	tree := scan(t, src)
	_, method := tree.Find("A.M")
	require.NotNil(t, method)
	require.Len(t, method.Children, 1)
	loop := tree.Get(method.Children[0])
	assert.Equal(t, KindDoWhile, loop.Kind)
	assert.True(t, strings.HasSuffix(textOf(src, loop), "while (x < 10);"))
	assert.Equal(t, []Kind{KindLineComment}, kindsOf(tree, loop.Children))

	unmerged := scan(t, src, WithoutConsolidation())
	_, method = unmerged.Find("A.M")
	assert.Equal(t, []Kind{KindDo, KindLineComment, KindWhile}, kindsOf(unmerged, method.Children))
}

func TestScanSyntaxError(t *testing.T) {
	src := "class A { 9Foo() { } }"
	tree, err := Scan(src, WithFile("A.cs"))
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.True(t, errors.Is(err, ErrSyntax))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "A.cs", perr.File)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 11, perr.Column)
	assert.Equal(t, src, perr.Source)
	assert.Contains(t, perr.FormatError(), src+"\n"+strings.Repeat(" ", 10)+"^")
	assert.True(t, strings.HasPrefix(err.Error(), "A.cs:1:11: "))
}

func TestScanCommentIsolation(t *testing.T) {
	src := "class A\n{\n    void M()\n    {\n        // a } brace in a comment\n        var s = @\"{\n}\";\n        var c = '}';\n    }\n    int X;\n}\n"
	tree := scan(t, src)
	require.Len(t, tree.Roots, 1)
	class := tree.Get(tree.Roots[0])
	assert.Equal(t, []string{"M", "X"}, namesOf(tree, class.Children))
	method := tree.Get(class.Children[0])
	assert.Equal(t, []Kind{KindLineComment}, kindsOf(tree, method.Children))
	assert.Equal(t, "// a } brace in a comment", textOf(src, tree.Get(method.Children[0])))
}

func TestScanTrivia(t *testing.T) {
	src := `// header
using System;

namespace N
{
    /// <summary>Thing.</summary>
    public class Thing /* base */ : Base
    {
        #region Fields
        private int _n;
        #endregion
    }
}`
	tree := scan(t, src)
	assert.Equal(t, []Kind{KindLineComment, KindUsing, KindNamespace}, kindsOf(tree, tree.Roots))

	ns := tree.Get(tree.Roots[2])
	assert.Equal(t, []Kind{KindDocComment, KindClass}, kindsOf(tree, ns.Children))

	class := tree.Get(ns.Children[1])
	assert.Equal(t, []Kind{KindBlockComment, KindDirective, KindField, KindDirective}, kindsOf(tree, class.Children))
	region := tree.Get(class.Children[1])
	assert.Equal(t, "region", region.Name)
	assert.Equal(t, "Fields", region.Value)
	assert.Equal(t, "N.Thing", class.FullName())

	assert.Equal(t, 0, tree.PreambleStart)
	assert.Equal(t, strings.Index(src, "namespace"), tree.PreambleEnd)
}

func TestScanPreprocessor(t *testing.T) {
	src := `#define FEATURE
class A
{
#if FEATURE
    int X;
#else
    int Y;
#endif
#if DEBUG && !FEATURE
    int Z;
#elif DEBUG
    int W;
#endif
}`
	tree := scan(t, src)
	assert.Equal(t, []string{"X"}, namesOf(tree, tree.OfKind(KindField)))

	tree = scan(t, src, WithDefines("DEBUG"))
	assert.Equal(t, []string{"X", "W"}, namesOf(tree, tree.OfKind(KindField)))
	assert.Len(t, tree.OfKind(KindDirective), 7)
}

func TestScanAttributes(t *testing.T) {
	src := `[assembly: InternalsVisibleTo("Tests")]
namespace Interop
{
    static class Native
    {
        [SuppressUnmanagedCodeSecurity]
        [DllImport("user32.dll", EntryPoint = "MessageBoxW")]
        public static extern int MessageBox(IntPtr h, string text);

        int[] values = new int[4];
    }
}`
	tree := scan(t, src)
	assert.Equal(t, []Kind{KindAttribute, KindNamespace}, kindsOf(tree, tree.Roots))
	assembly := tree.Get(tree.Roots[0])
	assert.Equal(t, "assembly", assembly.Name)
	assert.Equal(t, strings.Index(src, "namespace"), tree.PreambleEnd)

	_, m := tree.Find("Interop.Native.MessageBox")
	require.NotNil(t, m)
	assert.Equal(t, KindMethod, m.Kind)
	assert.Len(t, m.Attributes, 2)
	assert.True(t, m.Modifiers.Has(ModExtern))
	require.NotNil(t, m.Import)
	assert.Equal(t, "user32.dll", m.Import.Library)
	assert.Equal(t, "MessageBoxW", m.Import.EntryPoint)
	assert.True(t, strings.HasPrefix(textOf(src, m), "[SuppressUnmanagedCodeSecurity]"))

	_, values := tree.Find("Interop.Native.values")
	require.NotNil(t, values)
	assert.Equal(t, KindField, values.Kind)
	assert.Equal(t, "int[]", values.DataType)
	assert.Nil(t, values.Attributes)
}

func TestScanProperties(t *testing.T) {
	src := `class P
{
    int _x;
    public int X => _x;
    public int this[int i] => i;
    public int Double(int v) => v * 2;
    public string Name { get; private set; } = "n";
    public List<int> Items { get; } = new() { 1, 2 };
    public int Y
    {
        get { return _x; }
        set => _x = value;
    }
    public event EventHandler Changed
    {
        add { }
        remove { }
    }
}`
	tree := scan(t, src)
	class := tree.Get(tree.Roots[0])
	assert.Equal(t,
		[]Kind{KindField, KindProperty, KindIndexer, KindMethod, KindProperty, KindProperty, KindProperty, KindEvent},
		kindsOf(tree, class.Children))

	_, x := tree.Find("P.X")
	require.NotNil(t, x)
	assert.Equal(t, "public int X => _x;", textOf(src, x))
	require.Len(t, x.Children, 1)
	get := tree.Get(x.Children[0])
	assert.Equal(t, KindGet, get.Kind)
	assert.Equal(t, "=> _x;", textOf(src, get))

	indexer := tree.Get(class.Children[2])
	assert.Equal(t, []Kind{KindGet}, kindsOf(tree, indexer.Children))

	_, double := tree.Find("P.Double")
	assert.Empty(t, double.Children)

	_, name := tree.Find("P.Name")
	assert.Equal(t, `"n"`, name.Value)
	assert.Equal(t, []Kind{KindGet, KindSet}, kindsOf(tree, name.Children))
	assert.Equal(t, ModPrivate, tree.Get(name.Children[1]).Modifiers)
	assert.True(t, strings.HasSuffix(textOf(src, name), `= "n";`))

	_, items := tree.Find("P.Items")
	assert.Equal(t, "new() { 1, 2 }", items.Value)

	_, y := tree.Find("P.Y")
	assert.Equal(t, []Kind{KindGet, KindSet}, kindsOf(tree, y.Children))

	_, changed := tree.Find("P.Changed")
	assert.Equal(t, []Kind{KindAdd, KindRemove}, kindsOf(tree, changed.Children))
}

func TestScanFileScopedNamespace(t *testing.T) {
	src := "using System;\n\nnamespace App.Core;\n\npublic class Service\n{\n    public Service() { }\n}\n"
	tree := scan(t, src)
	assert.Equal(t, []Kind{KindUsing, KindFileNamespace}, kindsOf(tree, tree.Roots))
	ns := tree.Get(tree.Roots[1])
	assert.Equal(t, "App.Core", ns.Name)
	assert.Equal(t, len(strings.TrimRight(src, "\n"))-1, ns.EndPos)

	_, ctor := tree.Find("App.Core.Service.Service")
	require.NotNil(t, ctor)
	assert.Equal(t, KindConstructor, ctor.Kind)
	assert.Equal(t, "App.Core", tree.Namespace(tree.Roots[1]))
	assert.Equal(t, strings.Index(src, "namespace"), tree.PreambleEnd)
}

func TestScanNestedTypes(t *testing.T) {
	src := `namespace N
{
    public class Outer
    {
        public Outer() { }
        ~Outer() { }
        public void Run() { }
        public struct Inner
        {
            public Inner(int x) : this() { }
            public override string ToString() => "inner";
        }
    }
    interface IShape { double Area(); }
    public delegate void Done(int code);
    public record Person(string Name, int Age);
}`
	tree := scan(t, src)
	_, outer := tree.Find("N.Outer")
	require.NotNil(t, outer)
	assert.Equal(t, []Kind{KindConstructor, KindDestructor, KindMethod, KindStruct}, kindsOf(tree, outer.Children))

	_, ctor := tree.Find("N.Outer.Inner.Inner")
	require.NotNil(t, ctor)
	assert.Equal(t, KindConstructor, ctor.Kind)
	assert.Equal(t, []string{"this()"}, ctor.Inherits)

	_, area := tree.Find("N.IShape.Area")
	require.NotNil(t, area)
	assert.Equal(t, KindMethod, area.Kind)
	assert.Equal(t, "double", area.DataType)

	_, done := tree.Find("N.Done")
	assert.Equal(t, KindDelegate, done.Kind)
	_, person := tree.Find("N.Person")
	assert.Equal(t, KindRecord, person.Kind)
	assert.Equal(t, []string{"string Name", "int Age"}, person.Params)
}

func TestScanStatements(t *testing.T) {
	src := `class A
{
    void M(int[] xs, int k)
    {
        if (k > 0) { k--; } else { k++; }
        foreach (var x in xs) { Use(x); }
        try { Run(); } catch (Exception e) { Log(e); } finally { Done(); }
        switch (k)
        {
            case 1:
                if (xs.Length > 1) { }
                break;
            default:
                break;
        }
        list.ForEach(x => { if (x) { } });
        for (int i = 0; i < k; i++) Use(i);
        using var f = Open();
    }
}`
	tree := scan(t, src)
	_, m := tree.Find("A.M")
	require.NotNil(t, m)
	assert.Equal(t,
		[]Kind{KindIf, KindElse, KindForeach, KindTry, KindCatch, KindFinally, KindSwitch, KindIf, KindFor},
		kindsOf(tree, m.Children))
	assert.Equal(t, "(k > 0)", tree.Get(m.Children[0]).Value)
	assert.Equal(t, "(Exception e)", tree.Get(m.Children[4]).Value)

	sw := tree.Get(m.Children[6])
	assert.Equal(t, []Kind{KindIf}, kindsOf(tree, sw.Children))

	tree = scan(t, src, WithoutStatements())
	_, m = tree.Find("A.M")
	assert.Empty(t, m.Children)
}

func TestScanUnterminated(t *testing.T) {
	src := "class A { void M() { if (x) {"
	tree := scan(t, src)
	require.Len(t, tree.Roots, 1)
	class := tree.Get(tree.Roots[0])
	assert.Equal(t, len(src)-1, class.EndPos)
	_, m := tree.Find("A.M")
	require.NotNil(t, m)
	assert.Equal(t, len(src)-1, m.EndPos)
}

func TestScanStrayBrace(t *testing.T) {
	tree := scan(t, "class A { }\n}\nclass B { }")
	assert.Equal(t, []string{"A", "B"}, namesOf(tree, tree.Roots))
}

func TestScanUnresolved(t *testing.T) {
	tree := scan(t, "class A : Base { Foo f = Make(\"Bar\"); void M() { Baz(); } }")
	assert.Equal(t, []string{"A", "Base"}, tree.Unresolved)
	_, class := tree.Find("A")
	assert.Equal(t, []string{"Foo", "f", "Make", "M"}, class.Unresolved)
	_, m := tree.Find("A.M")
	assert.Equal(t, []string{"Baz"}, m.Unresolved)
}

func TestScanLineEndings(t *testing.T) {
	tree := scan(t, "class A\r\n{\r\n  int X;\r\n}\r\n")
	_, x := tree.Find("A.X")
	require.NotNil(t, x)
	assert.Equal(t, 3, x.StartLine)
	assert.Equal(t, 3, x.StartColumn)
}

func TestScanIdempotent(t *testing.T) {
	src := `using System;
namespace N {
    [Serializable]
    public sealed partial class C<T> : IEquatable<C<T>> where T : struct {
        public const string Tag = "{";
        private static readonly Dictionary<string, int> Map = new() { ["a"] = 1 };
        public int Count { get; set; }
        public bool Equals(C<T>? other) => other is not null;
        async Task<int> RunAsync(CancellationToken ct) {
            while (!ct.IsCancellationRequested) { await Task.Delay(1, ct); }
            return $"{Count:}".Length;
        }
    }
}`
	first := scan(t, src)
	second := scan(t, src)
	assert.Equal(t, first, second)
	_, c := first.Find("N.C")
	require.NotNil(t, c)
	assert.Equal(t, []string{"IEquatable<C<T>>"}, c.Inherits)
	assert.Equal(t, "where T : struct", c.Where)
	assert.Equal(t, []string{"[Serializable]"}, c.Attributes)
	assert.Equal(t, ModPublic|ModSealed|ModPartial, c.Modifiers)
}

func TestScanEmpty(t *testing.T) {
	tree := scan(t, "")
	assert.Empty(t, tree.Roots)
	assert.Equal(t, 0, tree.PreambleEnd)
}
