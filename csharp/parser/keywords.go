package parser

// reserved holds C# keywords, contextual keywords and intrinsic type names.
// Words outside this set are collected into unresolved-name bags.
var reserved = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,

	// contextual
	"add": true, "alias": true, "and": true, "args": true, "ascending": true,
	"async": true, "await": true, "by": true, "descending": true, "dynamic": true,
	"equals": true, "file": true, "from": true, "get": true, "global": true,
	"group": true, "init": true, "into": true, "join": true, "let": true,
	"managed": true, "nameof": true, "nint": true, "not": true, "notnull": true,
	"nuint": true, "on": true, "or": true, "orderby": true, "partial": true,
	"record": true, "remove": true, "required": true, "scoped": true, "select": true,
	"set": true, "unmanaged": true, "value": true, "var": true, "when": true,
	"where": true, "with": true, "yield": true,
}

// IsReserved reports whether word is a keyword or intrinsic type name.
func IsReserved(word string) bool {
	return reserved[word]
}

// declarationBreakers are statement keywords that never begin a declaration.
var declarationBreakers = map[string]bool{
	"if": true, "else": true, "for": true, "foreach": true, "while": true,
	"do": true, "switch": true, "try": true, "catch": true, "finally": true,
	"lock": true, "return": true, "throw": true, "goto": true, "break": true,
	"continue": true, "checked": true, "unchecked": true, "yield": true,
	"case": true, "default": true,
}

// nonTypeWords begin expressions and can never be the type of a member.
var nonTypeWords = map[string]bool{
	"await": true, "nameof": true, "typeof": true, "sizeof": true,
	"stackalloc": true, "throw": true, "return": true, "yield": true,
}
