// Package parser scans C# source into a tree of structural markers.
//
// # Overview
//
// The scanner is not a compiler front end. It makes one left-to-right pass
// over the text, tracking nesting with an explicit frame stack, and classifies
// the text between structural terminators into declarations:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Source    │────▶│   Scanner   │────▶│ Consolidate │
//	│  (string)   │     │  (frames)   │     │  (do/while) │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                           │
//	                           ▼
//	                    ┌─────────────┐
//	                    │  Classify   │
//	                    │ (lookback)  │
//	                    └─────────────┘
//
// Literals and comments are skipped atomically, so delimiters inside them
// never affect nesting. Comments and preprocessor directives become markers
// of their own.
//
// # Markers
//
// Markers live in an arena owned by the Tree and refer to each other by
// MarkerID:
//
//	tree, err := parser.Scan(src, parser.WithFile("Foo.cs"))
//	tree.Walk(func(id parser.MarkerID, m *parser.Marker, depth int) bool {
//	    fmt.Println(strings.Repeat("  ", depth), m.Kind, m.FullName())
//	    return true
//	})
//
// Offsets are 0-based and inclusive. Lines and columns are 1-based.
//
// # Errors
//
// Text that cannot begin any declaration, such as "9Foo() { }" at member
// level, aborts the scan with a *ParseError wrapping ErrSyntax. Spans that
// merely do not match a known declaration shape are passed over as opaque
// code. Unterminated blocks are closed at the end of input.
//
// # Conditional compilation
//
// #if, #elif, #else and #endif are evaluated against #define, #undef and the
// symbols given to WithDefines. Lines in inactive branches are skipped.
package parser
