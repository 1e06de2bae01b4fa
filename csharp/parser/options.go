package parser

type Option func(*scanner)

// WithFile sets the path reported in errors and recorded on the tree.
func WithFile(path string) Option {
	return func(s *scanner) {
		s.file = path
	}
}

// WithDefines predefines conditional compilation symbols.
func WithDefines(symbols ...string) Option {
	return func(s *scanner) {
		s.symbols = append(s.symbols, symbols...)
	}
}

// WithoutStatements disables statement markers inside method bodies.
func WithoutStatements() Option {
	return func(s *scanner) {
		s.statements = false
	}
}

// WithoutConsolidation leaves do and while markers unmerged.
func WithoutConsolidation() Option {
	return func(s *scanner) {
		s.consolidate = false
	}
}
