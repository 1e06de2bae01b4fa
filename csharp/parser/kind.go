package parser

type Kind int

const (
	KindCode Kind = iota

	// Namespace level
	KindNamespace
	KindFileNamespace
	KindUsing

	// Type declarations
	KindClass
	KindInterface
	KindStruct
	KindEnum
	KindEnumValue
	KindRecord
	KindDelegate

	// Members
	KindEvent
	KindConst
	KindOperator
	KindConversion
	KindConstructor
	KindDestructor
	KindIndexer
	KindProperty
	KindField
	KindMethod

	// Accessors
	KindGet
	KindSet
	KindInit
	KindAdd
	KindRemove

	// Trivia
	KindLineComment
	KindBlockComment
	KindDocComment
	KindDirective

	// Assembly and module attribute sections
	KindAttribute

	// Statements
	KindIf
	KindElse
	KindFor
	KindForeach
	KindWhile
	KindDo
	KindDoWhile
	KindSwitch
	KindTry
	KindCatch
	KindFinally
	KindLock
	KindUsingBlock
	KindUnsafe
	KindFixed
	KindChecked
	KindUnchecked
)

var kindNames = map[Kind]string{
	KindCode:          "Code",
	KindNamespace:     "Namespace",
	KindFileNamespace: "FileNamespace",
	KindUsing:         "Using",
	KindClass:         "Class",
	KindInterface:     "Interface",
	KindStruct:        "Struct",
	KindEnum:          "Enum",
	KindEnumValue:     "EnumValue",
	KindRecord:        "Record",
	KindDelegate:      "Delegate",
	KindEvent:         "Event",
	KindConst:         "Const",
	KindOperator:      "Operator",
	KindConversion:    "Conversion",
	KindConstructor:   "Constructor",
	KindDestructor:    "Destructor",
	KindIndexer:       "Indexer",
	KindProperty:      "Property",
	KindField:         "Field",
	KindMethod:        "Method",
	KindGet:           "Get",
	KindSet:           "Set",
	KindInit:          "Init",
	KindAdd:           "Add",
	KindRemove:        "Remove",
	KindLineComment:   "LineComment",
	KindBlockComment:  "BlockComment",
	KindDocComment:    "DocComment",
	KindDirective:     "Directive",
	KindAttribute:     "Attribute",
	KindIf:            "If",
	KindElse:          "Else",
	KindFor:           "For",
	KindForeach:       "Foreach",
	KindWhile:         "While",
	KindDo:            "Do",
	KindDoWhile:       "DoWhile",
	KindSwitch:        "Switch",
	KindTry:           "Try",
	KindCatch:         "Catch",
	KindFinally:       "Finally",
	KindLock:          "Lock",
	KindUsingBlock:    "UsingBlock",
	KindUnsafe:        "Unsafe",
	KindFixed:         "Fixed",
	KindChecked:       "Checked",
	KindUnchecked:     "Unchecked",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsType reports whether k declares a type.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindStruct, KindEnum, KindRecord, KindDelegate:
		return true
	}
	return false
}

// IsContainer reports whether k opens a body of member declarations.
func (k Kind) IsContainer() bool {
	switch k {
	case KindNamespace, KindFileNamespace, KindClass, KindInterface, KindStruct, KindRecord:
		return true
	}
	return false
}

func (k Kind) IsMember() bool {
	switch k {
	case KindEvent, KindConst, KindOperator, KindConversion, KindConstructor, KindDestructor,
		KindIndexer, KindProperty, KindField, KindMethod, KindEnumValue:
		return true
	}
	return false
}

func (k Kind) IsAccessor() bool {
	switch k {
	case KindGet, KindSet, KindInit, KindAdd, KindRemove:
		return true
	}
	return false
}

// HasAccessors reports whether the body of k holds accessor declarations.
func (k Kind) HasAccessors() bool {
	return k == KindProperty || k == KindIndexer || k == KindEvent
}

func (k Kind) IsComment() bool {
	return k == KindLineComment || k == KindBlockComment || k == KindDocComment
}

// IsTrivia reports whether k is emitted inline without affecting nesting.
func (k Kind) IsTrivia() bool {
	return k.IsComment() || k == KindDirective
}

func (k Kind) IsStatement() bool {
	return k >= KindIf && k <= KindUnchecked
}

// IsBlockLevel reports whether the body of k holds statements rather than
// declarations.
func (k Kind) IsBlockLevel() bool {
	switch k {
	case KindMethod, KindConstructor, KindDestructor, KindOperator, KindConversion:
		return true
	}
	return k.IsAccessor() || k.IsStatement()
}

var statementKeywords = map[string]Kind{
	"if":        KindIf,
	"else":      KindElse,
	"for":       KindFor,
	"foreach":   KindForeach,
	"while":     KindWhile,
	"do":        KindDo,
	"switch":    KindSwitch,
	"try":       KindTry,
	"catch":     KindCatch,
	"finally":   KindFinally,
	"lock":      KindLock,
	"using":     KindUsingBlock,
	"unsafe":    KindUnsafe,
	"fixed":     KindFixed,
	"checked":   KindChecked,
	"unchecked": KindUnchecked,
}

// LookupStatement returns the statement kind introduced by keyword, or KindCode.
func LookupStatement(keyword string) Kind {
	if kind, ok := statementKeywords[keyword]; ok {
		return kind
	}
	return KindCode
}
