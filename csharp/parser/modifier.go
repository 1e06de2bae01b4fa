package parser

import "strings"

// Modifiers is a bit set of declaration modifiers. Visibility bits combine,
// so "protected internal" sets both ModProtected and ModInternal.
type Modifiers uint32

const (
	ModPrivate Modifiers = 1 << iota
	ModProtected
	ModInternal
	ModPublic
	ModGlobal
	ModFile
	ModStatic
	ModAbstract
	ModVirtual
	ModOverride
	ModNew
	ModReadonly
	ModSealed
	ModExtern
	ModAsync
	ModExplicit
	ModImplicit
	ModRef
	ModUnsafe
	ModPartial
	ModVolatile
	ModRequired
	ModExplicitInterface
)

const visibilityMask = ModPrivate | ModProtected | ModInternal | ModPublic | ModGlobal | ModFile

// modifierOrder lists keyword modifiers in the order they are rendered.
var modifierOrder = []struct {
	mod  Modifiers
	name string
}{
	{ModGlobal, "global"},
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModInternal, "internal"},
	{ModPrivate, "private"},
	{ModFile, "file"},
	{ModNew, "new"},
	{ModStatic, "static"},
	{ModAbstract, "abstract"},
	{ModVirtual, "virtual"},
	{ModOverride, "override"},
	{ModSealed, "sealed"},
	{ModReadonly, "readonly"},
	{ModVolatile, "volatile"},
	{ModRequired, "required"},
	{ModExtern, "extern"},
	{ModUnsafe, "unsafe"},
	{ModAsync, "async"},
	{ModRef, "ref"},
	{ModPartial, "partial"},
	{ModImplicit, "implicit"},
	{ModExplicit, "explicit"},
}

var modifierKeywords = func() map[string]Modifiers {
	m := make(map[string]Modifiers, len(modifierOrder))
	for _, entry := range modifierOrder {
		m[entry.name] = entry.mod
	}
	return m
}()

// LookupModifier returns the modifier bit for keyword, or 0.
func LookupModifier(keyword string) Modifiers {
	return modifierKeywords[keyword]
}

func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod == mod
}

func (m Modifiers) Visibility() Modifiers {
	return m & visibilityMask
}

// Keywords returns the modifier keywords in source order.
func (m Modifiers) Keywords() []string {
	var out []string
	for _, entry := range modifierOrder {
		if m&entry.mod != 0 {
			out = append(out, entry.name)
		}
	}
	return out
}

func (m Modifiers) String() string {
	s := strings.Join(m.Keywords(), " ")
	if m.Has(ModExplicitInterface) {
		if s != "" {
			s += " "
		}
		s += "(explicit-interface)"
	}
	return s
}
