package csharp

import (
	"strings"

	"github.com/dhamidi/csmark/csharp/parser"
)

// AtomicGenerationInfo binds a subset of a tree's markers to the lines and
// preamble range of the parse that produced them. Renderers that write
// selected markers into new files read it; nothing writes back through it.
type AtomicGenerationInfo struct {
	Generation    uint64
	Tree          *parser.Tree
	Markers       []parser.MarkerID
	Lines         []string
	PreambleStart int
	PreambleEnd   int

	text string
}

func newGenerationInfo(gen uint64, tree *parser.Tree, text string, lines []string) *AtomicGenerationInfo {
	return &AtomicGenerationInfo{
		Generation:    gen,
		Tree:          tree,
		Markers:       tree.Roots,
		Lines:         lines,
		PreambleStart: tree.PreambleStart,
		PreambleEnd:   tree.PreambleEnd,
		text:          text,
	}
}

// Subset returns a copy restricted to ids. Ids not in the tree are dropped.
func (g *AtomicGenerationInfo) Subset(ids ...parser.MarkerID) *AtomicGenerationInfo {
	out := *g
	out.Markers = make([]parser.MarkerID, 0, len(ids))
	for _, id := range ids {
		if g.Tree.Get(id) != nil {
			out.Markers = append(out.Markers, id)
		}
	}
	return &out
}

// Preamble returns the text of the preamble range.
func (g *AtomicGenerationInfo) Preamble() string {
	if g.PreambleEnd <= g.PreambleStart || g.PreambleEnd > len(g.text) {
		return ""
	}
	return g.text[g.PreambleStart:g.PreambleEnd]
}

// MarkerText returns the source a marker spans.
func (g *AtomicGenerationInfo) MarkerText(id parser.MarkerID) string {
	m := g.Tree.Get(id)
	if m == nil {
		return ""
	}
	return sliceText(g.text, m)
}

// Render concatenates the preamble and the text of every selected marker,
// each on its own line.
func (g *AtomicGenerationInfo) Render() string {
	var b strings.Builder
	b.WriteString(g.Preamble())
	for _, id := range g.Markers {
		text := g.MarkerText(id)
		if text == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}
