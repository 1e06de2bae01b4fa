package parser

import (
	"sort"
	"strings"
)

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(s string) *lineIndex {
	starts := make([]int, 1, strings.Count(s, "\n")+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) position(offset int) (line, column int) {
	idx := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx + 1, offset - li.starts[idx] + 1
}

// SplitLines splits normalized text into its lines without terminators.
func SplitLines(s string) []string {
	return strings.Split(s, "\n")
}

// lineAt returns the text of the line containing offset.
func lineAt(s string, offset int) string {
	if offset > len(s) {
		offset = len(s)
	}
	start := strings.LastIndexByte(s[:offset], '\n') + 1
	end := strings.IndexByte(s[offset:], '\n')
	if end < 0 {
		return s[start:]
	}
	return s[start : offset+end]
}

// lastNonSpace returns the index of the last non-whitespace byte before end,
// or from when there is none.
func lastNonSpace(s string, from, end int) int {
	for i := end - 1; i >= from; i-- {
		if !isSpace(s[i]) {
			return i
		}
	}
	return from
}
