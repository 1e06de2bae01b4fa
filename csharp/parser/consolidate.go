package parser

// Consolidate merges marker pairs that together form one construct. A Do
// marker followed by its trailing While condition becomes a single DoWhile
// marker spanning both; comments between the two move into the merged marker.
// The absorbed While stays in the arena but is no longer reachable.
func Consolidate(t *Tree) {
	t.Roots = consolidate(t, t.Roots)
}

func consolidate(t *Tree, ids []MarkerID) []MarkerID {
	for k := 0; k < len(ids); k++ {
		m := &t.Markers[ids[k]]
		m.Children = consolidate(t, m.Children)
		if m.Kind != KindDo {
			continue
		}
		next := k + 1
		for next < len(ids) && t.Markers[ids[next]].Kind.IsTrivia() {
			next++
		}
		if next >= len(ids) || t.Markers[ids[next]].Kind != KindWhile {
			continue
		}
		cond := &t.Markers[ids[next]]
		m.Kind = KindDoWhile
		m.Value = cond.Value
		m.EndPos = cond.EndPos
		m.EndLine = cond.EndLine
		m.EndColumn = cond.EndColumn
		for _, id := range ids[k+1 : next+1] {
			if id == ids[next] {
				continue
			}
			t.Markers[id].Parent = ids[k]
			m.Children = append(m.Children, id)
		}
		for _, id := range cond.Children {
			t.Markers[id].Parent = ids[k]
			m.Children = append(m.Children, id)
		}
		m.Children = consolidate(t, m.Children)
		m.Unresolved = mergeNames(m.Unresolved, cond.Unresolved)
		ids = append(ids[:k+1], ids[next+1:]...)
		k--
	}
	return ids
}

func mergeNames(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, name := range a {
		seen[name] = true
	}
	for _, name := range b {
		if !seen[name] {
			seen[name] = true
			a = append(a, name)
		}
	}
	return a
}
