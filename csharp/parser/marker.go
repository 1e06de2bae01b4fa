package parser

import "strings"

// MarkerID indexes Tree.Markers.
type MarkerID int32

const NoMarker MarkerID = -1

// NativeImport is derived from a DllImport or LibraryImport attribute on an
// extern method.
type NativeImport struct {
	Library    string
	EntryPoint string
}

// Marker is one classified span of source.
type Marker struct {
	Kind              Kind
	Name              string
	Generics          string
	DataType          string
	Params            []string
	ParamText         string
	Inherits          []string
	InheritText       string
	Where             string
	Attributes        []string
	Value             string
	ExplicitInterface string
	Modifiers         Modifiers
	Import            *NativeImport

	// Offsets are 0-based and inclusive; lines and columns are 1-based.
	StartPos    int
	EndPos      int
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int

	Parent     MarkerID
	Children   []MarkerID
	ParentPath string
	Unresolved []string
}

// FullName joins the parent path and the marker name with a dot.
func (m *Marker) FullName() string {
	if m.ParentPath == "" {
		return m.Name
	}
	if m.Name == "" {
		return m.ParentPath
	}
	return m.ParentPath + "." + m.Name
}

// Len returns the number of bytes the marker spans.
func (m *Marker) Len() int {
	return m.EndPos - m.StartPos + 1
}

// Contains reports whether offset lies within the marker.
func (m *Marker) Contains(offset int) bool {
	return offset >= m.StartPos && offset <= m.EndPos
}

// Tree is an arena of markers produced by one scan.
type Tree struct {
	File       string
	Markers    []Marker
	Roots      []MarkerID
	Unresolved []string

	// PreambleStart and PreambleEnd bound the text before the first namespace
	// declaration as a half-open range.
	PreambleStart int
	PreambleEnd   int
}

// Get returns the marker for id, or nil when id is out of range.
func (t *Tree) Get(id MarkerID) *Marker {
	if id < 0 || int(id) >= len(t.Markers) {
		return nil
	}
	return &t.Markers[id]
}

// Children returns the child ids of id, or the roots for NoMarker.
func (t *Tree) Children(id MarkerID) []MarkerID {
	if id == NoMarker {
		return t.Roots
	}
	if m := t.Get(id); m != nil {
		return m.Children
	}
	return nil
}

// Len returns the number of markers in the tree.
func (t *Tree) Len() int {
	return len(t.Markers)
}

// Walk visits every marker depth-first in document order. Returning false
// from fn skips the marker's children.
func (t *Tree) Walk(fn func(id MarkerID, m *Marker, depth int) bool) {
	var walk func(ids []MarkerID, depth int)
	walk = func(ids []MarkerID, depth int) {
		for _, id := range ids {
			m := &t.Markers[id]
			if fn(id, m, depth) {
				walk(m.Children, depth+1)
			}
		}
	}
	walk(t.Roots, 0)
}

// Find returns the first marker whose full name equals fullName.
func (t *Tree) Find(fullName string) (MarkerID, *Marker) {
	found := NoMarker
	t.Walk(func(id MarkerID, m *Marker, _ int) bool {
		if found != NoMarker {
			return false
		}
		if m.Name != "" && m.FullName() == fullName {
			found = id
			return false
		}
		return true
	})
	return found, t.Get(found)
}

// OfKind returns every marker of the given kinds in document order.
func (t *Tree) OfKind(kinds ...Kind) []MarkerID {
	var out []MarkerID
	t.Walk(func(id MarkerID, m *Marker, _ int) bool {
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, id)
				break
			}
		}
		return true
	})
	return out
}

// Namespace returns the dotted namespace enclosing id.
func (t *Tree) Namespace(id MarkerID) string {
	var parts []string
	for m := t.Get(id); m != nil; m = t.Get(m.Parent) {
		if m.Kind == KindNamespace || m.Kind == KindFileNamespace {
			parts = append([]string{m.Name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}
