// Package grammar recognizes the statements the preprocessor acts on:
// compiler directive lines, COPY statements and REPLACE statements.
// Recognized statements are returned as a Tree of named sub-matches.
package grammar

import (
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Tree is a named sub-match of a recognized statement.
type Tree struct {
	Name     string
	Text     string
	Tokens   []types.Token
	Children []*Tree
}

func (t *Tree) add(child *Tree) *Tree {
	t.Children = append(t.Children, child)
	return child
}

// Find returns the first node reached by following a slash-separated path of
// child names, e.g. "replacing/instruction/pattern".
func (t *Tree) Find(path string) *Tree {
	all := t.FindAll(path)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FindAll returns every node reached by the slash-separated path, in order.
func (t *Tree) FindAll(path string) []*Tree {
	if t == nil {
		return nil
	}
	level := []*Tree{t}
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		var next []*Tree
		for _, node := range level {
			for _, c := range node.Children {
				if c.Name == name {
					next = append(next, c)
				}
			}
		}
		level = next
	}
	return level
}

// Has reports whether the path exists.
func (t *Tree) Has(path string) bool {
	return t.Find(path) != nil
}

// Value returns the text at path, or "" when it is absent.
func (t *Tree) Value(path string) string {
	if n := t.Find(path); n != nil {
		return n.Text
	}
	return ""
}

// String renders the tree in a compact s-expression form.
func (t *Tree) String() string {
	if t == nil {
		return "()"
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder) {
	sb.WriteString("(")
	sb.WriteString(t.Name)
	if t.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(t.Text)
	}
	for _, c := range t.Children {
		sb.WriteString(" ")
		c.write(sb)
	}
	sb.WriteString(")")
}
