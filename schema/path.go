package schema

import (
	"fmt"
	"strings"
)

// Element addresses one step from a parent value to a child: an object field
// by name or a list element by index.
type Element struct {
	Key   string `json:"key,omitempty" msgpack:"key,omitempty"`
	Index int    `json:"index" msgpack:"index"`
}

// IsIndex reports whether the element addresses a list position.
func (e Element) IsIndex() bool { return e.Key == "" }

// Field returns an element addressing an object field.
func Field(name string) Element { return Element{Key: name, Index: -1} }

// Index returns an element addressing a list position.
func Index(i int) Element { return Element{Index: i} }

// Path is the ordered list of elements from the root of the output value to
// one addressable position. The empty path addresses the root itself.
type Path []Element

// Child returns a new path extended by one element. The receiver is not
// modified.
func (p Path) Child(e Element) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = e
	return child
}

// Equal reports whether two paths address the same position.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path in dotted form, e.g. "fees[2].name". The root path
// renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, e := range p {
		if e.IsIndex() {
			fmt.Fprintf(&b, "[%d]", e.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Key)
	}
	return b.String()
}
