package topology

import (
	"fmt"
	"strings"
)

// Fields is an ordered list of tuple field names.
type Fields []string

func NewFields(names ...string) Fields {
	if len(names) == 0 {
		return nil
	}

	f := make(Fields, len(names))
	copy(f, names)

	return f
}

// Index returns the position of name, or false if it is not declared.
func (f Fields) Index(name string) (int, bool) {
	for i, n := range f {
		if n == name {
			return i, true
		}
	}

	return -1, false
}

func (f Fields) Contains(name string) bool {
	_, ok := f.Index(name)
	return ok
}

// Clone returns a copy that shares no memory with f.
func (f Fields) Clone() Fields {
	return NewFields(f...)
}

func (f Fields) String() string {
	return fmt.Sprintf(`[%s]`, strings.Join(f, `, `))
}
