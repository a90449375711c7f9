package topology

import (
	"fmt"
	"strings"
)

// GlobalStreamID identifies a stream across the whole topology.
type GlobalStreamID struct {
	ComponentID ComponentID
	StreamID    StreamID
}

func (id GlobalStreamID) String() string {
	return fmt.Sprintf(`%d:%d`, id.ComponentID, id.StreamID)
}

// Less orders stream ids by component, then stream.
func (id GlobalStreamID) Less(other GlobalStreamID) bool {
	if id.ComponentID != other.ComponentID {
		return id.ComponentID < other.ComponentID
	}

	return id.StreamID < other.StreamID
}

type GroupingType int8

const (
	GroupingShuffle GroupingType = iota
	GroupingFields
	GroupingAll
	GroupingDirect
	GroupingNone
	GroupingGlobal
)

var groupingNames = map[GroupingType]string{
	GroupingShuffle: `shuffle`,
	GroupingFields:  `fields`,
	GroupingAll:     `all`,
	GroupingDirect:  `direct`,
	GroupingNone:    `none`,
	GroupingGlobal:  `global`,
}

func (g GroupingType) String() string {
	if name, ok := groupingNames[g]; ok {
		return name
	}

	return fmt.Sprintf(`grouping(%d)`, int8(g))
}

// ParseGroupingType is the inverse of GroupingType.String.
func ParseGroupingType(name string) (GroupingType, bool) {
	for typ, n := range groupingNames {
		if strings.EqualFold(n, name) {
			return typ, true
		}
	}

	return 0, false
}

// Grouping tells how tuples of a stream are spread over the consuming
// component's tasks. Fields is only set for GroupingFields.
type Grouping struct {
	Type   GroupingType
	Fields Fields
}

func ShuffleGrouping() Grouping { return Grouping{Type: GroupingShuffle} }

func FieldsGrouping(fields ...string) Grouping {
	return Grouping{Type: GroupingFields, Fields: NewFields(fields...)}
}

func AllGrouping() Grouping    { return Grouping{Type: GroupingAll} }
func DirectGrouping() Grouping { return Grouping{Type: GroupingDirect} }
func NoneGrouping() Grouping   { return Grouping{Type: GroupingNone} }
func GlobalGrouping() Grouping { return Grouping{Type: GroupingGlobal} }

// Equal reports whether both groupings have the same type and fields.
func (g Grouping) Equal(other Grouping) bool {
	if g.Type != other.Type || len(g.Fields) != len(other.Fields) {
		return false
	}

	for i := range g.Fields {
		if g.Fields[i] != other.Fields[i] {
			return false
		}
	}

	return true
}

func (g Grouping) String() string {
	if g.Type == GroupingFields {
		return fmt.Sprintf(`%s%s`, g.Type, g.Fields)
	}

	return g.Type.String()
}

// Clone returns a copy whose Fields share no memory with g.
func (g Grouping) Clone() Grouping {
	return Grouping{Type: g.Type, Fields: g.Fields.Clone()}
}
