// Package topology models the static definition of a stream processing
// topology: producers, processors and state producers, the streams they
// declare and the inputs processors subscribe to.
//
// A Topology is built once (Builder or Decode) and never modified afterwards.
// Components handed out by a Topology are copies.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type ComponentID int

type StreamID int

// DefaultStreamID is the stream a component emits to when it does not name one.
const DefaultStreamID StreamID = 1

type Kind int8

const (
	KindProducer Kind = iota
	KindProcessor
	KindStateProducer
)

func (k Kind) String() string {
	switch k {
	case KindProducer:
		return `producer`
	case KindProcessor:
		return `processor`
	case KindStateProducer:
		return `state_producer`
	default:
		return fmt.Sprintf(`kind(%d)`, int8(k))
	}
}

// StreamInfo describes one declared output stream.
type StreamInfo struct {
	OutputFields Fields
	// Direct streams are emitted with an explicit target task.
	Direct bool
}

// ComponentCommon holds what every component kind declares.
type ComponentCommon struct {
	// Name is a label used in descriptions and graphs only.
	Name            string
	Streams         map[StreamID]StreamInfo
	ParallelismHint int
}

// Component is one of *Producer, *Processor or *StateProducer.
type Component interface {
	Kind() Kind
	Common() *ComponentCommon
	component()
}

// Producer emits tuples and has no inputs.
type Producer struct {
	ComponentCommon
}

func (p *Producer) Kind() Kind               { return KindProducer }
func (p *Producer) Common() *ComponentCommon { return &p.ComponentCommon }
func (*Producer) component()                 {}

// Processor consumes the streams listed in Inputs.
type Processor struct {
	ComponentCommon
	Inputs map[GlobalStreamID]Grouping
}

func (p *Processor) Kind() Kind               { return KindProcessor }
func (p *Processor) Common() *ComponentCommon { return &p.ComponentCommon }
func (*Processor) component()                 {}

// StateProducer emits state synchronization streams and has no inputs.
type StateProducer struct {
	ComponentCommon
}

func (s *StateProducer) Kind() Kind               { return KindStateProducer }
func (s *StateProducer) Common() *ComponentCommon { return &s.ComponentCommon }
func (*StateProducer) component()                 {}

type Topology struct {
	name       string
	components map[ComponentID]Component
}

// Name returns the topology name given to the Builder (or the HCL file).
func (t *Topology) Name() string {
	return t.name
}

// Component looks up a component by id regardless of its kind. The returned
// component is a copy, changing it does not change the topology.
func (t *Topology) Component(id ComponentID) (Component, bool) {
	c, ok := t.components[id]
	if !ok {
		return nil, false
	}

	return cloneComponent(c), true
}

// ComponentIDs returns every component id in ascending order.
func (t *Topology) ComponentIDs() []ComponentID {
	return t.idsOf(func(Component) bool { return true })
}

func (t *Topology) Producers() []ComponentID {
	return t.idsOf(func(c Component) bool { return c.Kind() == KindProducer })
}

func (t *Topology) Processors() []ComponentID {
	return t.idsOf(func(c Component) bool { return c.Kind() == KindProcessor })
}

func (t *Topology) StateProducers() []ComponentID {
	return t.idsOf(func(c Component) bool { return c.Kind() == KindStateProducer })
}

func (t *Topology) idsOf(filter func(Component) bool) []ComponentID {
	ids := make([]ComponentID, 0, len(t.components))
	for id, c := range t.components {
		if filter(c) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Describe renders a human readable summary of the topology.
func (t *Topology) Describe() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "Topology: %s\n", t.name)
	for _, id := range t.ComponentIDs() {
		c := t.components[id]
		common := c.Common()
		fmt.Fprintf(b, "  %s %d", c.Kind(), id)
		if common.Name != `` {
			fmt.Fprintf(b, " (%s)", common.Name)
		}
		fmt.Fprintf(b, " parallelism=%d\n", common.ParallelismHint)

		for _, stream := range sortedStreams(common.Streams) {
			info := common.Streams[stream]
			fmt.Fprintf(b, "    stream %d %s", stream, info.OutputFields)
			if info.Direct {
				b.WriteString(` direct`)
			}
			b.WriteString("\n")
		}

		if p, ok := c.(*Processor); ok {
			for _, gsId := range sortedInputs(p.Inputs) {
				fmt.Fprintf(b, "    <- %s %s\n", gsId, p.Inputs[gsId])
			}
		}
	}

	return b.String()
}

// NewInstanceID returns the id of one running instance of the named topology.
func NewInstanceID(name string) string {
	return fmt.Sprintf(`%s-%s`, name, uuid.New().String())
}

func sortedStreams(streams map[StreamID]StreamInfo) []StreamID {
	ids := make([]StreamID, 0, len(streams))
	for id := range streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func sortedInputs(inputs map[GlobalStreamID]Grouping) []GlobalStreamID {
	ids := make([]GlobalStreamID, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	return ids
}
