package topology

import (
	"fmt"

	"github.com/ersushantsood/storm/pkg/errors"
)

// New assembles a topology from already built components. The components are
// copied, later changes to them are not visible through the topology. New does
// not validate cross references, use Validate for that.
func New(name string, components map[ComponentID]Component) (*Topology, error) {
	t := &Topology{
		name:       name,
		components: make(map[ComponentID]Component, len(components)),
	}

	for id, c := range components {
		if c == nil {
			return nil, errors.Errorf(`component %d is nil`, id)
		}
		t.components[id] = cloneComponent(c)
	}

	return t, nil
}

// Builder collects component declarations and produces a validated Topology.
//
//	b := NewBuilder(`word-count`)
//	b.SetProducer(1, `sentences`, 2).DeclareStream(DefaultStreamID, `sentence`)
//	b.SetProcessor(2, `split`, 4).ShuffleGrouping(1).DeclareStream(DefaultStreamID, `word`)
//	b.SetProcessor(3, `count`, 4).FieldsGrouping(2, `word`)
//	tp, err := b.Build()
type Builder struct {
	name       string
	components map[ComponentID]Component
	errs       []error
}

func NewBuilder(name string) *Builder {
	return &Builder{
		name:       name,
		components: map[ComponentID]Component{},
	}
}

func (b *Builder) SetProducer(id ComponentID, name string, parallelism int) *ProducerDeclarer {
	p := &Producer{ComponentCommon: newCommon(name, parallelism)}
	b.add(id, p)

	return &ProducerDeclarer{streamDeclarer{common: &p.ComponentCommon}}
}

func (b *Builder) SetStateProducer(id ComponentID, name string, parallelism int) *ProducerDeclarer {
	s := &StateProducer{ComponentCommon: newCommon(name, parallelism)}
	b.add(id, s)

	return &ProducerDeclarer{streamDeclarer{common: &s.ComponentCommon}}
}

func (b *Builder) SetProcessor(id ComponentID, name string, parallelism int) *ProcessorDeclarer {
	p := &Processor{
		ComponentCommon: newCommon(name, parallelism),
		Inputs:          map[GlobalStreamID]Grouping{},
	}
	b.add(id, p)

	return &ProcessorDeclarer{
		streamDeclarer: streamDeclarer{common: &p.ComponentCommon},
		processor:      p,
	}
}

func (b *Builder) add(id ComponentID, c Component) {
	if existing, ok := b.components[id]; ok {
		b.errs = append(b.errs, errors.Wrapf(ErrDuplicateComponent,
			`component %d already declared as %s`, id, existing.Kind()))
		return
	}

	b.components[id] = c
}

// Build returns the first declaration or validation error, if any.
func (b *Builder) Build() (*Topology, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	t, err := New(b.name, b.components)
	if err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf(`topology [%s] build failed`, b.name))
	}

	return t, nil
}

func newCommon(name string, parallelism int) ComponentCommon {
	if parallelism < 1 {
		parallelism = 1
	}

	return ComponentCommon{
		Name:            name,
		Streams:         map[StreamID]StreamInfo{},
		ParallelismHint: parallelism,
	}
}

type streamDeclarer struct {
	common *ComponentCommon
}

func (d streamDeclarer) declare(id StreamID, direct bool, fields []string) {
	d.common.Streams[id] = StreamInfo{OutputFields: NewFields(fields...), Direct: direct}
}

type ProducerDeclarer struct {
	streamDeclarer
}

func (d *ProducerDeclarer) DeclareStream(id StreamID, fields ...string) *ProducerDeclarer {
	d.declare(id, false, fields)
	return d
}

func (d *ProducerDeclarer) DeclareDirectStream(id StreamID, fields ...string) *ProducerDeclarer {
	d.declare(id, true, fields)
	return d
}

type ProcessorDeclarer struct {
	streamDeclarer
	processor *Processor
}

func (d *ProcessorDeclarer) DeclareStream(id StreamID, fields ...string) *ProcessorDeclarer {
	d.declare(id, false, fields)
	return d
}

func (d *ProcessorDeclarer) DeclareDirectStream(id StreamID, fields ...string) *ProcessorDeclarer {
	d.declare(id, true, fields)
	return d
}

// Input subscribes the processor to any stream of another component.
func (d *ProcessorDeclarer) Input(stream GlobalStreamID, grouping Grouping) *ProcessorDeclarer {
	d.processor.Inputs[stream] = grouping
	return d
}

// The helpers below subscribe to the DefaultStreamID of component.

func (d *ProcessorDeclarer) ShuffleGrouping(component ComponentID) *ProcessorDeclarer {
	return d.Input(defaultStream(component), ShuffleGrouping())
}

func (d *ProcessorDeclarer) FieldsGrouping(component ComponentID, fields ...string) *ProcessorDeclarer {
	return d.Input(defaultStream(component), FieldsGrouping(fields...))
}

func (d *ProcessorDeclarer) AllGrouping(component ComponentID) *ProcessorDeclarer {
	return d.Input(defaultStream(component), AllGrouping())
}

func (d *ProcessorDeclarer) GlobalGrouping(component ComponentID) *ProcessorDeclarer {
	return d.Input(defaultStream(component), GlobalGrouping())
}

func (d *ProcessorDeclarer) DirectGrouping(component ComponentID) *ProcessorDeclarer {
	return d.Input(defaultStream(component), DirectGrouping())
}

func (d *ProcessorDeclarer) NoneGrouping(component ComponentID) *ProcessorDeclarer {
	return d.Input(defaultStream(component), NoneGrouping())
}

func defaultStream(component ComponentID) GlobalStreamID {
	return GlobalStreamID{ComponentID: component, StreamID: DefaultStreamID}
}

func cloneCommon(c *ComponentCommon) ComponentCommon {
	streams := make(map[StreamID]StreamInfo, len(c.Streams))
	for id, info := range c.Streams {
		streams[id] = StreamInfo{OutputFields: info.OutputFields.Clone(), Direct: info.Direct}
	}

	return ComponentCommon{
		Name:            c.Name,
		Streams:         streams,
		ParallelismHint: c.ParallelismHint,
	}
}

func cloneComponent(c Component) Component {
	switch comp := c.(type) {
	case *Producer:
		return &Producer{ComponentCommon: cloneCommon(&comp.ComponentCommon)}
	case *StateProducer:
		return &StateProducer{ComponentCommon: cloneCommon(&comp.ComponentCommon)}
	case *Processor:
		inputs := make(map[GlobalStreamID]Grouping, len(comp.Inputs))
		for id, g := range comp.Inputs {
			inputs[id] = g.Clone()
		}
		return &Processor{ComponentCommon: cloneCommon(&comp.ComponentCommon), Inputs: inputs}
	}

	panic(fmt.Sprintf(`unknown component type %T`, c))
}
