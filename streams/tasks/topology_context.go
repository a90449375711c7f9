package tasks

import (
	"fmt"
	"sort"

	"github.com/ersushantsood/storm/pkg/errors"
	"github.com/ersushantsood/storm/streams/topology"
)

// Targets maps an output stream to the consuming components and the grouping
// each of them subscribed with.
type Targets map[topology.StreamID]map[topology.ComponentID]topology.Grouping

// Sources maps a subscribed stream to the grouping used for it.
type Sources map[topology.GlobalStreamID]topology.Grouping

// TopologyContext is handed to a component's tasks when they are prepared. It
// answers where the task sits in the topology: its component, the streams it
// reads and writes, who consumes them and which of the component's tasks it is.
//
// A TopologyContext never changes after NewTopologyContext returns and is safe
// for concurrent use. Every collection it returns is a copy.
type TopologyContext struct {
	topology        *topology.Topology
	taskToComponent Assignment
	componentTasks  map[topology.ComponentID][]TaskID
	targets         map[topology.ComponentID]Targets
	taskID          TaskID
	topologyID      string
	resourceDir     string
	pidDir          string
}

// NewTopologyContext builds the context of task taskID. The assignment is
// copied and is not checked against the topology, inconsistencies are reported
// by the lookups that run into them.
func NewTopologyContext(
	tp *topology.Topology,
	taskToComponent Assignment,
	topologyID string,
	resourceDir string,
	pidDir string,
	taskID TaskID,
) (*TopologyContext, error) {
	if tp == nil {
		return nil, errors.New(`topology cannot be nil`)
	}

	if taskToComponent == nil {
		return nil, errors.New(`task assignment cannot be nil`)
	}

	assignment := taskToComponent.Clone()

	return &TopologyContext{
		topology:        tp,
		taskToComponent: assignment,
		componentTasks:  assignment.ComponentTasks(),
		targets:         invertInputs(tp),
		taskID:          taskID,
		topologyID:      topologyID,
		resourceDir:     resourceDir,
		pidDir:          pidDir,
	}, nil
}

// invertInputs walks every processor input once and files it under the
// producing component and stream.
func invertInputs(tp *topology.Topology) map[topology.ComponentID]Targets {
	targets := map[topology.ComponentID]Targets{}
	for _, consumer := range tp.Processors() {
		c, _ := tp.Component(consumer)
		for input, grouping := range c.(*topology.Processor).Inputs {
			producerTargets, ok := targets[input.ComponentID]
			if !ok {
				producerTargets = Targets{}
				targets[input.ComponentID] = producerTargets
			}

			consumers, ok := producerTargets[input.StreamID]
			if !ok {
				consumers = map[topology.ComponentID]topology.Grouping{}
				producerTargets[input.StreamID] = consumers
			}

			consumers[consumer] = grouping.Clone()
		}
	}

	return targets
}

// ComponentType classifies a component.
func (c *TopologyContext) ComponentType(id topology.ComponentID) (topology.Kind, error) {
	comp, ok := c.topology.Component(id)
	if !ok {
		return 0, invalidComponent(id)
	}

	return comp.Kind(), nil
}

func (c *TopologyContext) IsProducer(id topology.ComponentID) (bool, error) {
	return c.isKind(id, topology.KindProducer)
}

func (c *TopologyContext) IsProcessor(id topology.ComponentID) (bool, error) {
	return c.isKind(id, topology.KindProcessor)
}

func (c *TopologyContext) IsStateProducer(id topology.ComponentID) (bool, error) {
	return c.isKind(id, topology.KindStateProducer)
}

func (c *TopologyContext) IsThisProducer() (bool, error) {
	return c.isThisKind(topology.KindProducer)
}

func (c *TopologyContext) IsThisProcessor() (bool, error) {
	return c.isThisKind(topology.KindProcessor)
}

func (c *TopologyContext) IsThisStateProducer() (bool, error) {
	return c.isThisKind(topology.KindStateProducer)
}

func (c *TopologyContext) isKind(id topology.ComponentID, kind topology.Kind) (bool, error) {
	k, err := c.ComponentType(id)
	if err != nil {
		return false, err
	}

	return k == kind, nil
}

func (c *TopologyContext) isThisKind(kind topology.Kind) (bool, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return false, err
	}

	return c.isKind(id, kind)
}

// TopologyID is the id of the running topology instance.
func (c *TopologyContext) TopologyID() string {
	return c.topologyID
}

func (c *TopologyContext) ThisTaskID() TaskID {
	return c.taskID
}

// ThisComponentID returns the component this task executes. ErrBrokenAssignment
// means the assignment does not know this task.
func (c *TopologyContext) ThisComponentID() (topology.ComponentID, error) {
	id, ok := c.taskToComponent[c.taskID]
	if !ok {
		return 0, brokenAssignment(fmt.Sprintf(`task %d is not part of the task assignment`, c.taskID))
	}

	return id, nil
}

// ComponentID returns the component executed by any task of the topology.
func (c *TopologyContext) ComponentID(task TaskID) (topology.ComponentID, bool) {
	id, ok := c.taskToComponent[task]
	return id, ok
}

// RawTopology gives access to the full definition. Components read from it are
// copies.
func (c *TopologyContext) RawTopology() *topology.Topology {
	return c.topology
}

// TaskToComponent returns a copy of the task assignment.
func (c *TopologyContext) TaskToComponent() Assignment {
	return c.taskToComponent.Clone()
}

// ComponentTasks returns the tasks of a component in ascending order, or an
// empty list when it has none.
func (c *TopologyContext) ComponentTasks(id topology.ComponentID) []TaskID {
	tasks := c.componentTasks[id]
	cp := make([]TaskID, len(tasks))
	copy(cp, tasks)

	return cp
}

// ThisTaskIndex returns the position of this task in
// ComponentTasks(ThisComponentID()). Tasks of a component use it to split
// external resources evenly among themselves.
func (c *TopologyContext) ThisTaskIndex() (int, error) {
	component, err := c.ThisComponentID()
	if err != nil {
		return 0, err
	}

	tasks := c.componentTasks[component]
	i := sort.Search(len(tasks), func(i int) bool { return tasks[i] >= c.taskID })
	if i < len(tasks) && tasks[i] == c.taskID {
		return i, nil
	}

	return 0, brokenAssignment(fmt.Sprintf(`task %d not found in the tasks %v of component %d`,
		c.taskID, tasks, component))
}

// ComponentStreams returns the declared stream ids of a component in ascending order.
func (c *TopologyContext) ComponentStreams(id topology.ComponentID) ([]topology.StreamID, error) {
	comp, ok := c.topology.Component(id)
	if !ok {
		return nil, invalidComponent(id)
	}

	streams := make([]topology.StreamID, 0, len(comp.Common().Streams))
	for stream := range comp.Common().Streams {
		streams = append(streams, stream)
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i] < streams[j] })

	return streams, nil
}

func (c *TopologyContext) ThisStreams() ([]topology.StreamID, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return nil, err
	}

	return c.ComponentStreams(id)
}

// ComponentOutputFields returns the fields declared for a stream of a component.
func (c *TopologyContext) ComponentOutputFields(id topology.ComponentID, stream topology.StreamID) (topology.Fields, error) {
	comp, ok := c.topology.Component(id)
	if !ok {
		return nil, &MissingStreamError{Component: id, Stream: stream, cause: invalidComponent(id)}
	}

	info, ok := comp.Common().Streams[stream]
	if !ok {
		return nil, &MissingStreamError{Component: id, Stream: stream}
	}

	return info.OutputFields.Clone(), nil
}

func (c *TopologyContext) ThisOutputFields(stream topology.StreamID) (topology.Fields, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return nil, err
	}

	return c.ComponentOutputFields(id, stream)
}

// Sources returns the inputs a processor subscribed to. Producers and state
// producers have no inputs and yield nil.
func (c *TopologyContext) Sources(id topology.ComponentID) (Sources, error) {
	comp, ok := c.topology.Component(id)
	if !ok {
		return nil, invalidComponent(id)
	}

	p, ok := comp.(*topology.Processor)
	if !ok {
		return nil, nil
	}

	sources := make(Sources, len(p.Inputs))
	for input, grouping := range p.Inputs {
		sources[input] = grouping.Clone()
	}

	return sources, nil
}

func (c *TopologyContext) ThisSources() (Sources, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return nil, err
	}

	return c.Sources(id)
}

// SourceComponents returns the distinct components id reads from, ascending.
func (c *TopologyContext) SourceComponents(id topology.ComponentID) ([]topology.ComponentID, error) {
	sources, err := c.Sources(id)
	if err != nil {
		return nil, err
	}

	seen := map[topology.ComponentID]struct{}{}
	components := make([]topology.ComponentID, 0, len(sources))
	for input := range sources {
		if _, ok := seen[input.ComponentID]; ok {
			continue
		}
		seen[input.ComponentID] = struct{}{}
		components = append(components, input.ComponentID)
	}
	sort.Slice(components, func(i, j int) bool { return components[i] < components[j] })

	return components, nil
}

func (c *TopologyContext) ThisSourceComponents() ([]topology.ComponentID, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return nil, err
	}

	return c.SourceComponents(id)
}

// Targets returns who consumes the streams of a component and how. A component
// nobody subscribes to yields an empty map.
func (c *TopologyContext) Targets(id topology.ComponentID) (Targets, error) {
	if _, ok := c.topology.Component(id); !ok {
		return nil, invalidComponent(id)
	}

	cached := c.targets[id]
	targets := make(Targets, len(cached))
	for stream, consumers := range cached {
		cp := make(map[topology.ComponentID]topology.Grouping, len(consumers))
		for consumer, grouping := range consumers {
			cp[consumer] = grouping.Clone()
		}
		targets[stream] = cp
	}

	return targets, nil
}

func (c *TopologyContext) ThisTargets() (Targets, error) {
	id, err := c.ThisComponentID()
	if err != nil {
		return nil, err
	}

	return c.Targets(id)
}

// ResourceDir is where the artifacts of components implemented outside of
// this process (scripts, binaries) are staged.
func (c *TopologyContext) ResourceDir() string {
	return c.resourceDir
}

// PIDDir is where every subprocess spawned by a task must write its pid right
// after it starts, so the supervisor can kill it on shutdown.
func (c *TopologyContext) PIDDir() string {
	return c.pidDir
}

// DebugInfo is the diagnostic view of a TopologyContext.
type DebugInfo struct {
	TaskID          TaskID                          `json:"taskid"`
	TaskToComponent map[TaskID]topology.ComponentID `json:"task->component"`
}

func (c *TopologyContext) Debug() DebugInfo {
	return DebugInfo{
		TaskID:          c.taskID,
		TaskToComponent: c.taskToComponent.Clone(),
	}
}

func (c *TopologyContext) String() string {
	return fmt.Sprintf(`TopologyContext{topology: %s, task: %d, tasks: %d}`,
		c.topologyID, c.taskID, len(c.taskToComponent))
}
