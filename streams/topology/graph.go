package topology

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
	"github.com/ersushantsood/storm/pkg/errors"
)

type Visualizer interface {
	AddTopology(topology *Topology)
	Visualize() (string, error)
}

type graphViz struct {
	topology *Topology
	graph    *gographviz.Graph
}

func NewTopologyVisualizer() Visualizer {
	parent := `root`
	g := gographviz.NewGraph()
	if err := g.SetName(parent); err != nil {
		panic(err)
	}
	if err := g.SetDir(true); err != nil {
		panic(err)
	}

	if err := g.AddAttr(parent, `splines`, `true`); err != nil {
		panic(err)
	}

	if err := g.AddAttr(parent, `rankdir`, `LR`); err != nil {
		panic(err)
	}

	return &graphViz{
		graph: g,
	}
}

func (g *graphViz) AddTopology(topology *Topology) {
	g.topology = topology
}

func (g *graphViz) Visualize() (string, error) {
	if g.topology == nil {
		return ``, errors.New(`no topology to visualize`)
	}

	for _, id := range g.topology.ComponentIDs() {
		c, _ := g.topology.Component(id)
		attrs := map[string]string{}
		g.applyAttributes(id, c, attrs)
		if err := g.graph.AddNode(`root`, nodeId(id), attrs); err != nil {
			return ``, err
		}
	}

	for _, id := range g.topology.Processors() {
		c, _ := g.topology.Component(id)
		p := c.(*Processor)
		for _, input := range sortedInputs(p.Inputs) {
			if err := g.addEdge(id, input, p.Inputs[input]); err != nil {
				return ``, err
			}
		}
	}

	graph, err := g.graph.WriteAst()
	if err != nil {
		return ``, errors.Wrap(err, `graph failed`)
	}

	return graph.String(), nil
}

func (g *graphViz) addEdge(consumer ComponentID, input GlobalStreamID, grouping Grouping) error {
	parent := nodeId(input.ComponentID)
	node := nodeId(consumer)
	if !g.graph.IsNode(parent) {
		return errors.Errorf("Invalid parent, Processor %d -> (%s)\nPlease refer the graph\n%s",
			consumer, input, g.graph.String())
	}

	attrs := map[string]string{
		`label`:    fmt.Sprintf(`"%d: %s"`, input.StreamID, grouping),
		`fontsize`: `9`,
	}
	if grouping.Type == GroupingDirect {
		attrs[`style`] = `dashed`
	}

	return g.graph.AddEdge(parent, node, true, attrs)
}

func nodeId(id ComponentID) string {
	return fmt.Sprintf(`"c_%d"`, id)
}

func (g *graphViz) nodeLabel(id ComponentID, c Component, shortName string) string {
	if name := c.Common().Name; name != `` {
		return fmt.Sprintf(`"%d.%s\n%s (x%d)"`, id, shortName, name, c.Common().ParallelismHint)
	}

	return fmt.Sprintf(`"%d.%s (x%d)"`, id, shortName, c.Common().ParallelismHint)
}

func (g *graphViz) applyAttributes(id ComponentID, c Component, attrs map[string]string) {
	attrs[`fontsize`] = `10`
	attrs[`style`] = `filled`

	switch c.Kind() {
	case KindProducer:
		attrs[`label`] = g.nodeLabel(id, c, `Producer`)
		attrs[`fillcolor`] = `deepskyblue1`
	case KindStateProducer:
		attrs[`label`] = g.nodeLabel(id, c, `StateProducer`)
		attrs[`fillcolor`] = `darkseagreen1`
		attrs[`shape`] = `cylinder`
	default:
		attrs[`label`] = g.nodeLabel(id, c, `Processor`)
		attrs[`fillcolor`] = `slateblue4`
		attrs[`fontcolor`] = `grey100`
		attrs[`shape`] = `rectangle`
		attrs[`style`] = `"rounded,filled"`
	}
}
