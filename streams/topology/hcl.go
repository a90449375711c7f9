package topology

import (
	"github.com/ersushantsood/storm/pkg/errors"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// A topology file looks like
//
//	name = "word-count"
//
//	producer "sentences" {
//	  id          = 1
//	  parallelism = 2
//	  stream {
//	    fields = ["sentence"]
//	  }
//	}
//
//	processor "split" {
//	  id = 2
//	  stream {
//	    fields = ["word"]
//	  }
//	  input {
//	    component = 1
//	    grouping  = "shuffle"
//	  }
//	}
//
// stream ids default to DefaultStreamID and groupings to shuffle.

type fileSchema struct {
	Name           string             `hcl:"name,optional"`
	Producers      []*componentSchema `hcl:"producer,block"`
	Processors     []*processorSchema `hcl:"processor,block"`
	StateProducers []*componentSchema `hcl:"state_producer,block"`
}

type componentSchema struct {
	Name        string          `hcl:"name,label"`
	ID          int             `hcl:"id"`
	Parallelism int             `hcl:"parallelism,optional"`
	Streams     []*streamSchema `hcl:"stream,block"`
}

type processorSchema struct {
	Name        string          `hcl:"name,label"`
	ID          int             `hcl:"id"`
	Parallelism int             `hcl:"parallelism,optional"`
	Streams     []*streamSchema `hcl:"stream,block"`
	Inputs      []*inputSchema  `hcl:"input,block"`
}

type streamSchema struct {
	ID     *int     `hcl:"id,optional"`
	Fields []string `hcl:"fields,optional"`
	Direct bool     `hcl:"direct,optional"`
}

type inputSchema struct {
	Component int      `hcl:"component"`
	Stream    *int     `hcl:"stream,optional"`
	Grouping  string   `hcl:"grouping,optional"`
	Fields    []string `hcl:"fields,optional"`
}

// DecodeFile parses and decodes a single HCL topology file.
func DecodeFile(path string) (*Topology, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Errorf(`failed to parse topology file %s: %s`, path, diags.Error())
	}

	return decodeBody(path, file.Body)
}

// Decode parses src as HCL, filename is only used in diagnostics.
func Decode(filename string, src []byte) (*Topology, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf(`failed to parse topology file %s: %s`, filename, diags.Error())
	}

	return decodeBody(filename, file.Body)
}

func decodeBody(filename string, body hcl.Body) (*Topology, error) {
	var schema fileSchema
	if diags := gohcl.DecodeBody(body, nil, &schema); diags.HasErrors() {
		return nil, errors.Errorf(`failed to decode topology file %s: %s`, filename, diags.Error())
	}

	builder := NewBuilder(schema.Name)
	for _, p := range schema.Producers {
		d := builder.SetProducer(ComponentID(p.ID), p.Name, p.Parallelism)
		if err := declareStreams(d.streamDeclarer, p.Streams); err != nil {
			return nil, errors.Wrapf(err, `producer [%s] in %s`, p.Name, filename)
		}
	}

	for _, s := range schema.StateProducers {
		d := builder.SetStateProducer(ComponentID(s.ID), s.Name, s.Parallelism)
		if err := declareStreams(d.streamDeclarer, s.Streams); err != nil {
			return nil, errors.Wrapf(err, `state producer [%s] in %s`, s.Name, filename)
		}
	}

	for _, p := range schema.Processors {
		d := builder.SetProcessor(ComponentID(p.ID), p.Name, p.Parallelism)
		if err := declareStreams(d.streamDeclarer, p.Streams); err != nil {
			return nil, errors.Wrapf(err, `processor [%s] in %s`, p.Name, filename)
		}

		for _, in := range p.Inputs {
			grouping, err := groupingOf(in)
			if err != nil {
				return nil, errors.Wrapf(err, `processor [%s] in %s`, p.Name, filename)
			}

			stream := GlobalStreamID{ComponentID: ComponentID(in.Component), StreamID: streamIDOf(in.Stream)}
			if _, ok := d.processor.Inputs[stream]; ok {
				return nil, errors.Wrapf(ErrDuplicateInput, `processor [%s] in %s subscribes to %s twice`,
					p.Name, filename, stream)
			}
			d.Input(stream, grouping)
		}
	}

	return builder.Build()
}

func declareStreams(d streamDeclarer, streams []*streamSchema) error {
	for _, s := range streams {
		id := streamIDOf(s.ID)
		if _, ok := d.common.Streams[id]; ok {
			return errors.Wrapf(ErrDuplicateStream, `stream %d declared twice`, id)
		}
		d.declare(id, s.Direct, s.Fields)
	}

	return nil
}

func streamIDOf(id *int) StreamID {
	if id == nil {
		return DefaultStreamID
	}

	return StreamID(*id)
}

func groupingOf(in *inputSchema) (Grouping, error) {
	typ := GroupingShuffle
	if in.Grouping != `` {
		var ok bool
		if typ, ok = ParseGroupingType(in.Grouping); !ok {
			return Grouping{}, errors.Wrapf(ErrInvalidGrouping, `unknown grouping [%s] on component %d`, in.Grouping, in.Component)
		}
	}

	if typ == GroupingFields {
		return FieldsGrouping(in.Fields...), nil
	}

	if len(in.Fields) > 0 {
		return Grouping{}, errors.Wrapf(ErrInvalidGrouping, `fields %v given to %s grouping on component %d`,
			in.Fields, typ, in.Component)
	}

	return Grouping{Type: typ}, nil
}
