package topology

import (
	"errors"

	pkgErrors "github.com/ersushantsood/storm/pkg/errors"
)

var (
	ErrDuplicateComponent = errors.New(`duplicate component`)
	ErrUnknownComponent   = errors.New(`unknown component`)
	ErrUnknownStream      = errors.New(`unknown stream`)
	ErrInvalidGrouping    = errors.New(`invalid grouping`)
	ErrDuplicateStream    = errors.New(`duplicate stream`)
	ErrDuplicateInput     = errors.New(`duplicate input`)
)

// Validate checks that every processor input names a declared component and
// stream, that fields groupings only use declared output fields and that
// direct groupings only subscribe to direct streams.
func (t *Topology) Validate() error {
	for _, id := range t.Processors() {
		p := t.components[id].(*Processor)
		for _, input := range sortedInputs(p.Inputs) {
			if err := t.validateInput(id, input, p.Inputs[input]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *Topology) validateInput(consumer ComponentID, input GlobalStreamID, grouping Grouping) error {
	producer, ok := t.components[input.ComponentID]
	if !ok {
		return pkgErrors.Wrapf(ErrUnknownComponent, `processor %d subscribes to undeclared component %d`,
			consumer, input.ComponentID)
	}

	stream, ok := producer.Common().Streams[input.StreamID]
	if !ok {
		return pkgErrors.Wrapf(ErrUnknownStream, `processor %d subscribes to undeclared stream %s`,
			consumer, input)
	}

	switch grouping.Type {
	case GroupingFields:
		if len(grouping.Fields) == 0 {
			return pkgErrors.Wrapf(ErrInvalidGrouping, `processor %d uses a fields grouping without fields on %s`,
				consumer, input)
		}
		for _, f := range grouping.Fields {
			if !stream.OutputFields.Contains(f) {
				return pkgErrors.Wrapf(ErrInvalidGrouping, `processor %d groups %s by undeclared field [%s], declared %s`,
					consumer, input, f, stream.OutputFields)
			}
		}
	case GroupingDirect:
		if !stream.Direct {
			return pkgErrors.Wrapf(ErrInvalidGrouping, `processor %d uses a direct grouping on non direct stream %s`,
				consumer, input)
		}
	default:
		if _, ok := groupingNames[grouping.Type]; !ok {
			return pkgErrors.Wrapf(ErrInvalidGrouping, `processor %d uses %s on %s`, consumer, grouping.Type, input)
		}
	}

	return nil
}
