package topology

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func wordCount(t *testing.T) *Topology {
	b := NewBuilder(`word-count`)
	b.SetProducer(1, `sentences`, 2).DeclareStream(DefaultStreamID, `sentence`)
	b.SetStateProducer(4, `dictionary`, 1).DeclareStream(DefaultStreamID, `word`, `valid`)
	b.SetProcessor(2, `split`, 3).
		ShuffleGrouping(1).
		DeclareStream(DefaultStreamID, `word`)
	b.SetProcessor(3, `count`, 2).
		FieldsGrouping(2, `word`).
		AllGrouping(4).
		DeclareStream(DefaultStreamID, `word`, `count`)

	tp, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	return tp
}

func TestBuilder_Build(t *testing.T) {
	tp := wordCount(t)

	if tp.Name() != `word-count` {
		t.Errorf("Name() = %s", tp.Name())
	}

	if got := tp.ComponentIDs(); !reflect.DeepEqual(got, []ComponentID{1, 2, 3, 4}) {
		t.Errorf("ComponentIDs() got = %v", got)
	}

	if got := tp.Producers(); !reflect.DeepEqual(got, []ComponentID{1}) {
		t.Errorf("Producers() got = %v", got)
	}

	if got := tp.Processors(); !reflect.DeepEqual(got, []ComponentID{2, 3}) {
		t.Errorf("Processors() got = %v", got)
	}

	if got := tp.StateProducers(); !reflect.DeepEqual(got, []ComponentID{4}) {
		t.Errorf("StateProducers() got = %v", got)
	}

	c, ok := tp.Component(3)
	if !ok {
		t.Fatal("Component(3) not found")
	}

	want := map[GlobalStreamID]Grouping{
		{ComponentID: 2, StreamID: DefaultStreamID}: FieldsGrouping(`word`),
		{ComponentID: 4, StreamID: DefaultStreamID}: AllGrouping(),
	}
	if got := c.(*Processor).Inputs; !reflect.DeepEqual(got, want) {
		t.Errorf("Inputs got = %v, want %v", got, want)
	}
}

func TestBuilder_Build_Parallelism_Defaults_To_One(t *testing.T) {
	b := NewBuilder(`p`)
	b.SetProducer(1, `p`, 0)
	tp, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	c, _ := tp.Component(1)
	if c.Common().ParallelismHint != 1 {
		t.Errorf("ParallelismHint = %d, want 1", c.Common().ParallelismHint)
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
		want  error
	}{
		{
			name: `duplicate-across-kinds`,
			build: func(b *Builder) {
				b.SetProducer(1, `a`, 1)
				b.SetProcessor(1, `b`, 1)
			},
			want: ErrDuplicateComponent,
		},
		{
			name: `unknown-component`,
			build: func(b *Builder) {
				b.SetProcessor(2, `b`, 1).ShuffleGrouping(9)
			},
			want: ErrUnknownComponent,
		},
		{
			name: `unknown-stream`,
			build: func(b *Builder) {
				b.SetProducer(1, `a`, 1).DeclareStream(DefaultStreamID, `f`)
				b.SetProcessor(2, `b`, 1).Input(GlobalStreamID{ComponentID: 1, StreamID: 7}, ShuffleGrouping())
			},
			want: ErrUnknownStream,
		},
		{
			name: `undeclared-field`,
			build: func(b *Builder) {
				b.SetProducer(1, `a`, 1).DeclareStream(DefaultStreamID, `f`)
				b.SetProcessor(2, `b`, 1).FieldsGrouping(1, `g`)
			},
			want: ErrInvalidGrouping,
		},
		{
			name: `fields-grouping-without-fields`,
			build: func(b *Builder) {
				b.SetProducer(1, `a`, 1).DeclareStream(DefaultStreamID, `f`)
				b.SetProcessor(2, `b`, 1).FieldsGrouping(1)
			},
			want: ErrInvalidGrouping,
		},
		{
			name: `direct-on-regular-stream`,
			build: func(b *Builder) {
				b.SetProducer(1, `a`, 1).DeclareStream(DefaultStreamID, `f`)
				b.SetProcessor(2, `b`, 1).DirectGrouping(1)
			},
			want: ErrInvalidGrouping,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.name)
			tt.build(b)
			_, err := b.Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuilder_Build_Direct_Stream(t *testing.T) {
	b := NewBuilder(`direct`)
	b.SetProducer(1, `a`, 1).DeclareDirectStream(DefaultStreamID, `f`)
	b.SetProcessor(2, `b`, 1).DirectGrouping(1).NoneGrouping(3).GlobalGrouping(3)
	b.SetProducer(3, `c`, 1).DeclareStream(DefaultStreamID, `f`)
	if _, err := b.Build(); err != nil {
		t.Error(err)
	}
}

func TestNew_Copies_Components(t *testing.T) {
	p := &Processor{
		ComponentCommon: ComponentCommon{
			Streams: map[StreamID]StreamInfo{0: {OutputFields: NewFields(`a`)}},
		},
		Inputs: map[GlobalStreamID]Grouping{{ComponentID: 0, StreamID: 0}: FieldsGrouping(`a`)},
	}
	tp, err := New(`copy`, map[ComponentID]Component{0: &Producer{}, 1: p})
	if err != nil {
		t.Fatal(err)
	}

	p.Inputs[GlobalStreamID{ComponentID: 5, StreamID: 5}] = ShuffleGrouping()
	p.Streams[0].OutputFields[0] = `changed`

	c, _ := tp.Component(1)
	if len(c.(*Processor).Inputs) != 1 {
		t.Errorf("Inputs changed through the original component")
	}

	if c.Common().Streams[0].OutputFields[0] != `a` {
		t.Errorf("OutputFields changed through the original component")
	}
}

func TestTopology_Component_Returns_Copy(t *testing.T) {
	tp := wordCount(t)

	c, _ := tp.Component(3)
	c.(*Processor).Inputs[GlobalStreamID{ComponentID: 1, StreamID: 7}] = AllGrouping()
	c.Common().Streams[9] = StreamInfo{OutputFields: NewFields(`x`)}
	c.Common().Name = `changed`

	again, _ := tp.Component(3)
	if _, ok := again.(*Processor).Inputs[GlobalStreamID{ComponentID: 1, StreamID: 7}]; ok {
		t.Errorf("Inputs changed through a returned component")
	}

	if _, ok := again.Common().Streams[9]; ok || again.Common().Name == `changed` {
		t.Errorf("ComponentCommon changed through a returned component: %+v", again.Common())
	}

	if _, ok := tp.Component(404); ok {
		t.Errorf("Component(404) want not found")
	}
}

func TestNew_Nil_Component(t *testing.T) {
	if _, err := New(`nil`, map[ComponentID]Component{1: nil}); err == nil {
		t.Error("New() want error for nil component")
	}
}

func TestTopology_Describe(t *testing.T) {
	desc := wordCount(t).Describe()
	for _, want := range []string{
		`Topology: word-count`,
		`producer 1 (sentences) parallelism=2`,
		`processor 3 (count) parallelism=2`,
		`state_producer 4 (dictionary)`,
		`<- 2:1 fields[word]`,
		`<- 4:1 all`,
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("Describe() missing %q in\n%s", want, desc)
		}
	}
}

func TestNewInstanceID(t *testing.T) {
	a, b := NewInstanceID(`wc`), NewInstanceID(`wc`)
	if !strings.HasPrefix(a, `wc-`) {
		t.Errorf("NewInstanceID() = %s", a)
	}

	if a == b {
		t.Errorf("NewInstanceID() returned %s twice", a)
	}
}

func TestKind_String(t *testing.T) {
	if KindProcessor.String() != `processor` || Kind(9).String() != `kind(9)` {
		t.Fail()
	}
}

func TestFields(t *testing.T) {
	f := NewFields(`word`, `count`)
	if i, ok := f.Index(`count`); !ok || i != 1 {
		t.Errorf("Index() = %d, %v", i, ok)
	}

	if f.Contains(`missing`) {
		t.Fail()
	}

	if NewFields() != nil {
		t.Errorf("NewFields() want nil")
	}

	if f.String() != `[word, count]` {
		t.Errorf("String() = %s", f)
	}
}

func TestGrouping(t *testing.T) {
	typ, ok := ParseGroupingType(`Fields`)
	if !ok || typ != GroupingFields {
		t.Errorf("ParseGroupingType() = %v, %v", typ, ok)
	}

	if _, ok := ParseGroupingType(`random`); ok {
		t.Fail()
	}

	if !FieldsGrouping(`a`).Equal(FieldsGrouping(`a`)) || FieldsGrouping(`a`).Equal(FieldsGrouping(`b`)) {
		t.Errorf("Equal() mismatch")
	}

	if ShuffleGrouping().Equal(AllGrouping()) {
		t.Fail()
	}

	if got := FieldsGrouping(`a`, `b`).String(); got != `fields[a, b]` {
		t.Errorf("String() = %s", got)
	}
}

func TestGlobalStreamID_Less(t *testing.T) {
	a := GlobalStreamID{ComponentID: 1, StreamID: 5}
	b := GlobalStreamID{ComponentID: 2, StreamID: 0}
	c := GlobalStreamID{ComponentID: 2, StreamID: 1}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Fail()
	}
}
