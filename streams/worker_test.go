package streams

import (
	"errors"
	"sync"
	"testing"

	"github.com/ersushantsood/storm/streams/tasks"
	"github.com/ersushantsood/storm/streams/topology"
)

func wordCount(t *testing.T) *topology.Topology {
	b := topology.NewBuilder(`word-count`)
	b.SetProducer(1, `sentences`, 1).DeclareStream(topology.DefaultStreamID, `sentence`)
	b.SetProcessor(2, `split`, 2).ShuffleGrouping(1).DeclareStream(topology.DefaultStreamID, `word`)
	b.SetProcessor(3, `count`, 2).FieldsGrouping(2, `word`)
	tp, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	return tp
}

type recorder struct {
	mu       sync.Mutex
	prepared map[tasks.TaskID]int
	cleaned  map[tasks.TaskID]bool
	fail     map[tasks.TaskID]error
}

func newRecorder() *recorder {
	return &recorder{
		prepared: map[tasks.TaskID]int{},
		cleaned:  map[tasks.TaskID]bool{},
		fail:     map[tasks.TaskID]error{},
	}
}

func (r *recorder) Prepare(ctx *tasks.TopologyContext) error {
	idx, err := ctx.ThisTaskIndex()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared[ctx.ThisTaskID()] = idx

	return r.fail[ctx.ThisTaskID()]
}

func (r *recorder) Cleanup(ctx *tasks.TopologyContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleaned[ctx.ThisTaskID()] = true

	return nil
}

func testConfig() *Config {
	conf := NewConfig()
	conf.TopologyID = `word-count-test`
	return conf
}

func components(c Component) map[topology.ComponentID]Component {
	return map[topology.ComponentID]Component{1: c, 2: c, 3: c}
}

func TestWorker_Start_Stop(t *testing.T) {
	tp := wordCount(t)
	assignment := new(tasks.Assigner).Generate(tp)
	rec := newRecorder()

	w, err := NewWorker(testConfig(), tp, assignment, components(rec))
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(2, 3, 5); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// tasks: 1 -> 1, 2 3 -> 2, 4 5 -> 3
	want := map[tasks.TaskID]int{2: 0, 3: 1, 5: 1}
	rec.mu.Lock()
	for task, idx := range want {
		if got, ok := rec.prepared[task]; !ok || got != idx {
			t.Errorf("task %d prepared with index %d (%v), want %d", task, got, ok, idx)
		}
	}
	if len(rec.prepared) != len(want) {
		t.Errorf("%d tasks prepared, want %d", len(rec.prepared), len(want))
	}
	rec.mu.Unlock()

	if got := w.LocalTasks(); len(got) != 3 || got[0] != 2 || got[2] != 5 {
		t.Errorf("LocalTasks() got = %v", got)
	}

	ctx, ok := w.Context(5)
	if !ok || ctx.ResourceDir() != `/tmp/storm/word-count-test/resources` || ctx.PIDDir() != `/tmp/storm/word-count-test/pids` {
		t.Errorf("Context(5) got = %v, %v", ctx, ok)
	}

	if len(w.Contexts()) != 3 {
		t.Errorf("Contexts() got %d contexts", len(w.Contexts()))
	}

	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for task := range want {
		if !rec.cleaned[task] {
			t.Errorf("task %d not cleaned up", task)
		}
	}
}

func TestWorker_Start_All_Tasks(t *testing.T) {
	tp := wordCount(t)
	rec := newRecorder()

	w, err := NewWorker(testConfig(), tp, new(tasks.Assigner).Generate(tp), map[topology.ComponentID]Component{
		1: rec,
		2: rec,
		3: ComponentFunc(func(ctx *tasks.TopologyContext) error { return nil }),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if len(w.LocalTasks()) != 5 {
		t.Errorf("LocalTasks() got = %v", w.LocalTasks())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.prepared) != 3 {
		t.Errorf("recorder prepared %v, want tasks 1, 2 and 3", rec.prepared)
	}
}

func TestWorker_Broken_Assignment(t *testing.T) {
	tp := wordCount(t)
	rec := newRecorder()

	w, err := NewWorker(testConfig(), tp, tasks.Assignment{1: 1, 2: 2}, components(rec))
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(1, 2, 7); !errors.Is(err, tasks.ErrBrokenAssignment) {
		t.Fatalf("Start() error = %v, want ErrBrokenAssignment", err)
	}

	if len(rec.prepared) != 0 {
		t.Errorf("tasks %v prepared on a broken assignment", rec.prepared)
	}

	if err := w.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop() error = %v, want ErrNotStarted", err)
	}
}

func TestWorker_Missing_Implementation(t *testing.T) {
	tp := wordCount(t)

	w, err := NewWorker(testConfig(), tp, new(tasks.Assigner).Generate(tp), map[topology.ComponentID]Component{
		1: newRecorder(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); !errors.Is(err, ErrMissingImplementation) {
		t.Errorf("Start() error = %v, want ErrMissingImplementation", err)
	}
}

func TestWorker_Prepare_Failure(t *testing.T) {
	tp := wordCount(t)
	failure := errors.New(`cannot open resource`)
	rec := newRecorder()
	rec.fail[4] = failure

	w, err := NewWorker(testConfig(), tp, new(tasks.Assigner).Generate(tp), components(rec))
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); !errors.Is(err, failure) {
		t.Fatalf("Start() error = %v, want %v", err, failure)
	}

	if err := w.Stop(); !errors.Is(err, failure) {
		t.Errorf("Stop() error = %v, want %v", err, failure)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for task := range rec.prepared {
		if task != 4 && !rec.cleaned[task] {
			t.Errorf("prepared task %d not cleaned up", task)
		}
	}
}

func TestNewWorker_Config(t *testing.T) {
	tp := wordCount(t)

	tests := []struct {
		name   string
		config func() *Config
	}{
		{name: `empty topology id`, config: NewConfig},
		{name: `no dirs`, config: func() *Config {
			conf := testConfig()
			conf.BaseDir = ``
			return conf
		}},
		{name: `http without host`, config: func() *Config {
			conf := testConfig()
			conf.Debug.Http.Enabled = true
			conf.Debug.Http.Host = ``
			return conf
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorker(tt.config(), tp, tasks.Assignment{}, nil); err == nil {
				t.Error("NewWorker() want config error")
			}
		})
	}

	conf := testConfig()
	conf.BaseDir = ``
	conf.ResourceDir = `/opt/resources`
	conf.PIDDir = `/run/storm`
	if _, err := NewWorker(conf, tp, tasks.Assignment{}, nil); err != nil {
		t.Errorf("NewWorker() error = %v", err)
	}

	if _, err := NewWorker(testConfig(), nil, tasks.Assignment{}, nil); err == nil {
		t.Error("NewWorker() want error for nil topology")
	}
}
