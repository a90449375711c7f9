package streams

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ersushantsood/storm/pkg/async"
	"github.com/ersushantsood/storm/pkg/errors"
	"github.com/ersushantsood/storm/streams/tasks"
	"github.com/ersushantsood/storm/streams/topology"
	"github.com/tryfix/log"
	"github.com/tryfix/metrics"
)

type localTask struct {
	id        tasks.TaskID
	component topology.ComponentID
	name      string
	ctx       *tasks.TopologyContext
	impl      Component
	logger    log.Logger
}

// Worker hosts the local tasks of a topology. Start builds a TopologyContext
// for every local task and prepares the tasks concurrently, Stop cleans them
// up. A Worker can be started once.
type Worker struct {
	config     *Config
	topology   *topology.Topology
	assignment tasks.Assignment
	components map[topology.ComponentID]Component

	local    map[tasks.TaskID]*localTask
	runGroup *async.RunGroup
	done     chan struct{}
	runErr   error
	server   *http.Server
	logger   log.Logger

	metrics struct {
		reporter       metrics.Reporter
		prepareLatency metrics.Observer
		prepareCount   metrics.Counter
		localTasks     metrics.Gauge
	}
}

func NewWorker(
	config *Config,
	tp *topology.Topology,
	assignment tasks.Assignment,
	components map[topology.ComponentID]Component,
) (*Worker, error) {
	config.setUp()
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, `invalid worker config`)
	}

	if tp == nil {
		return nil, errors.New(`topology cannot be nil`)
	}

	if assignment == nil {
		return nil, errors.New(`task assignment cannot be nil`)
	}

	w := &Worker{
		config:     config,
		topology:   tp,
		assignment: assignment.Clone(),
		components: make(map[topology.ComponentID]Component, len(components)),
		logger:     config.Logger.NewLog(log.Prefixed(`Worker`)),
	}

	for id, c := range components {
		w.components[id] = c
	}

	w.setUpMetrics()

	return w, nil
}

func (w *Worker) setUpMetrics() {
	w.metrics.reporter = w.config.MetricsReporter.Reporter(metrics.ReporterConf{
		Subsystem: `storm_worker`,
		ConstLabels: map[string]string{
			`topology_id`: w.config.TopologyID,
		},
	})
	w.metrics.prepareLatency = w.metrics.reporter.Observer(metrics.MetricConf{
		Path:   `worker_task_prepare_latency_microseconds`,
		Labels: []string{`component`},
	})
	w.metrics.prepareCount = w.metrics.reporter.Counter(metrics.MetricConf{
		Path:   `worker_task_prepare_count`,
		Labels: []string{`component`, `status`},
	})
	w.metrics.localTasks = w.metrics.reporter.Gauge(metrics.MetricConf{
		Path: `worker_local_tasks`,
	})
}

// Start prepares localTasks, every task of the assignment when none are given.
// It blocks until each task is prepared and returns the first failure. When a
// task cannot be indexed (eg: it is missing from the assignment) no task is
// prepared at all.
func (w *Worker) Start(localTasks ...tasks.TaskID) error {
	if w.runGroup != nil {
		return ErrAlreadyStarted
	}

	w.logger.Info(`Worker starting...`)

	if len(localTasks) == 0 {
		localTasks = w.assignment.Tasks()
	}

	local, err := w.buildTasks(localTasks)
	if err != nil {
		return errors.Wrap(err, `worker start failed`)
	}
	w.local = local
	w.metrics.localTasks.Count(float64(len(local)), nil)

	if w.config.Debug.Http.Enabled {
		w.server = w.startDebugServer()
	}

	w.runGroup = async.NewRunGroup(w.logger)
	for _, id := range w.LocalTasks() {
		t := w.local[id]
		w.runGroup.AddNamed(fmt.Sprintf(`%s-%d`, t.name, t.id), w.prepare(t))
	}

	w.done = make(chan struct{})
	go func() {
		w.runErr = w.runGroup.Run()
		close(w.done)
	}()

	if err := w.runGroup.Ready(); err != nil {
		<-w.done
		w.shutdownDebugServer()
		return errors.Wrap(err, `worker start failed`)
	}

	w.logger.Info(fmt.Sprintf(`Worker started with %d tasks`, len(w.local)))

	return nil
}

// buildTasks indexes every task up front so a broken assignment stops the
// worker before any component is touched.
func (w *Worker) buildTasks(ids []tasks.TaskID) (map[tasks.TaskID]*localTask, error) {
	local := make(map[tasks.TaskID]*localTask, len(ids))
	for _, id := range ids {
		ctx, err := tasks.NewTopologyContext(
			w.topology,
			w.assignment,
			w.config.TopologyID,
			w.config.ResourceDir,
			w.config.PIDDir,
			id,
		)
		if err != nil {
			return nil, err
		}

		if _, err := ctx.ThisTaskIndex(); err != nil {
			return nil, err
		}

		// ThisTaskIndex already checked the assignment
		componentID, _ := ctx.ThisComponentID()
		impl, ok := w.components[componentID]
		if !ok {
			return nil, errors.Wrapf(ErrMissingImplementation, `component %d of task %d`, componentID, id)
		}

		name := fmt.Sprintf(`component-%d`, componentID)
		if c, ok := w.topology.Component(componentID); ok && c.Common().Name != `` {
			name = c.Common().Name
		}

		local[id] = &localTask{
			id:        id,
			component: componentID,
			name:      name,
			ctx:       ctx,
			impl:      impl,
			logger:    w.logger.NewLog(log.Prefixed(fmt.Sprintf(`%s-%d`, name, id))),
		}
	}

	return local, nil
}

func (w *Worker) prepare(t *localTask) async.Fn {
	return func(opts *async.Opts) error {
		begin := time.Now()
		if err := t.impl.Prepare(t.ctx); err != nil {
			w.metrics.prepareCount.Count(1, map[string]string{`component`: t.name, `status`: `failed`})
			return errors.Wrapf(err, `task %d prepare failed`, t.id)
		}

		w.metrics.prepareLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), map[string]string{
			`component`: t.name,
		})
		w.metrics.prepareCount.Count(1, map[string]string{`component`: t.name, `status`: `success`})

		idx, _ := t.ctx.ThisTaskIndex()
		t.logger.Info(fmt.Sprintf(`Prepared (index %d of %d)`, idx, len(t.ctx.ComponentTasks(t.component))))
		opts.Ready()

		<-opts.Stopping()

		cleaner, ok := t.impl.(Cleaner)
		if !ok {
			return nil
		}

		if err := cleaner.Cleanup(t.ctx); err != nil {
			t.logger.Error(fmt.Sprintf(`Cleanup failed due to %s`, err))
			return errors.Wrapf(err, `task %d cleanup failed`, t.id)
		}

		t.logger.Info(`Cleaned up`)

		return nil
	}
}

// Stop signals every prepared task to clean up and waits for them. It returns
// the first task error.
func (w *Worker) Stop() error {
	if w.runGroup == nil {
		return ErrNotStarted
	}

	w.logger.Info(`Worker stopping...`)
	defer w.logger.Info(`Worker stopped`)

	w.runGroup.Stop()
	<-w.done
	w.shutdownDebugServer()

	w.metrics.prepareLatency.UnRegister()
	w.metrics.prepareCount.UnRegister()
	w.metrics.localTasks.UnRegister()

	return w.runErr
}

func (w *Worker) shutdownDebugServer() {
	if w.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.server.Shutdown(ctx); err != nil {
		w.logger.Warn(fmt.Sprintf(`Debug http server shutdown failed due to %s`, err))
	}
	w.server = nil
}

func (w *Worker) Topology() *topology.Topology {
	return w.topology
}

// Assignment returns a copy of the full task assignment.
func (w *Worker) Assignment() tasks.Assignment {
	return w.assignment.Clone()
}

// LocalTasks returns the ids of the tasks hosted by this worker, ascending.
func (w *Worker) LocalTasks() []tasks.TaskID {
	ids := make([]tasks.TaskID, 0, len(w.local))
	for id := range w.local {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Context returns the TopologyContext of a local task.
func (w *Worker) Context(task tasks.TaskID) (*tasks.TopologyContext, bool) {
	t, ok := w.local[task]
	if !ok {
		return nil, false
	}

	return t.ctx, true
}

// Contexts returns the TopologyContext of every local task.
func (w *Worker) Contexts() map[tasks.TaskID]*tasks.TopologyContext {
	contexts := make(map[tasks.TaskID]*tasks.TopologyContext, len(w.local))
	for id, t := range w.local {
		contexts[id] = t.ctx
	}

	return contexts
}
