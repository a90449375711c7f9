package streams

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/ersushantsood/storm/streams/encoding"
	"github.com/ersushantsood/storm/streams/tasks"
	"github.com/ersushantsood/storm/streams/topology"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/tryfix/log"
)

type Err struct {
	Err string `json:"error"`
}

type streamView struct {
	ID     topology.StreamID `json:"id"`
	Fields topology.Fields   `json:"fields"`
	Direct bool              `json:"direct,omitempty"`
}

type inputView struct {
	Component topology.ComponentID `json:"component"`
	Stream    topology.StreamID    `json:"stream"`
	Grouping  string               `json:"grouping"`
}

type targetView struct {
	Stream    topology.StreamID    `json:"stream"`
	Component topology.ComponentID `json:"component"`
	Grouping  string               `json:"grouping"`
}

type componentView struct {
	ID          topology.ComponentID `json:"id"`
	Name        string               `json:"name"`
	Kind        string               `json:"kind"`
	Parallelism int                  `json:"parallelism"`
	Streams     []streamView         `json:"streams"`
	Inputs      []inputView          `json:"inputs,omitempty"`
	Tasks       []tasks.TaskID       `json:"tasks"`
}

type topologyView struct {
	Name       string          `json:"name"`
	ID         string          `json:"id"`
	Components []componentView `json:"components"`
}

type taskView struct {
	tasks.DebugInfo
	Component topology.ComponentID `json:"component"`
	Kind      string               `json:"kind"`
	Index     int                  `json:"index"`
	Tasks     []tasks.TaskID       `json:"component_tasks"`
	Streams   []streamView         `json:"streams"`
	Sources   []inputView          `json:"sources,omitempty"`
	Targets   []targetView         `json:"targets"`
}

type handler struct {
	worker *Worker
	logger log.Logger
	json   encoding.JSONEncoder
	taskID encoding.IntEncoder
	text   encoding.StringEncoder
}

func (h *handler) write(w http.ResponseWriter, status int, contentType string, byt []byte) {
	w.Header().Set(`Content-Type`, contentType)
	w.WriteHeader(status)
	if _, err := w.Write(byt); err != nil {
		h.logger.Error(err)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, v interface{}) {
	byt, err := h.json.Encode(v)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.write(w, http.StatusOK, `application/json`, byt)
}

func (h *handler) writeError(w http.ResponseWriter, status int, e error) {
	byt, err := h.json.Encode(Err{Err: e.Error()})
	if err != nil {
		h.logger.Error(err)
	}

	h.write(w, status, `application/json`, byt)
}

// task resolves the {task} route parameter to a local task context.
func (h *handler) task(w http.ResponseWriter, r *http.Request) (*tasks.TopologyContext, bool) {
	v, err := h.taskID.Decode([]byte(mux.Vars(r)[`task`]))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	ctx, ok := h.worker.Context(tasks.TaskID(v.(int)))
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Errorf(`task %d is not hosted by this worker`, v))
		return nil, false
	}

	return ctx, true
}

func (h *handler) describe() topologyView {
	tp := h.worker.Topology()
	assignment := h.worker.Assignment().ComponentTasks()
	view := topologyView{
		Name:       tp.Name(),
		ID:         h.worker.config.TopologyID,
		Components: []componentView{},
	}

	for _, id := range tp.ComponentIDs() {
		c, _ := tp.Component(id)
		cv := componentView{
			ID:          id,
			Name:        c.Common().Name,
			Kind:        c.Kind().String(),
			Parallelism: c.Common().ParallelismHint,
			Streams:     streamViews(c.Common().Streams),
			Tasks:       assignment[id],
		}
		if cv.Tasks == nil {
			cv.Tasks = []tasks.TaskID{}
		}

		if p, ok := c.(*topology.Processor); ok {
			cv.Inputs = inputViews(p.Inputs)
		}

		view.Components = append(view.Components, cv)
	}

	return view
}

func (h *handler) taskInfo(ctx *tasks.TopologyContext) (taskView, error) {
	component, err := ctx.ThisComponentID()
	if err != nil {
		return taskView{}, err
	}

	kind, err := ctx.ComponentType(component)
	if err != nil {
		return taskView{}, err
	}

	index, err := ctx.ThisTaskIndex()
	if err != nil {
		return taskView{}, err
	}

	sources, err := ctx.ThisSources()
	if err != nil {
		return taskView{}, err
	}

	targets, err := ctx.ThisTargets()
	if err != nil {
		return taskView{}, err
	}

	c, _ := ctx.RawTopology().Component(component)

	return taskView{
		DebugInfo: ctx.Debug(),
		Component: component,
		Kind:      kind.String(),
		Index:     index,
		Tasks:     ctx.ComponentTasks(component),
		Streams:   streamViews(c.Common().Streams),
		Sources:   inputViews(sources),
		Targets:   targetViews(targets),
	}, nil
}

func streamViews(streams map[topology.StreamID]topology.StreamInfo) []streamView {
	views := make([]streamView, 0, len(streams))
	for id, info := range streams {
		views = append(views, streamView{ID: id, Fields: info.OutputFields, Direct: info.Direct})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	return views
}

func inputViews(inputs map[topology.GlobalStreamID]topology.Grouping) []inputView {
	ids := make([]topology.GlobalStreamID, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	views := make([]inputView, 0, len(ids))
	for _, id := range ids {
		views = append(views, inputView{Component: id.ComponentID, Stream: id.StreamID, Grouping: inputs[id].String()})
	}

	return views
}

func targetViews(targets tasks.Targets) []targetView {
	views := []targetView{}
	for stream, consumers := range targets {
		for consumer, grouping := range consumers {
			views = append(views, targetView{Stream: stream, Component: consumer, Grouping: grouping.String()})
		}
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].Stream != views[j].Stream {
			return views[i].Stream < views[j].Stream
		}
		return views[i].Component < views[j].Component
	})

	return views
}

// MakeEndpoints returns the debug routes of a worker.
//
//	GET /topology               components, streams, inputs and task ids
//	GET /topology/dot           graphviz rendering of the topology
//	GET /tasks                  DebugInfo of every local task
//	GET /tasks/{task}           full view of a local task context
//	GET /tasks/{task}/targets   consumers of the task's output streams
func MakeEndpoints(worker *Worker, logger log.Logger) http.Handler {
	r := mux.NewRouter()
	h := &handler{
		worker: worker,
		logger: logger,
	}

	r.HandleFunc(`/topology`, func(writer http.ResponseWriter, request *http.Request) {
		h.writeJSON(writer, h.describe())
	}).Methods(http.MethodGet)

	r.HandleFunc(`/topology/dot`, func(writer http.ResponseWriter, request *http.Request) {
		viz := topology.NewTopologyVisualizer()
		viz.AddTopology(worker.Topology())
		dot, err := viz.Visualize()
		if err != nil {
			h.writeError(writer, http.StatusInternalServerError, err)
			return
		}

		byt, err := h.text.Encode(dot)
		if err != nil {
			h.writeError(writer, http.StatusInternalServerError, err)
			return
		}

		h.write(writer, http.StatusOK, `text/vnd.graphviz`, byt)
	}).Methods(http.MethodGet)

	r.HandleFunc(`/tasks`, func(writer http.ResponseWriter, request *http.Request) {
		list := []tasks.DebugInfo{}
		for _, id := range worker.LocalTasks() {
			ctx, _ := worker.Context(id)
			list = append(list, ctx.Debug())
		}

		h.writeJSON(writer, list)
	}).Methods(http.MethodGet)

	r.HandleFunc(`/tasks/{task}`, func(writer http.ResponseWriter, request *http.Request) {
		ctx, ok := h.task(writer, request)
		if !ok {
			return
		}

		view, err := h.taskInfo(ctx)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, tasks.ErrBrokenAssignment) {
				status = http.StatusConflict
			}
			h.writeError(writer, status, err)
			return
		}

		h.writeJSON(writer, view)
	}).Methods(http.MethodGet)

	r.HandleFunc(`/tasks/{task}/targets`, func(writer http.ResponseWriter, request *http.Request) {
		ctx, ok := h.task(writer, request)
		if !ok {
			return
		}

		targets, err := ctx.ThisTargets()
		if err != nil {
			h.writeError(writer, http.StatusInternalServerError, err)
			return
		}

		h.writeJSON(writer, targetViews(targets))
	}).Methods(http.MethodGet)

	return handlers.CORS()(r)
}

func (w *Worker) startDebugServer() *http.Server {
	logger := w.logger.NewLog(log.Prefixed(`Http`))
	srv := &http.Server{
		Addr:    w.config.Debug.Http.Host,
		Handler: MakeEndpoints(w, logger),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf(`Cannot start web server : %+v`, err))
		}
	}()

	logger.Info(fmt.Sprintf(`Http server started on %s`, w.config.Debug.Http.Host))

	return srv
}
