package streams

import (
	"github.com/ersushantsood/storm/streams/tasks"
)

// Component is the implementation behind a topology component. The worker
// calls Prepare once for every local task of the component, each call on its
// own go-routine and with the context of that task.
type Component interface {
	Prepare(ctx *tasks.TopologyContext) error
}

// Cleaner is implemented by components that hold resources for their tasks.
// Cleanup is called once per task when the worker stops.
type Cleaner interface {
	Cleanup(ctx *tasks.TopologyContext) error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx *tasks.TopologyContext) error

func (fn ComponentFunc) Prepare(ctx *tasks.TopologyContext) error {
	return fn(ctx)
}
