// Package async runs groups of long lived functions that start together, report
// readiness and stop together.
package async

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tryfix/log"
)

// Fn is a function that can be run asynchronously.
type Fn func(*Opts) error

// Opts contains options for running a function.
type Opts struct {
	// stopping is closed when the group shuts down.
	stopping <-chan struct{}

	readyOnce sync.Once

	// ready is closed when the function is ready (eg: preparation done).
	ready chan struct{}
}

// Stopping returns a channel that can be used to signal that the function should stop.
func (opts *Opts) Stopping() <-chan struct{} {
	return opts.stopping
}

// Ready signals that the function is ready to run.
func (opts *Opts) Ready() {
	opts.readyOnce.Do(func() {
		close(opts.ready)
	})
}

var ErrInterrupted = errors.New(`interrupted`)

type namedFn struct {
	name string
	fn   Fn
}

// RunGroup runs a group of functions asynchronously. The first function that
// fails or panics stops the whole group.
type RunGroup struct {
	fns          []namedFn
	wg           *sync.WaitGroup
	readyWg      *sync.WaitGroup
	stopping     chan struct{}
	stopped      chan struct{}
	shutDownOnce *sync.Once
	mu           sync.Mutex
	err          error
	logger       log.Logger
	shuttingDown bool
}

func NewRunGroup(logger log.Logger, fns ...Fn) *RunGroup {
	tg := &RunGroup{
		wg:           new(sync.WaitGroup),
		readyWg:      new(sync.WaitGroup),
		stopping:     make(chan struct{}),
		stopped:      make(chan struct{}),
		shutDownOnce: &sync.Once{},
		logger:       logger.NewLog(log.Prefixed(`AsyncGroup`)),
	}

	for _, fn := range fns {
		tg.Add(fn)
	}

	return tg
}

// Add adds a function to the RunGroup. The function will be executed when the Run method is called.
// Note: RunGroup does not support dynamically adding functions to a running group.
func (tg *RunGroup) Add(fn Fn) *RunGroup {
	return tg.AddNamed(fmt.Sprintf(`fn-%d`, len(tg.fns)), fn)
}

// AddNamed is Add with a name that shows up in the group's logs.
func (tg *RunGroup) AddNamed(name string, fn Fn) *RunGroup {
	tg.readyWg.Add(1)
	tg.fns = append(tg.fns, namedFn{name: name, fn: fn})
	return tg
}

// Run starts every function on its own go-routine and blocks until all of
// them return. It returns the first error.
func (tg *RunGroup) Run() error {
	tg.wg.Add(len(tg.fns))

	for _, nf := range tg.fns {
		ready := make(chan struct{})

		go func() {
			<-ready
			tg.readyWg.Done()
		}()

		go func(nf namedFn) {
			opts := &Opts{
				stopping: tg.stopping,
				ready:    ready,
			}

			if err := tg.call(nf, opts); err != nil {
				tg.setErr(err)
				tg.notifyShutDown(fmt.Errorf(`%s: %w`, nf.name, err))
			}

			// When function returns make it ready anyway
			opts.Ready()
			tg.wg.Done()
		}(nf)
	}

	tg.wg.Wait()

	close(tg.stopped)

	return tg.error()
}

func (tg *RunGroup) call(nf namedFn, opts *Opts) (err error) {
	defer recoverPanic(tg.logger, nf.name, &err)
	return nf.fn(opts)
}

// Only the first error is kept.
func (tg *RunGroup) setErr(err error) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.err == nil {
		tg.err = err
	}
}

func (tg *RunGroup) error() error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.err
}

func (tg *RunGroup) notifyShutDown(err error) {
	tg.shutDownOnce.Do(func() {
		if err != nil {
			tg.logger.Error(fmt.Sprintf(`Processes stopping due to %s`, err))
		} else {
			tg.logger.Info(`Interrupted, Processes stopping...`)
		}

		tg.mu.Lock()
		tg.shuttingDown = true
		tg.mu.Unlock()
		close(tg.stopping)
	})
}

// Ready blocks until every function called Opts.Ready or returned. It returns
// the first error, or ErrInterrupted when the group was stopped before that.
func (tg *RunGroup) Ready() error {
	tg.readyWg.Wait()

	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.err == nil && tg.shuttingDown {
		return ErrInterrupted
	}

	return tg.err
}

// Stop signals every function to stop and waits for Run to return. Run must
// have been called.
func (tg *RunGroup) Stop() {
	tg.notifyShutDown(nil)
	defer tg.logger.Info(`Processes stopped`)

	<-tg.stopped
}
