// Package worker provides the anim.Worker implementations gifweave ships
// with: goroutine workers for in-process encoding and child-process
// workers that speak the wire protocol over stdin and stdout.
package worker

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/gifweave/pkg/anim"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/provide-io/gifweave/pkg/codec"
)

// EncodeFunc encodes one task.
type EncodeFunc func(anim.Task) (anim.TaskResult, error)

// safeEncode runs encode and turns both errors and panics into a failed
// result.
func safeEncode(encode EncodeFunc, task anim.Task, logger hclog.Logger) (res anim.TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("💥 Encoder panic", "frame", task.Index, "panic", r, "stack", string(debug.Stack()))
			res = anim.TaskResult{Index: task.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err := encode(task)
	if err != nil {
		return anim.TaskResult{Index: task.Index, Err: err}
	}
	res.Index = task.Index
	return res
}

// LocalWorker encodes tasks on its own goroutine.
type LocalWorker struct {
	id     string
	encode EncodeFunc
	logger hclog.Logger

	tasks      chan anim.Task
	quit       chan struct{}
	stopOnce   sync.Once
	terminated atomic.Bool

	mu       sync.Mutex
	onResult func(anim.TaskResult)
}

// NewLocalWorker creates a worker that runs encode, or codec.EncodeFrame
// when encode is nil.
func NewLocalWorker(id string, encode EncodeFunc, logger hclog.Logger) *LocalWorker {
	if encode == nil {
		encode = codec.EncodeFrame
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalWorker{
		id:     id,
		encode: encode,
		logger: logger.With("worker", id),
		tasks:  make(chan anim.Task, 1),
		quit:   make(chan struct{}),
	}
}

// LocalFactory returns a factory for LocalWorkers.
func LocalFactory(encode EncodeFunc, logger hclog.Logger) anim.WorkerFactory {
	return func(id string) (anim.Worker, error) {
		return NewLocalWorker(id, encode, logger), nil
	}
}

func (w *LocalWorker) ID() string {
	return w.id
}

func (w *LocalWorker) OnResult(fn func(anim.TaskResult)) {
	w.mu.Lock()
	w.onResult = fn
	w.mu.Unlock()
}

func (w *LocalWorker) Start() error {
	if w.terminated.Load() {
		return gwerrors.ErrWorkerTerminated
	}
	go w.loop()
	return nil
}

// Send queues task. The worker holds at most one task.
func (w *LocalWorker) Send(task anim.Task) error {
	if w.terminated.Load() {
		return gwerrors.ErrWorkerTerminated
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return fmt.Errorf("worker %s already holds a task", w.id)
	}
}

// Terminate stops the worker. A task being encoded runs to completion but
// its result is dropped.
func (w *LocalWorker) Terminate() {
	w.stopOnce.Do(func() {
		w.terminated.Store(true)
		close(w.quit)
	})
}

func (w *LocalWorker) loop() {
	for {
		select {
		case <-w.quit:
			return
		case task := <-w.tasks:
			w.logger.Trace("⚙️ Encoding frame", "frame", task.Index)
			res := safeEncode(w.encode, task, w.logger)
			if w.terminated.Load() {
				w.logger.Trace("🗑️ Dropping result of terminated worker", "frame", task.Index)
				return
			}

			w.mu.Lock()
			fn := w.onResult
			w.mu.Unlock()
			if fn != nil {
				fn(res)
			}
		}
	}
}
