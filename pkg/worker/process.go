package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/gifweave/pkg/anim"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/provide-io/gifweave/pkg/transfer"
	"github.com/provide-io/gifweave/pkg/utils/shellparse"
	"github.com/provide-io/gifweave/pkg/wire"
)

// EnvTransfer carries the transfer chain to child workers.
const EnvTransfer = "GIFWEAVE_TRANSFER"

// ProcessConfig describes how child workers are launched.
type ProcessConfig struct {
	// Bin is the executable to run. Empty means the current executable.
	Bin string
	// Args are passed to Bin, e.g. {"worker"}.
	Args []string
	// Transfer is the packed chain used in both directions.
	Transfer uint64
	Logger   hclog.Logger
}

// ProcessWorker runs tasks in a child process.
type ProcessWorker struct {
	id     string
	cfg    ProcessConfig
	logger hclog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	tasks      chan anim.Task
	quit       chan struct{}
	stopOnce   sync.Once
	terminated atomic.Bool
	inflight   atomic.Int64 // frame index being encoded, -1 when idle

	mu       sync.Mutex
	onResult func(anim.TaskResult)
}

// NewProcessWorker prepares a worker; Start launches the child.
func NewProcessWorker(id string, cfg ProcessConfig) *ProcessWorker {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	w := &ProcessWorker{
		id:     id,
		cfg:    cfg,
		logger: logger.With("worker", id),
		tasks:  make(chan anim.Task, 1),
		quit:   make(chan struct{}),
	}
	w.inflight.Store(-1)
	return w
}

// ProcessFactory returns a factory for ProcessWorkers.
func ProcessFactory(cfg ProcessConfig) anim.WorkerFactory {
	return func(id string) (anim.Worker, error) {
		return NewProcessWorker(id, cfg), nil
	}
}

func (w *ProcessWorker) ID() string {
	return w.id
}

func (w *ProcessWorker) OnResult(fn func(anim.TaskResult)) {
	w.mu.Lock()
	w.onResult = fn
	w.mu.Unlock()
}

func (w *ProcessWorker) Start() error {
	if w.terminated.Load() {
		return gwerrors.ErrWorkerTerminated
	}

	bin := w.cfg.Bin
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolving worker executable: %w", err)
		}
		bin = exe
	}

	cmd := exec.Command(bin, w.cfg.Args...)
	cmd.Env = append(os.Environ(), EnvTransfer+"="+transfer.OperationsToString(w.cfg.Transfer))
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}

	w.logger.Debug("🚀 Starting worker process", "cmd", shellparse.Join(append([]string{bin}, w.cfg.Args...)))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start worker process: %w", err)
	}

	w.cmd, w.stdin, w.stdout = cmd, stdin, stdout
	go w.writeLoop()
	go w.readLoop()
	return nil
}

// Send queues task for the child. The worker holds at most one task.
func (w *ProcessWorker) Send(task anim.Task) error {
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

// Terminate kills the child. Nothing is delivered afterwards.
func (w *ProcessWorker) Terminate() {
	w.stopOnce.Do(func() {
		w.terminated.Store(true)
		close(w.quit)
		if w.cmd == nil {
			return
		}
		w.stdin.Close()
		if err := w.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			w.logger.Debug("⚠️ Killing worker process", "error", err)
		}
	})
}

func (w *ProcessWorker) deliver(res anim.TaskResult) {
	if w.terminated.Load() {
		return
	}
	w.mu.Lock()
	fn := w.onResult
	w.mu.Unlock()
	if fn != nil {
		fn(res)
	}
}

func (w *ProcessWorker) writeLoop() {
	for {
		select {
		case <-w.quit:
			return
		case task := <-w.tasks:
			w.inflight.Store(int64(task.Index))
			if err := wire.WriteTask(w.stdin, task, w.cfg.Transfer); err != nil {
				w.fail(fmt.Errorf("%w: sending frame %d: %w", gwerrors.ErrWorkerFailed, task.Index, err))
				return
			}
		}
	}
}

func (w *ProcessWorker) readLoop() {
	in := bufio.NewReader(w.stdout)
	for {
		res, err := wire.ReadResult(in)
		if err != nil {
			if !w.terminated.Load() {
				if errors.Is(err, io.EOF) {
					err = errors.New("worker process exited")
				}
				w.fail(fmt.Errorf("%w: %w", gwerrors.ErrWorkerFailed, err))
			}
			break
		}
		w.inflight.Store(-1)
		w.deliver(res)
	}

	err := w.cmd.Wait()
	w.logger.Debug("⏹️ Worker process exited", "error", err)
}

// fail reports err for the task in flight, if any.
func (w *ProcessWorker) fail(err error) {
	index := w.inflight.Swap(-1)
	if index < 0 {
		w.logger.Warn("⚠️ Idle worker process failed", "error", err)
		return
	}
	w.deliver(anim.TaskResult{Index: int(index), Err: err})
}
