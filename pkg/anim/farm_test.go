package anim

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "anim_test",
		Level: hclog.Trace,
	})
}

// sent is a task a fake worker received and has not answered yet.
type sent struct {
	worker *fakeWorker
	task   Task
}

// farm hands out fake workers whose tasks are completed by the test.
type farm struct {
	mu       sync.Mutex
	workers  []*fakeWorker
	inbox    chan sent
	startErr error
}

func newFarm() *farm {
	return &farm{inbox: make(chan sent, 64)}
}

func (f *farm) factory(id string) (Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWorker{id: id, farm: f}
	f.workers = append(f.workers, w)
	return w, nil
}

func (f *farm) spawned() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

func (f *farm) terminated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.workers {
		if w.terminated.Load() {
			n++
		}
	}
	return n
}

// next returns the next dispatched task.
func (f *farm) next(t *testing.T) sent {
	t.Helper()
	select {
	case s := <-f.inbox:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a dispatch")
		return sent{}
	}
}

// take returns the next n dispatched tasks.
func (f *farm) take(t *testing.T, n int) []sent {
	t.Helper()
	out := make([]sent, n)
	for i := range out {
		out[i] = f.next(t)
	}
	return out
}

// idle asserts nothing is dispatched for a short while.
func (f *farm) idle(t *testing.T) {
	t.Helper()
	select {
	case s := <-f.inbox:
		t.Fatalf("unexpected dispatch of frame %d", s.task.Index)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeWorker struct {
	id         string
	farm       *farm
	mu         sync.Mutex
	fn         func(TaskResult)
	terminated atomic.Bool
}

func (w *fakeWorker) ID() string { return w.id }

func (w *fakeWorker) Start() error { return w.farm.startErr }

func (w *fakeWorker) Send(task Task) error {
	w.farm.inbox <- sent{worker: w, task: task}
	return nil
}

func (w *fakeWorker) OnResult(fn func(TaskResult)) {
	w.mu.Lock()
	w.fn = fn
	w.mu.Unlock()
}

func (w *fakeWorker) Terminate() { w.terminated.Store(true) }

// reply delivers res as if the worker finished, even after termination,
// to exercise late results.
func (w *fakeWorker) reply(res TaskResult) {
	w.mu.Lock()
	fn := w.fn
	w.mu.Unlock()
	fn(res)
}

// segment is the fake encoded output of a frame.
func segment(index int) []byte {
	return []byte(fmt.Sprintf("[frame %d]", index))
}

// complete answers s with a paged segment.
func (s sent) complete() {
	s.worker.reply(pagedResult(s.task.Index))
}

// completePalette answers s as the frame that analysed the shared palette.
func (s sent) completePalette(p color.Palette) {
	res := pagedResult(s.task.Index)
	res.Palette = p
	s.worker.reply(res)
}

func pagedResult(index int) TaskResult {
	const pageSize = 4
	seg := segment(index)

	var pages [][]byte
	for off := 0; off < len(seg); off += pageSize {
		page := make([]byte, pageSize)
		copy(page, seg[off:])
		pages = append(pages, page)
	}

	return TaskResult{
		Index:    index,
		Pages:    pages,
		Cursor:   len(seg) - (len(pages)-1)*pageSize,
		PageSize: pageSize,
	}
}

func (s sent) fail(err error) {
	s.worker.reply(TaskResult{Index: s.task.Index, Err: err})
}

func expected(frames int) []byte {
	var out []byte
	for i := 0; i < frames; i++ {
		out = append(out, segment(i)...)
	}
	return out
}
