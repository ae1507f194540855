// Package anim schedules animated GIF encoding over a pool of workers.
//
// Frames are dispatched in order, one per idle worker. Workers finish in any
// order; each result lands in the slot of its frame and, once every slot is
// filled, the slots are concatenated into the final file. With a shared
// palette the first frame is encoded alone so that every later task can
// carry the palette it produced.
package anim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/provide-io/gifweave/pkg/logging"
)

// State is the render lifecycle of an Encoder.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the current or last session.
type Stats struct {
	State      State
	Session    string
	Frames     int
	Dispatched int
	Finished   int
	Pool       PoolStats
}

type completion struct {
	worker Worker
	result TaskResult
}

// session is the state of one Render call.
type session struct {
	id           string
	next         int
	finished     int
	results      []*TaskResult
	dispatchedAt []time.Time
	paletteFrame int // -1 unless the first frame analyses the shared palette

	inbox chan completion
	done  chan struct{}
	once  sync.Once

	output []byte
	err    error
}

func newSession(frames, workers int, analysePalette bool) *session {
	s := &session{
		id:           uuid.NewString(),
		results:      make([]*TaskResult, frames),
		dispatchedAt: make([]time.Time, frames),
		paletteFrame: -1,
		inbox:        make(chan completion, frames+workers),
		done:         make(chan struct{}),
	}
	if analysePalette {
		s.paletteFrame = 0
	}
	return s
}

func (s *session) end(output []byte, err error) {
	s.once.Do(func() {
		s.output = output
		s.err = err
		close(s.done)
	})
}

// Encoder collects frames and renders them into an animated GIF.
//
// Render dispatches work and returns; completions are handled one at a time
// on a goroutine owned by the session. Listeners run without any encoder
// lock held, so they may call Abort or Render.
type Encoder struct {
	mu     sync.Mutex
	opts   Options
	frames []*Frame
	state  State
	sess   *session
	err    error

	// paletteAnalysed is set once a session's first frame decided the
	// shared palette; the next Render analyses again.
	paletteAnalysed bool

	current atomic.Pointer[session]

	pool    *Pool
	events  *Events
	factory WorkerFactory
	logger  hclog.Logger
	metrics *Metrics
}

// New creates an idle encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{
		opts:   DefaultOptions(),
		events: NewEvents(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger("gifweave.anim", logging.GetLogLevel(), nil)
	}
	if e.opts.Debug {
		e.logger.SetLevel(hclog.Debug)
	}

	spawn := func(id string) (Worker, error) {
		return e.factory(id)
	}
	e.pool = NewPool(spawn, e.opts.Workers, e.deliver, e.logger.Named("pool"), e.metrics)

	return e
}

// Configure applies options. It fails while a render is running.
func (e *Encoder) Configure(opts ...Option) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return gwerrors.ErrAlreadyRunning
	}
	prev := e.opts
	for _, o := range opts {
		o(e)
	}
	if canvasChanged(prev, e.opts) {
		for _, f := range e.frames {
			f.forget()
		}
	}
	if e.opts.Debug {
		e.logger.SetLevel(hclog.Debug)
	}
	e.pool.SetSize(e.opts.Workers)
	return nil
}

// Options returns a copy of the current options.
func (e *Encoder) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Events returns the encoder's listener registry.
func (e *Encoder) Events() *Events {
	return e.events
}

// OnStarted subscribes fn to session starts.
func (e *Encoder) OnStarted(fn func()) (Subscription, error) {
	return e.events.Subscribe(EventStarted, func(Event) { fn() })
}

// OnProgress subscribes fn to progress updates in [0, 1].
func (e *Encoder) OnProgress(fn func(float64)) (Subscription, error) {
	return e.events.Subscribe(EventProgress, func(ev Event) { fn(ev.Progress) })
}

// OnFinished subscribes fn to the assembled output.
func (e *Encoder) OnFinished(fn func([]byte)) (Subscription, error) {
	return e.events.Subscribe(EventFinished, func(ev Event) { fn(ev.Data) })
}

// OnAborted subscribes fn to aborts.
func (e *Encoder) OnAborted(fn func()) (Subscription, error) {
	return e.events.Subscribe(EventAborted, func(Event) { fn() })
}

// AddFrame appends a frame. src is a PixelBuffer, *image.RGBA, Context or
// image.Image; anything else fails with ErrInvalidFrameSource. The first
// frame fixes the output size unless it was configured.
func (e *Encoder) AddFrame(src any, fo FrameOptions) (*Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return nil, gwerrors.ErrAlreadyRunning
	}

	frame, bounds, err := newFrame(src, fo, e.opts)
	if err != nil {
		return nil, err
	}
	if e.opts.Width <= 0 {
		e.opts.Width = bounds.Dx()
	}
	if e.opts.Height <= 0 {
		e.opts.Height = bounds.Dy()
	}

	if frame.Copy {
		if frame.kind == SourcePixels {
			frame.data = bytes.Clone(frame.data)
		} else if _, err := materialize(frame, e.opts); err != nil {
			return nil, fmt.Errorf("copying frame %d: %w", len(e.frames), err)
		}
	}

	e.frames = append(e.frames, frame)
	e.logger.Trace("🖼️ Frame added", "index", len(e.frames)-1, "source", frame.kind, "delay", frame.Delay)

	return frame, nil
}

// FrameCount returns the number of frames added.
func (e *Encoder) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

// State returns the lifecycle state.
func (e *Encoder) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns why the last session aborted on its own, or nil.
func (e *Encoder) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Stats returns a snapshot of the current or last session.
func (e *Encoder) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{State: e.state, Frames: len(e.frames), Pool: e.pool.Stats()}
	if s := e.sess; s != nil {
		st.Session = s.id
		st.Dispatched = s.next
		st.Finished = s.finished
	}
	return st
}

// Render starts a session. It returns once the first tasks are dispatched
// and the started and progress(0) events have been emitted.
func (e *Encoder) Render() error {
	e.mu.Lock()

	if e.state == StateRunning {
		e.mu.Unlock()
		return gwerrors.ErrAlreadyRunning
	}
	if e.opts.Width <= 0 || e.opts.Height <= 0 {
		e.mu.Unlock()
		return gwerrors.ErrMissingDimensions
	}
	if len(e.frames) == 0 {
		e.mu.Unlock()
		return gwerrors.ErrNoFrames
	}
	if e.factory == nil {
		e.mu.Unlock()
		return errors.New("no worker factory configured")
	}

	if e.paletteAnalysed {
		e.opts.Palette = SharedPalette{Mode: PalettePending}
		e.paletteAnalysed = false
	}

	s := newSession(len(e.frames), e.opts.Workers, e.opts.Palette.Mode == PalettePending)
	e.sess = s
	e.state = StateRunning
	e.err = nil
	e.current.Store(s)

	e.logger.Info("🎬 Rendering",
		"session", s.id,
		"frames", len(e.frames),
		"width", e.opts.Width,
		"height", e.opts.Height,
		"palette", e.opts.Palette.Mode)

	n, err := e.pool.EnsureCapacity(len(e.frames))
	if err == nil {
		if s.paletteFrame >= 0 {
			err = e.dispatchNext(s)
		} else {
			for i := 0; i < n && err == nil; i++ {
				err = e.dispatchNext(s)
			}
		}
	}
	if err != nil {
		e.pool.TerminateAll()
		e.current.Store(nil)
		e.sess = nil
		e.state = StateIdle
		e.mu.Unlock()

		s.end(nil, err)
		e.metrics.session("failed")
		e.logger.Error("❌ Render failed to start", "error", err)
		return err
	}
	e.mu.Unlock()

	e.emitCurrent(s, []Event{
		{Kind: EventStarted, Session: s.id},
		{Kind: EventProgress, Session: s.id},
	})

	go e.run(s)
	return nil
}

// Abort terminates every worker and ends the running session. Results that
// arrive afterwards are discarded.
func (e *Encoder) Abort() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return gwerrors.ErrNotRunning
	}
	s := e.sess
	e.logger.Info("🛑 Aborting render", "session", s.id, "finished", s.finished, "frames", len(s.results))
	e.abortLocked(nil)
	e.mu.Unlock()

	e.events.Emit(Event{Kind: EventAborted, Session: s.id})
	s.end(nil, gwerrors.ErrAborted)
	return nil
}

// Wait blocks until the current or last session ends and returns its
// output.
func (e *Encoder) Wait(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	s := e.sess
	e.mu.Unlock()

	if s == nil {
		return nil, gwerrors.ErrNotRunning
	}

	select {
	case <-s.done:
		return s.output, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close aborts a running session and terminates every pooled worker.
func (e *Encoder) Close() error {
	if err := e.Abort(); err != nil && !errors.Is(err, gwerrors.ErrNotRunning) {
		return err
	}
	e.pool.TerminateAll()
	return nil
}

// abortLocked terminates the pool and marks the session aborted. The caller
// emits the aborted event and ends the session after releasing e.mu.
func (e *Encoder) abortLocked(cause error) {
	e.pool.TerminateAll()
	e.state = StateAborted
	e.current.Store(nil)
	e.err = cause
	e.metrics.session("aborted")
}

// dispatchNext sends the next frame to a free worker. Callers guarantee a
// free worker exists; running out is a scheduling bug.
func (e *Encoder) dispatchNext(s *session) error {
	if e.pool.FreeCount() == 0 {
		panic(fmt.Errorf("dispatching frame %d: %w", s.next, gwerrors.ErrPoolExhausted))
	}
	if s.next >= len(e.frames) {
		return nil
	}

	index := s.next
	s.next++

	task, err := BuildTask(e.frames[index], index, index == len(e.frames)-1, e.opts)
	if err != nil {
		return err
	}

	w, err := e.pool.AcquireFree()
	if err != nil {
		panic(fmt.Errorf("dispatching frame %d: %w", index, err))
	}

	e.logger.Debug("🚀 Starting frame", "frame", index+1, "of", len(e.frames), "worker", w.ID())
	s.dispatchedAt[index] = time.Now()
	e.metrics.dispatched()

	if err := w.Send(task); err != nil {
		return fmt.Errorf("sending frame %d to worker %s: %w", index, w.ID(), err)
	}
	return nil
}

// deliver is the pool's completion callback. It runs on worker goroutines
// and only forwards the result to the session loop.
func (e *Encoder) deliver(w Worker, res TaskResult) {
	s := e.current.Load()
	if s == nil {
		e.metrics.discarded()
		return
	}

	select {
	case s.inbox <- completion{worker: w, result: res}:
	case <-s.done:
		e.metrics.discarded()
	}
}

// run handles the session's completions one at a time until it ends.
func (e *Encoder) run(s *session) {
	for {
		select {
		case c := <-s.inbox:
			e.handle(s, c)
		case <-s.done:
			return
		}
	}
}

func (e *Encoder) handle(s *session, c completion) {
	e.mu.Lock()

	if e.sess != s || e.state != StateRunning || !e.pool.Release(c.worker) {
		e.mu.Unlock()
		e.logger.Trace("🗑️ Discarding result", "frame", c.result.Index, "worker", c.worker.ID())
		e.metrics.discarded()
		return
	}

	res := c.result
	if res.Err != nil {
		e.failLocked(s, fmt.Errorf("frame %d: %w: %w", res.Index, gwerrors.ErrWorkerFailed, res.Err))
		return
	}
	if res.Index < 0 || res.Index >= len(s.results) || s.results[res.Index] != nil {
		e.failLocked(s, fmt.Errorf("%w: unexpected result for frame %d", gwerrors.ErrWorkerFailed, res.Index))
		return
	}

	s.results[res.Index] = &res
	s.finished++
	e.metrics.completed(s.dispatchedAt[res.Index])

	events := []Event{{
		Kind:     EventProgress,
		Session:  s.id,
		Progress: float64(s.finished) / float64(len(s.results)),
	}}
	e.logger.Debug("✅ Frame finished", "frame", res.Index, "active", e.pool.Stats().Active)

	var err error
	if res.Index == s.paletteFrame {
		e.paletteAnalysed = true
		if len(res.Palette) > 0 {
			e.opts.Palette = Resolve(res.Palette)
			e.logger.Debug("🎨 Shared palette analyzed", "colors", len(res.Palette))
		} else {
			e.opts.Palette = SharedPalette{}
			e.logger.Warn("⚠️ Palette frame reported no palette, using local palettes", "session", s.id)
		}

		// With two frames or fewer the one left goes out through the
		// regular path below. The pool may hold workers from a larger
		// earlier cap; only Workers tasks run at once.
		if len(e.frames) > 2 {
			extra := min(e.pool.FreeCount(), e.opts.Workers) - 1
			for i := 0; i < extra && err == nil; i++ {
				err = e.dispatchNext(s)
			}
		}
	}
	if err == nil && s.finished < len(s.results) {
		err = e.dispatchNext(s)
	}
	if err != nil {
		e.failLocked(s, err)
		return
	}

	if s.finished < len(s.results) {
		e.mu.Unlock()
		e.emitCurrent(s, events)
		return
	}

	data, err := Assemble(s.results)
	if err != nil {
		e.failLocked(s, err)
		return
	}

	e.state = StateFinished
	e.current.Store(nil)
	e.metrics.session("finished")
	e.logger.Info("🏁 Rendering finished", "session", s.id, "filesize", fmt.Sprintf("%dkb", (len(data)+500)/1000))
	e.mu.Unlock()

	events = append(events, Event{Kind: EventFinished, Session: s.id, Data: data, Len: len(data)})
	e.emit(events)
	s.end(data, nil)
}

// failLocked aborts the session because of err. It releases e.mu.
func (e *Encoder) failLocked(s *session, err error) {
	e.logger.Error("❌ Render aborted", "session", s.id, "error", err)
	e.abortLocked(err)
	e.mu.Unlock()

	e.events.Emit(Event{Kind: EventAborted, Session: s.id})
	s.end(nil, err)
}

func (e *Encoder) emit(events []Event) {
	for _, ev := range events {
		e.events.Emit(ev)
	}
}

// emitCurrent emits events while s is still the running session. Once an
// abort has ended s, its remaining events are dropped so none follow the
// aborted event.
func (e *Encoder) emitCurrent(s *session, events []Event) {
	for _, ev := range events {
		if e.current.Load() != s {
			e.logger.Trace("🗑️ Dropping stale event", "event", ev.Kind, "session", s.id)
			return
		}
		e.events.Emit(ev)
	}
}
