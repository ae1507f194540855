package anim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// PoolStats is a snapshot of pool occupancy.
type PoolStats struct {
	Free    int
	Active  int
	Spawned int // workers created over the pool's lifetime
}

// Pool owns the encoder's workers and tracks which are free and which are
// running a task. Workers are created lazily, never more than the
// configured size and never more than the session can use.
type Pool struct {
	mu      sync.Mutex
	factory WorkerFactory
	size    int
	free    []Worker
	active  []Worker
	spawned int

	onResult func(Worker, TaskResult)
	logger   hclog.Logger
	metrics  *Metrics
}

// NewPool creates an empty pool. onResult receives every completion along
// with the worker that produced it.
func NewPool(factory WorkerFactory, size int, onResult func(Worker, TaskResult), logger hclog.Logger, metrics *Metrics) *Pool {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pool{
		factory:  factory,
		size:     size,
		onResult: onResult,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetSize changes the pool cap. Free workers above the new cap are
// terminated; active ones are kept until they are released.
func (p *Pool) SetSize(size int) {
	p.mu.Lock()
	p.size = size
	var surplus []Worker
	if over := len(p.free) + len(p.active) - max(size, 0); over > 0 {
		cut := max(len(p.free)-over, 0)
		surplus = slices.Clone(p.free[cut:])
		p.free = p.free[:cut]
	}
	p.metrics.poolOccupancy(len(p.free), len(p.active))
	p.mu.Unlock()

	for _, w := range surplus {
		p.logger.Debug("🔪 Killing surplus worker", "id", w.ID(), "size", size)
		w.Terminate()
	}
}

// EnsureCapacity spawns workers until min(n, size) exist and returns that
// number, which is how many tasks may be in flight at once for n frames.
func (p *Pool) EnsureCapacity(n int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := min(n, p.size)
	for have := len(p.free) + len(p.active); have < want; have++ {
		id := uuid.NewString()
		p.logger.Debug("👷 Spawning worker", "worker", have, "id", id)

		w, err := p.factory(id)
		if err != nil {
			return len(p.free) + len(p.active), fmt.Errorf("creating worker %d: %w", have, err)
		}
		w.OnResult(func(res TaskResult) {
			p.onResult(w, res)
		})
		if err := w.Start(); err != nil {
			w.Terminate()
			return len(p.free) + len(p.active), fmt.Errorf("starting worker %d: %w", have, err)
		}

		p.free = append(p.free, w)
		p.spawned++
		p.metrics.workerSpawned()
	}
	p.metrics.poolOccupancy(len(p.free), len(p.active))

	return max(want, 0), nil
}

// AcquireFree moves the longest-idle free worker to the active set.
func (p *Pool) AcquireFree() (Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, gwerrors.ErrPoolExhausted
	}

	w := p.free[0]
	p.free = p.free[1:]
	p.active = append(p.active, w)
	p.metrics.poolOccupancy(len(p.free), len(p.active))

	return w, nil
}

// Release moves an active worker back to the free set. It reports false
// for workers the pool does not consider active, such as terminated ones.
func (p *Pool) Release(w Worker) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.Index(p.active, w)
	if i < 0 {
		return false
	}

	p.active = slices.Delete(p.active, i, i+1)
	p.free = append(p.free, w)
	p.metrics.poolOccupancy(len(p.free), len(p.active))

	return true
}

// FreeCount returns the number of idle workers.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// TerminateAll destroys every worker, active or free, and empties the pool.
func (p *Pool) TerminateAll() {
	p.mu.Lock()
	active, free := p.active, p.free
	p.active, p.free = nil, nil
	p.metrics.poolOccupancy(0, 0)
	p.mu.Unlock()

	for _, w := range active {
		p.logger.Debug("🔪 Killing active worker", "id", w.ID())
		w.Terminate()
	}
	for _, w := range free {
		p.logger.Trace("🔪 Killing free worker", "id", w.ID())
		w.Terminate()
	}
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Free:    len(p.free),
		Active:  len(p.active),
		Spawned: p.spawned,
	}
}
