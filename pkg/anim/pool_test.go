package anim

import (
	"errors"
	"testing"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_EnsureCapacity(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		frames int
		want   int
	}{
		{name: "fewer frames than workers", size: 4, frames: 2, want: 2},
		{name: "more frames than workers", size: 2, frames: 9, want: 2},
		{name: "equal", size: 3, frames: 3, want: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFarm()
			p := NewPool(f.factory, tc.size, func(Worker, TaskResult) {}, testLogger(), nil)

			n, err := p.EnsureCapacity(tc.frames)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
			assert.Equal(t, tc.want, p.FreeCount())

			n, err = p.EnsureCapacity(tc.frames)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
			assert.Equal(t, tc.want, f.spawned(), "existing workers are reused")
		})
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	f := newFarm()
	p := NewPool(f.factory, 2, func(Worker, TaskResult) {}, testLogger(), nil)
	_, err := p.EnsureCapacity(2)
	require.NoError(t, err)

	a, err := p.AcquireFree()
	require.NoError(t, err)
	b, err := p.AcquireFree()
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, err = p.AcquireFree()
	assert.True(t, errors.Is(err, gwerrors.ErrPoolExhausted))
	assert.Equal(t, PoolStats{Free: 0, Active: 2, Spawned: 2}, p.Stats())

	assert.True(t, p.Release(b))
	assert.False(t, p.Release(b), "already free")

	c, err := p.AcquireFree()
	require.NoError(t, err)
	assert.Same(t, b, c)
}

func TestPool_TerminateAll(t *testing.T) {
	f := newFarm()
	p := NewPool(f.factory, 3, func(Worker, TaskResult) {}, testLogger(), nil)
	_, err := p.EnsureCapacity(3)
	require.NoError(t, err)

	w, err := p.AcquireFree()
	require.NoError(t, err)

	p.TerminateAll()
	assert.Equal(t, 3, f.terminated())
	assert.False(t, p.Release(w), "terminated workers are not released")
	assert.Equal(t, PoolStats{Spawned: 3}, p.Stats())

	n, err := p.EnsureCapacity(2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, f.spawned())
}

func TestPool_RoutesResults(t *testing.T) {
	f := newFarm()

	var got []int
	var from []Worker
	p := NewPool(f.factory, 1, func(w Worker, res TaskResult) {
		got = append(got, res.Index)
		from = append(from, w)
	}, testLogger(), nil)
	_, err := p.EnsureCapacity(1)
	require.NoError(t, err)

	w, err := p.AcquireFree()
	require.NoError(t, err)
	require.NoError(t, w.Send(Task{Index: 7}))
	f.next(t).complete()

	assert.Equal(t, []int{7}, got)
	assert.Same(t, w, from[0])
}

func TestPool_SetSizeTerminatesSurplus(t *testing.T) {
	f := newFarm()
	p := NewPool(f.factory, 4, func(Worker, TaskResult) {}, testLogger(), nil)
	_, err := p.EnsureCapacity(4)
	require.NoError(t, err)

	busy, err := p.AcquireFree()
	require.NoError(t, err)

	p.SetSize(2)
	assert.Equal(t, PoolStats{Free: 1, Active: 1, Spawned: 4}, p.Stats())
	assert.Equal(t, 2, f.terminated())
	assert.False(t, busy.(*fakeWorker).terminated.Load(), "active workers are kept")

	n, err := p.EnsureCapacity(8)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, f.spawned(), "nothing respawned under the cap")

	p.SetSize(3)
	assert.Equal(t, 2, f.terminated(), "growing kills nothing")
}
