package anim

// Worker encodes one task at a time outside the scheduler's goroutine.
//
// Lifecycle: OnResult → Start → Send (repeatedly, one task in flight) →
// Terminate. After Terminate a worker must not invoke its result callback.
// The scheduler makes no assumption about what runs the work: a goroutine,
// a child process or anything else that honours this contract.
type Worker interface {
	ID() string
	Start() error
	// Send hands over a task and returns without waiting for the result.
	Send(task Task) error
	// OnResult registers the completion callback. It may be called from any
	// goroutine.
	OnResult(fn func(TaskResult))
	Terminate()
}

// WorkerFactory creates a worker with the given id.
type WorkerFactory func(id string) (Worker, error)
