package app

import "sync"

// Task is a unit of work marshalled to the consumer's goroutine.
type Task func()

// Dispatcher is a FIFO task queue. Enqueue may be called from any goroutine;
// DrainOnce is called once per consumer tick from the consumer's goroutine.
type Dispatcher struct {
	mu    sync.Mutex
	tasks []Task
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{tasks: make([]Task, 0, 64)}
}

// Enqueue appends a task. Nil tasks are ignored.
func (d *Dispatcher) Enqueue(t Task) {
	if t == nil {
		return
	}
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

// DrainOnce runs every task queued before the call, in FIFO order, and returns
// how many ran. Tasks enqueued while draining run on the next call.
func (d *Dispatcher) DrainOnce() int {
	d.mu.Lock()
	batch := d.tasks
	d.tasks = make([]Task, 0, cap(batch))
	d.mu.Unlock()

	for i, t := range batch {
		batch[i] = nil
		t()
	}
	return len(batch)
}

// Pending returns the number of queued tasks.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}
