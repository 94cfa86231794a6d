package sim

import (
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// ApplyFunction consumes one scheduled event.
type ApplyFunction = func(t *tomb.Tomb, event Event) error

// workerPool fans events out to a fixed set of appliers running under
// the caller's tomb. Draining stops when the task channel is closed or
// the tomb starts dying.
type workerPool struct {
	n     int
	tasks chan Event
	wg    sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	return &workerPool{
		n:     size,
		tasks: make(chan Event, taskChanSize),
	}
}

// Setup starts the full set of workers. Returns once they are running;
// worker lifetimes are owned by the tomb.
func (pool *workerPool) Setup(t *tomb.Tomb, apply ApplyFunction) {
	pool.wg.Add(pool.n)
	for id := 0; id < pool.n; id++ {
		id := id
		t.Go(func() error {
			defer pool.wg.Done()
			return pool.worker(t, id, apply)
		})
	}
}

// Wait blocks until every worker has drained and exited.
func (pool *workerPool) Wait() {
	pool.wg.Wait()
}

// AddTask schedules an event, giving up if the pool is shutting down.
func (pool *workerPool) AddTask(t *tomb.Tomb, event Event) bool {
	select {
	case <-t.Dying():
		return false
	case pool.tasks <- event:
		return true
	}
}

// Close signals the workers to drain and exit.
func (pool *workerPool) Close() {
	close(pool.tasks)
}

// Workers wait on scheduled events and apply them to the book.
func (pool *workerPool) worker(t *tomb.Tomb, id int, apply ApplyFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case event, ok := <-pool.tasks:
			if !ok {
				return nil
			}
			if err := apply(t, event); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
