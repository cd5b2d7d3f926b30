package worker

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

type Func = func(t *tomb.Tomb, task any) error

// Pool is a fixed-size pool of workers draining a shared task channel. The
// workers run under the caller's tomb and exit when it starts dying.
type Pool struct {
	n     int      // number of workers
	tasks chan any // pending tasks
}

func NewPool(size int) Pool {
	return Pool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// Run starts the workers. Each worker loops on the task channel until the
// tomb dies; a worker that returns an error takes the tomb down with it.
func (pool *Pool) Run(t *tomb.Tomb, work Func) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.worker(t, work)
		})
	}
}

func (pool *Pool) worker(t *tomb.Tomb, work Func) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}

// AddTask queues a task for the next free worker.
func (pool *Pool) AddTask(task any) {
	pool.tasks <- task
}
