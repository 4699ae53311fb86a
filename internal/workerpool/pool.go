// Package workerpool provides a fixed-size pool of long-lived workers.
//
// A Pool is created and owned by the caller: Start launches the workers,
// Stop drains them. The pool size is the upper bound on tasks running at once.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrPoolStopped is returned by Run when the pool is not accepting work.
var ErrPoolStopped = errors.New("worker pool is not running")

// Task is a unit of work. The context is the one passed to Run.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
	done func()
}

// Pool runs tasks on a fixed number of workers.
type Pool struct {
	size  int
	jobs  chan job
	group errgroup.Group
	log   zerolog.Logger
	mu    sync.RWMutex
	state state
}

type state int

const (
	stateNew state = iota
	stateRunning
	stateStopped
)

// New creates a pool with size workers. Sizes below one are raised to one.
func New(size int, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size: size,
		jobs: make(chan job),
		log:  log.With().Str("component", "workerpool").Logger(),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start launches the workers. Calling Start more than once has no effect.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateNew {
		return
	}
	p.state = stateRunning

	for i := 0; i < p.size; i++ {
		id := i
		p.group.Go(func() error {
			p.work(id)
			return nil
		})
	}

	p.log.Info().Int("workers", p.size).Msg("Worker pool started")
}

// Stop stops accepting work and waits for running tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.state != stateRunning {
		p.state = stateStopped
		p.mu.Unlock()
		return
	}
	p.state = stateStopped
	close(p.jobs)
	p.mu.Unlock()

	_ = p.group.Wait()
	p.log.Info().Msg("Worker pool stopped")
}

// Run submits every task and blocks until all of them have finished or ctx is done.
//
// When ctx is done Run returns ctx.Err() right away. Tasks not yet started are
// dropped; tasks already running see the cancelled context and finish in the
// background.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != stateRunning {
		return ErrPoolStopped
	}

	var wg sync.WaitGroup
	finished := make(chan struct{})

submit:
	for _, task := range tasks {
		wg.Add(1)
		select {
		case p.jobs <- job{ctx: ctx, task: task, done: wg.Done}:
		case <-ctx.Done():
			wg.Done()
			break submit
		}
	}

	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work(id int) {
	for j := range p.jobs {
		p.execute(id, j)
	}
}

func (p *Pool) execute(id int, j job) {
	defer j.done()

	// Queued behind a cancelled batch; drop it.
	if j.ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Int("worker", id).
				Str("panic", fmt.Sprint(r)).
				Msg("Task panicked")
		}
	}()

	j.task(j.ctx)
}
