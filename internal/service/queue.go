package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("classification queue full")

type classifyJob struct {
	ctx   context.Context
	image []byte
	done  chan classifyResult
}

type classifyResult struct {
	p   Prediction
	err error
}

// ClassifyQueue runs classifications on a fixed number of workers so the
// model is never oversubscribed
type ClassifyQueue struct {
	c       Classifier
	jobs    chan *classifyJob
	running atomic.Int32
	// Jobs that may be accepted at once, running or waiting
	capacity int32
	workers  int
	once     sync.Once
}

// NewClassifyQueue creates a queue that runs workers jobs at a time and
// holds at most maxJobs more waiting
func NewClassifyQueue(c Classifier, workers, maxJobs int) *ClassifyQueue {
	if workers <= 0 {
		workers = 1
	}

	if maxJobs < 0 {
		maxJobs = 0
	}

	zap.L().Debug("Initializing classify queue", zap.Int("workers", workers), zap.Int("max_jobs", maxJobs))

	return &ClassifyQueue{
		c:        c,
		jobs:     make(chan *classifyJob, workers+maxJobs),
		capacity: int32(workers + maxJobs),
		workers:  workers,
	}
}

func (q *ClassifyQueue) StartWorkerPool() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			go q.worker()
		}
	})
}

func (q *ClassifyQueue) worker() {
	for job := range q.jobs {
		p, err := q.c.Classify(job.ctx, job.image)

		// Free the slot before the caller sees the result
		q.running.Add(-1)

		job.done <- classifyResult{p, err}
		close(job.done)

		if err != nil {
			zap.L().Error("Classification finished with an error", zap.Error(err))
		} else {
			zap.L().Debug("Classification finished", zap.String("label", p.Label), zap.Float64("confidence", p.Confidence))
		}
	}
}

// Classify enqueues image and waits for the result. Once a job is accepted
// it runs to completion even if ctx is cancelled
func (q *ClassifyQueue) Classify(ctx context.Context, image []byte) (Prediction, error) {
	job := &classifyJob{
		ctx:   context.WithoutCancel(ctx),
		image: image,
		done:  make(chan classifyResult, 1),
	}

	n := q.running.Add(1)
	if n > q.capacity {
		q.running.Add(-1)
		return Prediction{}, ErrQueueFull
	}

	// Never blocks, the buffer holds every accepted job
	q.jobs <- job
	zap.L().Debug("New classify job enqueued", zap.Int32("enqueued", n))

	r := <-job.done
	return r.p, r.err
}

// Running returns the number of accepted jobs that haven't finished
func (q *ClassifyQueue) Running() int {
	return int(q.running.Load())
}
