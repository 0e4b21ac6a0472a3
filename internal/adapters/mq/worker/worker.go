package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/mq/queue"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Fitter evaluates one Tc candidate.
type Fitter interface {
	Fit(ctx context.Context, tc float64) (model.FitRecord, error)
}

// FitterFunc adapts a pure fit function to Fitter.
type FitterFunc func(tc float64) model.FitRecord

// Fit calls f.
func (f FitterFunc) Fit(_ context.Context, tc float64) (model.FitRecord, error) {
	return f(tc), nil
}

// Sink receives evaluated records by slot.
type Sink interface {
	Put(index int, rec model.FitRecord)
}

// Slots is a Sink backed by a preallocated table. Each index is written by
// exactly one job, so concurrent Puts need no locking.
type Slots []model.FitRecord

// Put stores rec at index.
func (s Slots) Put(index int, rec model.FitRecord) {
	s[index] = rec
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker fits the jobs it dequeues until the queue is drained.
type InMemoryWorker struct {
	queue  Queue
	fitter Fitter
	sink   Sink
	name   string
	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, fitter Fitter, sink Sink, opts ...Option) *InMemoryWorker {
	s := newSettings("worker", opts)
	return &InMemoryWorker{
		queue:  q,
		fitter: fitter,
		sink:   sink,
		name:   s.name,
		logger: s.logger.Named(s.name),
	}
}

// Run processes jobs until the queue is closed and drained, ctx is done,
// or a fit fails.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, job); err != nil {
				return err
			}
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	rec, err := w.fitter.Fit(ctx, job.Tc)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "candidate fit failed",
			logger.Int("index", job.Index),
			logger.Float64("tc", job.Tc),
			logger.Error(err),
		)
		return fmt.Errorf("fit tc=%v: %w", job.Tc, err)
	}
	w.sink.Put(job.Index, rec)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; fewer than one means one
// per CPU.
func NewPool(workerCount int, q Queue, fitter Fitter, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	s := newSettings("worker-pool", opts)

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  s.logger.Named(s.name),
	}
	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(q, fitter, sink,
			WithLogger(s.logger),
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Run starts every worker and waits for all of them. The first failure
// cancels the rest and is returned.
func (p *Pool) Run(ctx context.Context) error {
	metrics.UpdateWorkerActiveCount(len(p.workers))
	defer metrics.UpdateWorkerActiveCount(0)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error { return w.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		p.logger.Warn(ctx, "worker pool stopped early", logger.Error(err))
		return err
	}
	return nil
}

// Scan is the concurrent counterpart of tcscan.Scan. Records come back in
// candidate order and the best fit is selected exactly as the sequential
// scan selects it.
func Scan(ctx context.Context, temps, mags []float64, p tcscan.Params, workerCount, queueSize int, opts ...Option) (tcscan.Result, error) {
	if err := ctx.Err(); err != nil {
		return tcscan.Result{}, err
	}
	cands := p.Candidates()
	slots := make(Slots, len(cands))

	q := queue.NewInMemoryQueue(queue.WithCapacity(queueSize))
	fit := FitterFunc(func(tc float64) model.FitRecord {
		return tcscan.Fit(temps, mags, p.TMin, p.TMax, tc)
	})
	pool := NewPool(workerCount, q, fit, slots, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { _ = q.Close() }()
		for i, tc := range cands {
			if err := q.Push(gctx, queue.Job{Index: i, Tc: tc}); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error { return pool.Run(gctx) })
	if err := g.Wait(); err != nil {
		return tcscan.Result{}, err
	}

	records := []model.FitRecord(slots)
	return tcscan.Result{Records: records, Best: tcscan.SelectBest(records)}, nil
}
