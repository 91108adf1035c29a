// Package workerpool sizes and runs the CPU-bound compute pool that backs
// dimensionality reduction and density clustering (spec.md §5: "sized to
// the number of physical cores, not logical ones, since UMAP/HDBSCAN-style
// work saturates a core per goroutine"). Physical-core detection is
// grounded on the teacher's internal/monitoring/resource_monitor.go, which
// already wires github.com/shirou/gopsutil/v3/cpu for system-level
// resource reporting; this package calls the sibling cpu.Counts API
// instead of cpu.Percent.
package workerpool

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

// PhysicalCoreCount returns the number of physical CPU cores, falling back
// to 1 if detection fails (e.g. inside a restricted container).
func PhysicalCoreCount() int {
	counts, err := cpu.Counts(false)
	if err != nil || counts < 1 {
		return 1
	}
	return counts
}

// Pool runs a bounded number of concurrent CPU-bound jobs.
type Pool struct {
	sem chan struct{}
}

// New constructs a Pool sized to size (at least 1).
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// NewPhysicalCorePool constructs a Pool sized to the machine's physical
// core count.
func NewPhysicalCorePool() *Pool {
	return New(PhysicalCoreCount())
}

// Submit runs fn, blocking until a slot is free or ctx is cancelled. The
// returned error is ctx.Err() if cancellation happened before fn started,
// or fn's own error otherwise.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn(ctx)
}

// Run executes jobs concurrently across the pool and returns all errors in
// job order (nil entries for jobs that succeeded). It blocks until every
// job has returned or ctx is cancelled.
func (p *Pool) Run(ctx context.Context, jobs []func(context.Context) error) []error {
	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job func(context.Context) error) {
			defer wg.Done()
			errs[i] = p.Submit(ctx, job)
		}(i, job)
	}
	wg.Wait()
	return errs
}
