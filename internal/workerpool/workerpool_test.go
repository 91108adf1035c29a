package workerpool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicalCoreCountAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, PhysicalCoreCount(), 1)
}

func TestPoolRunAllJobsComplete(t *testing.T) {
	p := New(2)
	var counter int64
	jobs := make([]func(context.Context) error, 10)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			atomic.AddInt64(&counter, 1)
			return nil
		}
	}
	errs := p.Run(context.Background(), jobs)
	require.Len(t, errs, 10)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(10), counter)
}

func TestPoolRunPreservesPerJobErrors(t *testing.T) {
	p := New(4)
	jobs := []func(context.Context) error{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return assertErr },
	}
	errs := p.Run(context.Background(), jobs)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.Equal(t, assertErr, errs[1])
}

var assertErr = &testErr{"boom"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func TestPoolSubmitRespectsCancellation(t *testing.T) {
	p := New(1)
	// Occupy the only slot so the next Submit must block on ctx.Done().
	p.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Submit(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
