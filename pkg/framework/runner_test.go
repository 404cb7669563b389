package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitCanceled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerFirstErrorCancels(t *testing.T) {
	failure := errors.New("serial port closed")
	r := NewRunner().Go(
		RunFunc(waitCanceled),
		NamedRun("link", RunFunc(func(context.Context) error { return failure })),
		RunFunc(waitCanceled),
	)
	done := make(chan error, 1)
	go func() { done <- r.Wait() }()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, failure))
		require.EqualError(t, err, "link: serial port closed")
	case <-time.After(time.Second):
		t.Fatal("runner didn't stop")
	}
}

func TestRunnerAggregates(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	release := make(chan struct{})
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { <-release; return errA }),
		RunFunc(func(context.Context) error { <-release; return errB }),
		RunFunc(func(context.Context) error { return nil }),
	)
	close(release)
	err := r.Wait()
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Errors, 2)
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
}

func TestRunnerCancel(t *testing.T) {
	r := NewRunner().Go(RunFunc(waitCanceled), RunFunc(waitCanceled))
	r.Cancel()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	single := errors.New("single")
	errs.Add(nil, single)
	require.Equal(t, single, errs.Aggregate())
	errs.Add(errors.New("other"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\n  single\n  other")
	require.False(t, errors.Is(&errs, context.Canceled))
}
