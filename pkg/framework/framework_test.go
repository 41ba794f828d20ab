package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())

	err1, err2 := errors.New("err1"), errors.New("err2")
	errs.Add(err1)
	require.Equal(t, "err1", errs.Aggregate().Error())

	var nested AggregatedError
	nested.Add(err2)
	errs.Add(&nested)
	require.Equal(t, []error{err1, err2}, errs.Errors)
	require.Equal(t, "Multiple errors:\nerr1\nerr2", errs.Error())
}

func TestRunnerWait(t *testing.T) {
	failure := errors.New("failure")
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(
		NamedRun("fails", RunFunc(func(context.Context) error { return failure })),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	select {
	case err := <-r.Failed():
		require.Equal(t, failure, err)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	cancel()
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, []error{failure}, err.(*AggregatedError).Errors)
}

func TestRunWithContextCloser(t *testing.T) {
	var closed int32
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closer := closerFunc(func() error {
		if atomic.AddInt32(&closed, 1) == 1 {
			close(unblock)
		}
		return nil
	})
	go cancel()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))

	err = RunWithContextCloser(context.Background(), closer, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&closed))
}

func TestLoopControllers(t *testing.T) {
	var order []int
	iterCh := make(chan struct{}, 1)
	l := NewLoop()
	l.Interval = time.Hour
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		select {
		case iterCh <- struct{}{}:
		default:
		}
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		return errors.New("ignored")
	}))
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		LoopCtlFrom(ctx).TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case <-iterCh:
	case <-time.After(time.Second):
		t.Fatal("iteration timeout")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, []int{PrLvControl, PrLvPostProc}, order[:2])
}

func TestLoopStopsOnRunnerFailure(t *testing.T) {
	failure := errors.New("port closed")
	l := NewLoop()
	l.AddRunnable(RunFunc(func(context.Context) error { return failure }))
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	err := l.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, []error{failure}, err.(*AggregatedError).Errors)
}
