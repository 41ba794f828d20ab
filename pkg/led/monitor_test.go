package led_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/ledctl.go/pkg/framework"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/led/fake"
)

func TestMonitorReportsLatest(t *testing.T) {
	d := led.NewDisplay(&fake.Driver{})
	m := led.NewMonitor(d)
	var reported []led.State
	m.Report = func(s led.State) { reported = append(reported, s) }

	require.NoError(t, m.Control(nil))
	require.Empty(t, reported)

	require.NoError(t, d.Show(1, 2, 3, 4))
	require.NoError(t, d.Show(5, 6, 7, 8))
	require.NoError(t, m.Control(nil))
	require.Equal(t, []led.State{{White: 5, Red: 6, Green: 7, Blue: 8}}, reported)

	require.NoError(t, m.Control(nil))
	require.Len(t, reported, 1)
}

func TestMonitorInLoop(t *testing.T) {
	d := led.NewDisplay(&fake.Driver{})
	m := led.NewMonitor(d)
	reportCh := make(chan led.State, 1)
	var once sync.Once
	m.Report = func(s led.State) {
		once.Do(func() { reportCh <- s })
	}

	loop := fx.NewLoop()
	loop.Interval = time.Hour
	loop.Add(m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()

	require.NoError(t, d.Show(9, 9, 9, 9))
	select {
	case s := <-reportCh:
		require.Equal(t, led.State{White: 9, Red: 9, Green: 9, Blue: 9}, s)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "state not reported")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
