package led_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/led/fake"
)

func expectedCalls(w, r, g, b uint8) []fake.Call {
	duty := []uint8{w, r, g, b}
	calls := make([]fake.Call, 0, 2*led.NumChannels)
	for _, ch := range led.Channels {
		calls = append(calls, fake.SetChannel(ch, duty[ch]))
	}
	for _, ch := range led.Channels {
		calls = append(calls, fake.SetPinEnabled(ch, duty[ch] != 0))
	}
	return calls
}

func TestDisplayShow(t *testing.T) {
	testCases := []struct {
		name  string
		state led.State
		calls []fake.Call
	}{
		{
			name:  "all off",
			state: led.State{},
			calls: expectedCalls(0, 0, 0, 0),
		},
		{
			name:  "all on",
			state: led.State{White: 255, Red: 1, Green: 128, Blue: 64},
			calls: expectedCalls(255, 1, 128, 64),
		},
		{
			name:  "mixed",
			state: led.State{White: 0, Red: 10, Green: 0, Blue: 200},
			calls: expectedCalls(0, 10, 0, 200),
		},
		{
			name:  "aliased",
			state: led.State{White: 256, Red: 300, Green: -1, Blue: 512},
			calls: expectedCalls(0, 44, 255, 0),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			drv := &fake.Driver{}
			d := led.NewDisplay(drv)
			require.NoError(t, d.ShowState(tc.state))
			require.Equal(t, tc.state, d.State())
			require.Equal(t, tc.calls, drv.Calls())
			for _, ch := range led.Channels {
				require.Equal(t, led.Duty(tc.state.Get(ch)), drv.Duty(ch))
				require.Equal(t, led.Duty(tc.state.Get(ch)) != 0, drv.Enabled(ch))
			}
		})
	}
}

func TestDisplayTogglesPinsEveryCall(t *testing.T) {
	drv := &fake.Driver{}
	d := led.NewDisplay(drv)
	require.NoError(t, d.Show(0, 0, 0, 0))
	drv.Calls()
	require.NoError(t, d.Show(0, 0, 0, 0))
	require.Equal(t, expectedCalls(0, 0, 0, 0), drv.Calls())
	require.NoError(t, d.Show(5, 5, 5, 5))
	require.Equal(t, expectedCalls(5, 5, 5, 5), drv.Calls())
	require.NoError(t, d.Show(5, 5, 5, 5))
	require.Equal(t, expectedCalls(5, 5, 5, 5), drv.Calls())
}

func TestDisplayListeners(t *testing.T) {
	drv := &fake.Driver{}
	d := led.NewDisplay(drv)
	var got []led.State
	d.Subscribe(func(s led.State) { got = append(got, s) })
	require.NoError(t, d.Show(1, 2, 3, 4))

	drv.Err = errors.New("pin busy")
	err := d.Show(5, 6, 7, 8)
	require.Error(t, err)
	require.True(t, errors.Is(err, drv.Err))
	require.Equal(t, []led.State{{White: 1, Red: 2, Green: 3, Blue: 4}}, got)
}

func TestDisplayNotifiesInPushOrder(t *testing.T) {
	d := led.NewDisplay(&fake.Driver{})
	blocked, release := make(chan struct{}), make(chan struct{})
	var lock sync.Mutex
	var last led.State
	d.Subscribe(func(s led.State) {
		if s.White == 1 {
			close(blocked)
			<-release
		}
		lock.Lock()
		last = s
		lock.Unlock()
	})

	errCh := make(chan error, 2)
	go func() { errCh <- d.Show(1, 1, 1, 1) }()
	<-blocked
	go func() { errCh <- d.Show(2, 2, 2, 2) }()
	require.Eventually(t, func() bool {
		return d.State() == led.State{White: 2, Red: 2, Green: 2, Blue: 2}
	}, 5*time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-errCh)
	require.NoError(t, <-errCh)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, d.State(), last)
}

func TestDisplayAtomicShow(t *testing.T) {
	drv := &fake.Driver{}
	d := led.NewDisplay(drv)
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			require.NoError(t, d.Show(v, v, v, v))
		}(i)
	}
	wg.Wait()
	calls := drv.Calls()
	require.Len(t, calls, 8*2*led.NumChannels)
	for n := 0; n < len(calls); n += 2 * led.NumChannels {
		duty := calls[n].Duty
		require.Equal(t, expectedCalls(duty, duty, duty, duty), calls[n:n+2*led.NumChannels])
	}
}

func TestChannelNames(t *testing.T) {
	for _, ch := range led.Channels {
		parsed, err := led.ParseChannel(ch.String())
		require.NoError(t, err)
		require.Equal(t, ch, parsed)
	}
	_, err := led.ParseChannel("amber")
	require.Error(t, err)
	require.Equal(t, "1,2,3,4", led.State{White: 1, Red: 2, Green: 3, Blue: 4}.String())
}
