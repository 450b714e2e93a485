package countdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type callbacks struct {
	mu    sync.Mutex
	ticks []int
	done  int
}

func (c *callbacks) onTick(remaining int) {
	c.mu.Lock()
	c.ticks = append(c.ticks, remaining)
	c.mu.Unlock()
}

func (c *callbacks) onDone() {
	c.mu.Lock()
	c.done++
	c.mu.Unlock()
}

func (c *callbacks) lastTick() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ticks) == 0 {
		return 0, false
	}
	return c.ticks[len(c.ticks)-1], true
}

func (c *callbacks) doneCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *callbacks) tickCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ticks)
}

const waitFor = 2 * time.Second

func newService(t *testing.T, backend string, clock *fakeClock) Service {
	t.Helper()
	svc, err := New(backend, WithTick(time.Millisecond), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

var backends = []string{BackendWorker, BackendInterval}

func TestCountdown_TicksAndDone(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)
			cb := &callbacks{}

			svc.Start(3, cb.onTick, cb.onDone)

			require.Eventually(t, func() bool {
				v, ok := cb.lastTick()
				return ok && v == 3
			}, waitFor, time.Millisecond)

			clock.Advance(1500 * time.Millisecond)
			require.Eventually(t, func() bool {
				v, _ := cb.lastTick()
				return v == 2
			}, waitFor, time.Millisecond)
			require.Equal(t, 0, cb.doneCount())

			clock.Advance(2 * time.Second)
			require.Eventually(t, func() bool { return cb.doneCount() == 1 }, waitFor, time.Millisecond)
			v, _ := cb.lastTick()
			require.Equal(t, 0, v)

			time.Sleep(20 * time.Millisecond)
			require.Equal(t, 1, cb.doneCount(), "done must fire exactly once")
		})
	}
}

func TestCountdown_NonPositiveDuration(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)

			for _, d := range []int{0, -5} {
				cb := &callbacks{}
				svc.Start(d, cb.onTick, cb.onDone)
				require.Eventually(t, func() bool { return cb.doneCount() == 1 }, waitFor, time.Millisecond)
				v, ok := cb.lastTick()
				require.True(t, ok)
				require.Equal(t, 0, v)
			}
		})
	}
}

func TestCountdown_StopPreventsCallbacks(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)
			cb := &callbacks{}

			stop := svc.Start(5, cb.onTick, cb.onDone)
			require.Eventually(t, func() bool { return cb.tickCount() > 0 }, waitFor, time.Millisecond)

			stop()
			stop() // idempotent
			time.Sleep(10 * time.Millisecond) // let an in-flight tick finish
			n := cb.tickCount()

			clock.Advance(10 * time.Second)
			time.Sleep(20 * time.Millisecond)

			require.Equal(t, n, cb.tickCount())
			require.Equal(t, 0, cb.doneCount())
		})
	}
}

func TestCountdown_StopWhileTickInFlight(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)

			entered := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			cb := &callbacks{}
			stop := svc.Start(5, func(remaining int) {
				cb.onTick(remaining)
				once.Do(func() {
					close(entered)
					<-release
				})
			}, cb.onDone)

			<-entered
			stopped := make(chan struct{})
			go func() {
				stop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(waitFor):
				t.Fatal("stop blocked on a running callback")
			}
			close(release)

			clock.Advance(10 * time.Second)
			time.Sleep(20 * time.Millisecond)
			require.Equal(t, 1, cb.tickCount(), "no tick after the in-flight one")
			require.Equal(t, 0, cb.doneCount())
		})
	}
}

func TestCountdown_StartUntilKeepsEndTime(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)
			cb := &callbacks{}

			svc.StartUntil(clock.Now().Add(2300*time.Millisecond), cb.onTick, cb.onDone)
			require.Eventually(t, func() bool {
				v, ok := cb.lastTick()
				return ok && v == 3
			}, waitFor, time.Millisecond)

			clock.Advance(2200 * time.Millisecond)
			require.Eventually(t, func() bool {
				v, _ := cb.lastTick()
				return v == 1
			}, waitFor, time.Millisecond)
			require.Equal(t, 0, cb.doneCount())

			clock.Advance(100 * time.Millisecond)
			require.Eventually(t, func() bool { return cb.doneCount() == 1 }, waitFor, time.Millisecond)
		})
	}
}

func TestCountdown_StopFromCallback(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)

			var (
				mu    sync.Mutex
				stop  StopFunc
				ticks int
			)
			mu.Lock()
			stop = svc.Start(5, func(int) {
				mu.Lock()
				ticks++
				s := stop
				mu.Unlock()
				if s != nil {
					s()
				}
			}, func() {
				t.Error("done fired after stop")
			})
			mu.Unlock()

			clock.Advance(10 * time.Second)
			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			require.LessOrEqual(t, ticks, 2)
			require.GreaterOrEqual(t, ticks, 1)
		})
	}
}

func TestCountdown_StartFromDoneCallback(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc := newService(t, backend, clock)
			second := &callbacks{}

			svc.Start(0, nil, func() {
				svc.Start(0, second.onTick, second.onDone)
			})

			require.Eventually(t, func() bool { return second.doneCount() == 1 }, waitFor, time.Millisecond)
		})
	}
}

func TestCountdown_StartAfterClose(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			clock := newFakeClock()
			svc, err := New(backend, WithTick(time.Millisecond), WithClock(clock.Now))
			require.NoError(t, err)
			require.NoError(t, svc.Close())

			cb := &callbacks{}
			stop := svc.Start(0, cb.onTick, cb.onDone)
			stop()
			time.Sleep(10 * time.Millisecond)
			require.Equal(t, 0, cb.tickCount())
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("webworker")
	require.Error(t, err)
}

func TestRemainingSeconds(t *testing.T) {
	end := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"exact minute", end.Add(-60 * time.Second), 60},
		{"partial second rounds up", end.Add(-59*time.Second - time.Millisecond), 60},
		{"just under one second", end.Add(-time.Millisecond), 1},
		{"at end", end, 0},
		{"past end", end.Add(time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingSeconds(end, tt.now); got != tt.want {
				t.Errorf("RemainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStopwatch(t *testing.T) {
	clock := newFakeClock()
	sw := NewStopwatch(WithClock(clock.Now))

	require.Equal(t, time.Duration(0), sw.Elapsed())
	require.False(t, sw.Running())

	sw.Start()
	clock.Advance(3 * time.Second)
	require.Equal(t, 3*time.Second, sw.Elapsed())

	sw.Pause()
	clock.Advance(10 * time.Second)
	require.Equal(t, 3*time.Second, sw.Elapsed())

	sw.Start()
	sw.Start() // no-op while running
	clock.Advance(2 * time.Second)
	require.Equal(t, 5*time.Second, sw.Elapsed())
	require.True(t, sw.Running())

	sw.Reset()
	require.Equal(t, time.Duration(0), sw.Elapsed())
	require.False(t, sw.Running())
}
