package persist

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/storage/memory"
)

func testOptions() Options {
	return Options{
		QuietPeriod: 40 * time.Millisecond,
		SyncedHold:  60 * time.Millisecond,
		SaveTimeout: time.Second,
	}
}

// counterSnapshot encodes the current value of n, standing in for the state tree
func counterSnapshot(n *atomic.Int64) SnapshotFunc {
	return func() ([]byte, error) {
		return []byte(strconv.FormatInt(n.Load(), 10)), nil
	}
}

// blockingGateway holds every save until release is signalled
type blockingGateway struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	saves   [][]byte
	active  int
	maxSeen int
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{
		started: make(chan struct{}, 10),
		release: make(chan struct{}, 10),
	}
}

func (g *blockingGateway) Load(ctx context.Context) ([]byte, error) { return nil, nil }

func (g *blockingGateway) Save(ctx context.Context, data []byte) error {
	g.mu.Lock()
	g.active++
	if g.active > g.maxSeen {
		g.maxSeen = g.active
	}
	g.mu.Unlock()

	g.started <- struct{}{}
	<-g.release

	g.mu.Lock()
	g.active--
	g.saves = append(g.saves, data)
	g.mu.Unlock()
	return nil
}

func TestRapidTriggersCoalesceIntoOneSave(t *testing.T) {
	gw := memory.NewGateway()
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	for i := 1; i <= 5; i++ {
		n.Store(int64(i))
		s.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return gw.Saves() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testOptions().QuietPeriod)
	assert.Equal(t, 1, gw.Saves())
	assert.Equal(t, "5", string(gw.Data()))
}

func TestStatusCycle(t *testing.T) {
	gw := memory.NewGateway()
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	var mu sync.Mutex
	var seen []Status
	s.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, ev.Status)
	})

	assert.Equal(t, StatusIdle, s.Status().Status)
	s.Trigger()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []Status{StatusSyncing, StatusSynced, StatusIdle}, seen)
	mu.Unlock()
	assert.Equal(t, StatusIdle, s.Status().Status)
}

func TestErrorIsStickyUntilNextAttempt(t *testing.T) {
	gw := memory.NewGateway()
	gw.FailWith(errors.New("network down"))
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	s.Trigger()
	assert.Eventually(t, func() bool { return s.Status().Status == StatusError }, time.Second, 5*time.Millisecond)

	time.Sleep(2 * testOptions().SyncedHold)
	assert.Equal(t, StatusError, s.Status().Status)
	assert.Equal(t, "network down", s.Status().Error)
	assert.Equal(t, 0, gw.Saves())

	gw.FailWith(nil)
	s.Trigger()
	assert.Eventually(t, func() bool { return gw.Saves() == 1 }, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, StatusError, s.Status().Status)
}

func TestSavesNeverOverlapAndLatestWins(t *testing.T) {
	gw := newBlockingGateway()
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	n.Store(1)
	s.Trigger()
	<-gw.started

	// changes arriving while the first save is in flight
	n.Store(2)
	s.Trigger()
	time.Sleep(2 * testOptions().QuietPeriod)
	n.Store(3)
	s.Trigger()
	time.Sleep(2 * testOptions().QuietPeriod)

	assert.Equal(t, StatusSyncing, s.Status().Status)
	gw.release <- struct{}{}

	<-gw.started
	gw.release <- struct{}{}

	assert.Eventually(t, func() bool { return s.Status().Status == StatusSynced }, time.Second, 5*time.Millisecond)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, 1, gw.maxSeen)
	require.Len(t, gw.saves, 2)
	assert.Equal(t, "1", string(gw.saves[0]))
	assert.Equal(t, "3", string(gw.saves[1]))
}

func TestFlushWritesPendingSaveImmediately(t *testing.T) {
	gw := memory.NewGateway()
	var n atomic.Int64
	opts := testOptions()
	opts.QuietPeriod = time.Hour
	s := NewScheduler(gw, counterSnapshot(&n), opts)

	n.Store(7)
	s.Trigger()
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, gw.Saves())
	assert.Equal(t, "7", string(gw.Data()))

	// nothing pending: flush is a no-op
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, gw.Saves())
}

func TestFlushReportsFailure(t *testing.T) {
	gw := memory.NewGateway()
	gw.FailWith(errors.New("disk full"))
	var n atomic.Int64
	opts := testOptions()
	opts.QuietPeriod = time.Hour
	s := NewScheduler(gw, counterSnapshot(&n), opts)

	s.Trigger()
	assert.Error(t, s.Flush(context.Background()))
}

func TestCancelDropsPendingSave(t *testing.T) {
	gw := memory.NewGateway()
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	s.Trigger()
	require.NoError(t, s.Cancel(context.Background()))

	time.Sleep(3 * testOptions().QuietPeriod)
	assert.Equal(t, 0, gw.Saves())
	assert.Equal(t, StatusIdle, s.Status().Status)
}

func TestCancelSettlesStatusOfDroppedSave(t *testing.T) {
	gw := newBlockingGateway()
	var n atomic.Int64
	opts := testOptions()
	opts.QuietPeriod = 200 * time.Millisecond
	s := NewScheduler(gw, counterSnapshot(&n), opts)

	s.Trigger()
	<-gw.started

	// queued behind the running save, still inside its quiet period
	s.Trigger()
	gw.release <- struct{}{}
	assert.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return len(gw.saves) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Cancel(context.Background()))
	assert.Equal(t, StatusSynced, s.Status().Status)
	assert.Eventually(t, func() bool { return s.Status().Status == StatusIdle }, time.Second, 5*time.Millisecond)

	time.Sleep(2 * opts.QuietPeriod)
	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Len(t, gw.saves, 1)
}

func TestClosedSchedulerIgnoresTriggers(t *testing.T) {
	gw := memory.NewGateway()
	var n atomic.Int64
	s := NewScheduler(gw, counterSnapshot(&n), testOptions())

	require.NoError(t, s.Close(context.Background()))
	s.Trigger()

	time.Sleep(3 * testOptions().QuietPeriod)
	assert.Equal(t, 0, gw.Saves())
}
