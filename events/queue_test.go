package events

import (
	"sync"
	"testing"
	"time"

	goevents "github.com/docker/go-events"
	"github.com/stretchr/testify/require"
)

type testSink struct {
	mu     sync.Mutex
	count  int
	closed bool
}

func (ts *testSink) Write(event goevents.Event) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.count++
	return nil
}

func (ts *testSink) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.closed = true
	return nil
}

type delayedSink struct {
	goevents.Sink
	delay time.Duration
}

func (ds *delayedSink) Write(event goevents.Event) error {
	time.Sleep(ds.delay)
	return ds.Sink.Write(event)
}

func TestEventQueueDeliversEveryWriteThenCloses(t *testing.T) {
	const n = 1000
	var ts testSink
	eq := newEventQueue(&delayedSink{Sink: &ts, delay: time.Millisecond})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, eq.Write(Event{Kind: KindEntityEmitted, EntityType: "post", EntityIndex: i}))
		}()
	}
	wg.Wait()

	require.NoError(t, eq.Close())

	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.Equal(t, n, ts.count)
	require.True(t, ts.closed)
}

func TestEventQueueClosedBehavior(t *testing.T) {
	var ts testSink
	eq := newEventQueue(&ts)

	require.NoError(t, eq.Close())
	require.Error(t, eq.Close())

	err := eq.Write(Event{})
	require.Equal(t, ErrSinkClosed, err)
}

func TestBusFanOutToMultipleSinks(t *testing.T) {
	var a, b testSink
	bus := NewBus()
	require.NoError(t, bus.Subscribe(&a))
	require.NoError(t, bus.Subscribe(&b))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(Event{Kind: KindEditApplied, Site: "tagattr"}))
	}

	require.NoError(t, bus.Close())

	a.mu.Lock()
	defer a.mu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.Equal(t, 10, a.count)
	require.Equal(t, 10, b.count)
}
