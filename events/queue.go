// Package events lets a caller attach one or more Sinks that receive a
// domain Event for every WXR entity emitted by the reader and every markup
// edit applied by the rewriter. It wraps github.com/docker/go-events'
// Sink/Broadcaster types with an unbounded asynchronous queue so a slow or
// blocking sink never backpressures the migration pipeline itself.
package events

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	goevents "github.com/docker/go-events"
	"github.com/sirupsen/logrus"
)

// ErrSinkClosed is returned by Write once the queue has been closed.
var ErrSinkClosed = errors.New("events: sink closed")

// eventQueue accepts all messages into a queue for asynchronous consumption
// by a sink. It is unbounded and thread safe but the sink must be reliable or
// events will be dropped.
type eventQueue struct {
	sink      goevents.Sink
	events    *list.List
	listeners []eventQueueListener
	cond      *sync.Cond
	mu        sync.Mutex
	closed    bool
}

// QueueListener is notified as events enter and leave a Bus subscriber's
// queue. The metrics package implements this to track queue depth.
type QueueListener interface {
	Ingress(event Event)
	Egress(event Event)
}

type eventQueueListener = QueueListener

// newEventQueue returns a queue in front of the provided sink. If listeners
// are given, they're notified on ingress and egress, which the metrics
// package uses to track queue depth.
func newEventQueue(sink goevents.Sink, listeners ...eventQueueListener) *eventQueue {
	eq := eventQueue{
		sink:      sink,
		events:    list.New(),
		listeners: listeners,
	}

	eq.cond = sync.NewCond(&eq.mu)
	go eq.run()
	return &eq
}

// Write accepts the event into the queue, only failing if the queue has
// already been closed.
func (eq *eventQueue) Write(event goevents.Event) error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if eq.closed {
		return ErrSinkClosed
	}

	if dev, ok := event.(Event); ok {
		for _, listener := range eq.listeners {
			listener.Ingress(dev)
		}
	}
	eq.events.PushBack(event)
	eq.cond.Signal() // signal waiters

	return nil
}

// Close shuts down the event queue, flushing any remaining events to the
// sink before closing it.
func (eq *eventQueue) Close() error {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if eq.closed {
		return fmt.Errorf("eventqueue: already closed")
	}

	eq.closed = true
	eq.cond.Signal() // signal flushes queue
	eq.cond.Wait()   // wait for signal from last flush

	return eq.sink.Close()
}

// run is the main goroutine that flushes events to the target sink.
func (eq *eventQueue) run() {
	for {
		event := eq.next()

		if event == nil {
			return // nil means the queue is closed and drained.
		}

		if err := eq.sink.Write(event); err != nil {
			logrus.Warnf("eventqueue: error writing event to %v, event will be lost: %v", eq.sink, err)
		}

		if dev, ok := event.(Event); ok {
			for _, listener := range eq.listeners {
				listener.Egress(dev)
			}
		}
	}
}

// next encompasses the critical section of the run loop. When the queue is
// empty, it blocks on the condition. When closed and drained, nil is
// returned.
func (eq *eventQueue) next() goevents.Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	for eq.events.Len() < 1 {
		if eq.closed {
			eq.cond.Broadcast()
			return nil
		}

		eq.cond.Wait()
	}

	front := eq.events.Front()
	event := front.Value.(goevents.Event)
	eq.events.Remove(front)

	return event
}
