package metrics

import (
	"github.com/wxrmigrate/wxrcore/events"
)

// queueListener implements events.QueueListener, driving QueueEvents and
// QueuePending from a subscriber's queue traffic.
type queueListener struct{}

// NewQueueListener returns an events.QueueListener that reports queue
// traffic through the package's Prometheus counters and gauge.
func NewQueueListener() events.QueueListener {
	return queueListener{}
}

func (queueListener) Ingress(event events.Event) {
	kind := string(event.Kind)
	QueueEvents.WithValues(kind).Inc(1)
	QueuePending.WithValues(kind).Inc(1)
}

func (queueListener) Egress(event events.Event) {
	kind := string(event.Kind)
	QueuePending.WithValues(kind).Dec(1)
}
