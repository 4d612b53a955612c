// Package metrics exposes wxrmigrate's counters and timers through
// github.com/docker/go-metrics, one Namespace per subsystem.
package metrics

import "github.com/docker/go-metrics"

const (
	// NamespacePrefix names every metric family this package registers.
	NamespacePrefix = "wxrmigrate"
)

var (
	// ReaderNamespace covers L3's entity decoding.
	ReaderNamespace = metrics.NewNamespace(NamespacePrefix, "reader", nil)

	// MarkupNamespace covers L5's block parsing and URL rewriting.
	MarkupNamespace = metrics.NewNamespace(NamespacePrefix, "markup", nil)

	// EventsNamespace covers the events.Bus queues the rest of the
	// pipeline publishes to.
	EventsNamespace = metrics.NewNamespace(NamespacePrefix, "events", nil)
)

var (
	// EntitiesEmitted counts WXR entities decoded by the reader, labeled
	// by entity type (the wxr.Type of each entity; attachments are posts).
	EntitiesEmitted = ReaderNamespace.NewLabeledCounter("entities_emitted", "The number of WXR entities decoded", "type")

	// ParseWarnings counts recoverable parse conditions, labeled by
	// reason (e.g. suspicious-delimiter).
	ParseWarnings = MarkupNamespace.NewLabeledCounter("parse_warnings", "The number of recoverable parse warnings", "reason")

	// EditsApplied counts entity fields the rewriter actually changed,
	// with the "site" label set to the field name (post_content,
	// post_excerpt, comment_content).
	EditsApplied = MarkupNamespace.NewLabeledCounter("edits_applied", "The number of edits applied by the rewriter", "site")

	// QueueEvents counts events entering an events.Bus subscriber's
	// queue, labeled by kind.
	QueueEvents = EventsNamespace.NewLabeledCounter("queue_events", "The number of events accepted into a subscriber queue", "kind")

	// QueuePending gauges the current depth of an events.Bus subscriber's
	// queue.
	QueuePending = EventsNamespace.NewLabeledGauge("queue_pending", "The number of events pending delivery to a subscriber", metrics.Total, "kind")
)

func init() {
	metrics.Register(ReaderNamespace)
	metrics.Register(MarkupNamespace)
	metrics.Register(EventsNamespace)
}
