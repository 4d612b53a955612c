package events

import (
	goevents "github.com/docker/go-events"
)

// Kind discriminates the domain events a Bus publishes.
type Kind string

const (
	// KindEntityEmitted fires once per WXR entity the reader decodes
	// (post, comment, term, and so on; attachments are posts).
	KindEntityEmitted Kind = "entity.emitted"

	// KindEditApplied fires once per HTML-bearing entity field whose
	// markup the rewriter actually changed; all of that field's URL and
	// block-attribute edits are reported together.
	KindEditApplied Kind = "edit.applied"

	// KindParseWarning fires for a recoverable condition noticed while
	// reading or rewriting (e.g. a suspicious-delimiter downgrade).
	KindParseWarning Kind = "parse.warning"
)

// Event is published on a Bus. It satisfies goevents.Event, which is just
// interface{}; sinks type-assert to Event to read the fields below.
type Event struct {
	Kind Kind

	// EntityType and EntityIndex identify the entity an
	// entity.emitted or parse.warning event concerns (EntityIndex is
	// the entity's ordinal position within the feed, starting at 0).
	EntityType  string
	EntityIndex int

	// Site, TagName and AttrName mirror markup.URLRef. For edit.applied,
	// the rewrite command sets AttrName to the changed entity field name
	// (e.g. post_content) and leaves Site and TagName empty.
	Site     string
	TagName  string
	AttrName string

	// Before and After carry the changed field's old and new raw text.
	Before string
	After  string

	// Reason carries a parse.warning event's diagnostic, e.g.
	// "suspicious-delimiter".
	Reason string
}

// Sink is the interface a caller implements to receive Events. It is an
// alias of goevents.Sink so a caller never needs to import
// github.com/docker/go-events directly.
type Sink = goevents.Sink

// Bus fans a stream of Events out to every attached Sink, queuing writes to
// each sink independently so one slow sink can't stall another or the
// publisher.
type Bus struct {
	broadcaster *goevents.Broadcaster
}

// NewBus creates an empty Bus. Attach sinks with Subscribe before calling
// Publish.
func NewBus() *Bus {
	return &Bus{broadcaster: goevents.NewBroadcaster()}
}

// Subscribe attaches sink to the bus behind its own unbounded queue, so a
// sink that blocks (e.g. on network I/O) never backpressures Publish or
// other sinks.
func (b *Bus) Subscribe(sink Sink, listeners ...QueueListener) error {
	q := newEventQueue(sink, listeners...)
	return b.broadcaster.Add(q)
}

// Publish sends ev to every subscribed sink's queue. It never blocks on a
// slow sink.
func (b *Bus) Publish(ev Event) error {
	return b.broadcaster.Write(ev)
}

// Close closes the broadcaster and every subscribed sink's queue, flushing
// pending events first.
func (b *Bus) Close() error {
	return b.broadcaster.Close()
}
