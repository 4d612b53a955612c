package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wxrmigrate/wxrcore/events"
)

func TestQueueListenerTracksIngressAndEgress(t *testing.T) {
	l := NewQueueListener()

	require.NotPanics(t, func() {
		l.Ingress(events.Event{Kind: events.KindEntityEmitted})
		l.Egress(events.Event{Kind: events.KindEntityEmitted})
	})
}

func TestEntitiesEmittedAcceptsLabel(t *testing.T) {
	require.NotPanics(t, func() {
		EntitiesEmitted.WithValues("post").Inc(1)
		ParseWarnings.WithValues("suspicious-delimiter").Inc(1)
		EditsApplied.WithValues("tagattr").Inc(1)
	})
}
