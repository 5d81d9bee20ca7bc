package nats

import (
	"testing"

	"sales-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.lead.captured", Subject(events.LeadCaptured{}))
	assert.Equal(t, "events.custom", Subject(events.BaseEvent{Type: "custom"}))
}
