package queue

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

func TestNewWatermillMessage(t *testing.T) {
	msg, err := NewWatermillMessage(TopicLinkEvicted,
		LinkEvictedPayload{ImageID: "img-1", Identifier: "original"},
		WithProducer(DefaultProducer), WithTraceID("req-42"))
	if err != nil {
		t.Fatal(err)
	}

	if got := msg.Metadata.Get("topic"); got != TopicLinkEvicted {
		t.Errorf("topic metadata %q", got)
	}

	if got := middleware.MessageCorrelationID(msg); got != "req-42" {
		t.Errorf("correlation id %q", got)
	}

	env, err := ParseWatermillMessage[LinkEvictedPayload](msg)
	if err != nil {
		t.Fatal(err)
	}

	if env.Header.Topic != TopicLinkEvicted || env.Header.Producer != DefaultProducer || env.Payload.ImageID != "img-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestNoTraceIDMeansNoCorrelation(t *testing.T) {
	msg, err := NewWatermillMessage(TopicImageDeleted, ImageDeletedPayload{})
	if err != nil {
		t.Fatal(err)
	}

	if got := middleware.MessageCorrelationID(msg); got != "" {
		t.Fatalf("unexpected correlation id %q", got)
	}

	if msg.Metadata.Get("producer") != "" {
		t.Fatal("empty producer should not be set")
	}
}
