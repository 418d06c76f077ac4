package mq

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestRedisEnvelopeKeepsIdentity(t *testing.T) {
	in := message.NewMessage("01J9ZK8Q7V1N2W3X4Y5Z6A7B8C", []byte(`{"header":{}}`))
	in.Metadata.Set("topic", "iv.link.issued")

	data, err := encodeRedis(in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := decodeRedis(data)
	if err != nil {
		t.Fatal(err)
	}

	if out.UUID != in.UUID || string(out.Payload) != string(in.Payload) || out.Metadata.Get("topic") != "iv.link.issued" {
		t.Fatalf("message changed in transit: %+v", out)
	}

	if _, err := decodeRedis([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
