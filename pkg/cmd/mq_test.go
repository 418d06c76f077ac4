package cmd

import (
	"strings"
	"testing"

	"github.com/yeisme/imagevault/pkg/queue"
)

func TestFormatEvent(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicLinkIssued,
		queue.LinkIssuedPayload{ImageID: "img-1", Identifier: "200", Duration: 300})
	if err != nil {
		t.Fatal(err)
	}

	line := formatEvent(msg.Payload)
	if !strings.Contains(line, queue.TopicLinkIssued) || !strings.Contains(line, `"img-1"`) {
		t.Fatalf("unexpected line: %s", line)
	}

	if got := formatEvent([]byte("not json")); !strings.HasPrefix(got, "undecodable event") {
		t.Fatalf("expected decode failure, got %s", got)
	}
}
