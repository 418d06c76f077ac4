package rule_test

import (
	"testing"
	"time"

	"github.com/yeisme/imagevault/pkg/rule"
)

type issueBody struct {
	Identifier string `json:"identifier" rule:"required,link_identifier"`
	Duration   int    `json:"duration" rule:"min=300,max=30000"`
}

type bucketSettings struct {
	Bucket string        `json:"bucket_name" rule:"required,min=3,max=63"`
	Expiry time.Duration `json:"presign_expiry" rule:"min=1m,max=168h"`
	Mode   string        `rule:"omitempty,oneof=console json"`
	Hidden string        `json:"-" rule:"required"`
}

func TestEngineIsShared(t *testing.T) {
	if rule.Engine() == nil || rule.Engine() != rule.Engine() {
		t.Fatal("Engine should return one initialized validator")
	}
}

func TestIdentifierShape(t *testing.T) {
	cases := map[string]bool{
		"original":    true,
		"200":         true,
		"1":           true,
		"9999999999":  true,
		"99999999999": false,
		"0":           false,
		"0200":        false,
		"-1":          false,
		"Original":    false,
		"":            false,
		"20a":         false,
		" 200":        false,
	}

	for in, want := range cases {
		if got := rule.IsIdentifier(in); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", in, got, want)
		}

		err := rule.ValidateStruct(issueBody{Identifier: in, Duration: 300})
		if (err == nil) != want {
			t.Errorf("ValidateStruct identifier %q err = %v, want valid=%v", in, err, want)
		}
	}
}

func TestDurationBounds(t *testing.T) {
	for d, want := range map[int]string{
		299:   "must be at least 300",
		300:   "",
		30000: "",
		30001: "must be at most 30000",
	} {
		got := rule.Errors(rule.ValidateStruct(issueBody{Identifier: "original", Duration: d}))["duration"]
		if got != want {
			t.Errorf("duration %d: message %q, want %q", d, got, want)
		}
	}
}

func TestErrorsUseJSONNames(t *testing.T) {
	err := rule.ValidateStruct(bucketSettings{Bucket: "ab", Expiry: 30 * time.Second, Mode: "xml"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	errs := rule.Errors(err)

	want := map[string]string{
		"bucket_name":    "must be at least 3",
		"presign_expiry": "must be at least 1m",
		"Mode":           "failed oneof=console json",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("%s = %q, want %q", field, errs[field], msg)
		}
	}

	if len(errs) != len(want)+1 {
		t.Errorf("got %d errors: %v", len(errs), errs)
	}
}

func TestErrorsIgnoresOtherErrors(t *testing.T) {
	if rule.Errors(nil) != nil {
		t.Error("Errors(nil) should be nil")
	}

	if rule.ValidateStruct(bucketSettings{Bucket: "images", Expiry: time.Hour, Hidden: "x"}) != nil {
		t.Error("valid settings rejected")
	}
}
