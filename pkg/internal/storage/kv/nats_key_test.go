package kv

import "testing"

func TestNATSKeyRoundTrip(t *testing.T) {
	cases := map[string]string{
		"thumb:6f1c1f2e-8c5d-4a57-9b7e-2b1df7e0a001:x200": "thumb.6f1c1f2e-8c5d-4a57-9b7e-2b1df7e0a001.x200",
		"resp:plans:a1b2":                                 "resp.plans.a1b2",
		"file.jpg":                                        "file_2Ejpg",
		"a_b c":                                           "a_5Fb_20c",
	}

	for in, want := range cases {
		got := natsKey(in)
		if got != want {
			t.Errorf("natsKey(%q) = %q, want %q", in, got, want)
		}

		back, ok := fromNATSKey(got)
		if !ok || back != in {
			t.Errorf("fromNATSKey(%q) = %q, %v", got, back, ok)
		}
	}
}

func TestFromNATSKeyRejectsForeignKeys(t *testing.T) {
	for _, k := range []string{"bad_", "bad_Z1", "x_4"} {
		if _, ok := fromNATSKey(k); ok {
			t.Errorf("fromNATSKey(%q) accepted", k)
		}
	}
}
