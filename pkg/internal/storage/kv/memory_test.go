package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryKVExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := &MemoryKV{data: map[string][]byte{}, now: func() time.Time { return now }}

	if err := m.Set(ctx, "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(9 * time.Second)

	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("before expiry: %v", err)
	}

	now = now.Add(time.Second)

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("after expiry: expected ErrKeyNotFound, got %v", err)
	}

	keys, _ := m.Keys(ctx, "")
	if len(keys) != 0 {
		t.Fatalf("expired key should be evicted on read, keys = %v", keys)
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		key, pattern string
		want         bool
	}{
		{"a:b", "", true},
		{"a:b", "*", true},
		{"a:b", "a:*", true},
		{"a:b", "b:*", false},
		{"a:b", "a:b", true},
		{"a:bc", "a:b", false},
	}

	for _, tc := range cases {
		if got := matchPattern(tc.key, tc.pattern); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.key, tc.pattern, got, tc.want)
		}
	}
}

func TestStampRoundTrip(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_500)
	plain := []byte("thumbnail")

	raw, err := stamp(plain, 0, now)
	if err != nil || string(raw) != "thumbnail" {
		t.Fatalf("stamp without ttl = %q, %v", raw, err)
	}

	raw[0] = 'T'
	if plain[0] != 't' {
		t.Fatal("stamp without ttl must not alias the input")
	}

	raw, err = stamp(plain, 1500*time.Millisecond, now)
	if err != nil {
		t.Fatal(err)
	}

	v, expired, err := unstamp(raw, now.Add(1499*time.Millisecond))
	if err != nil || expired || string(v) != "thumbnail" {
		t.Fatalf("before deadline = %q, %v, %v", v, expired, err)
	}

	if _, expired, _ = unstamp(raw, now.Add(1500*time.Millisecond)); !expired {
		t.Error("value should expire at the deadline")
	}

	if _, _, err = unstamp(append([]byte("IVTTL2:"), '{'), now); err == nil {
		t.Error("corrupt stamped value should fail")
	}
}
