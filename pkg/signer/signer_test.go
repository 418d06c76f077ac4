package signer_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yeisme/imagevault/pkg/signer"
)

const testSecret = "test-secret-0123456789"

// fakeClock 可手动推进的时间源.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newSigner(t *testing.T) (*signer.Signer, *fakeClock) {
	t.Helper()

	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	s, err := signer.New(testSecret, signer.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s, clk
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := signer.New(""); !errors.Is(err, signer.ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, _ := newSigner(t)

	for _, payload := range []string{"original", "200", "9999999999"} {
		token, err := s.Sign(payload)
		if err != nil {
			t.Fatalf("Sign(%q): %v", payload, err)
		}

		got, err := s.Verify(token, 300*time.Second)
		if err != nil {
			t.Fatalf("Verify(%q): %v", payload, err)
		}

		if got != payload {
			t.Errorf("payload = %q, want %q", got, payload)
		}
	}
}

func TestSignDeterministicPerInstant(t *testing.T) {
	s, clk := newSigner(t)

	a, _ := s.Sign("200")
	b, _ := s.Sign("200")

	if a != b {
		t.Error("same payload at the same instant should give the same token")
	}

	clk.Advance(time.Millisecond)

	c, _ := s.Sign("200")
	if c == a {
		t.Error("token should change within the same second once the millisecond changes")
	}

	at, _ := s.SignAt("200", clk.Now())
	if at != c {
		t.Error("SignAt(now) should equal Sign")
	}
}

// 过期按毫秒计算，签发时刻不在整秒上时边界也准确.
func TestVerifyExpiryMillisecondBoundary(t *testing.T) {
	s, clk := newSigner(t)
	maxAge := 300 * time.Second

	clk.Advance(500 * time.Millisecond)

	token, _ := s.Sign("200")

	clk.Advance(maxAge)

	if _, err := s.Verify(token, maxAge); err != nil {
		t.Fatalf("at exactly D expected valid, got %v", err)
	}

	clk.Advance(time.Millisecond)

	if _, err := s.Verify(token, maxAge); !errors.Is(err, signer.ErrSignatureExpired) {
		t.Fatalf("at D+1ms expected ErrSignatureExpired, got %v", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	s, clk := newSigner(t)
	maxAge := 300 * time.Second

	token, _ := s.Sign("original")

	clk.Advance(maxAge - time.Second)

	if _, err := s.Verify(token, maxAge); err != nil {
		t.Fatalf("at D-1 expected valid, got %v", err)
	}

	clk.Advance(time.Second)

	if _, err := s.Verify(token, maxAge); err != nil {
		t.Fatalf("at exactly D expected valid, got %v", err)
	}

	clk.Advance(time.Second)

	if _, err := s.Verify(token, maxAge); !errors.Is(err, signer.ErrSignatureExpired) {
		t.Fatalf("at D+1 expected ErrSignatureExpired, got %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	s, _ := newSigner(t)

	token, _ := s.Sign("200")

	for i := range token {
		if token[i] == '.' {
			continue
		}

		b := []byte(token)
		if b[i] == 'A' {
			b[i] = 'Q'
		} else {
			b[i] = 'A'
		}

		if _, err := s.Verify(string(b), time.Hour); !errors.Is(err, signer.ErrSignatureInvalid) {
			t.Fatalf("mutating index %d: expected ErrSignatureInvalid, got %v", i, err)
		}
	}
}

func TestVerifyMalformed(t *testing.T) {
	s, _ := newSigner(t)

	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 40)} {
		if _, err := s.Verify(token, time.Hour); !errors.Is(err, signer.ErrSignatureInvalid) {
			t.Errorf("Verify(%q): expected ErrSignatureInvalid, got %v", token, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	s, _ := newSigner(t)
	other, _ := signer.New("another-secret-0123456789")

	token, _ := s.Sign("200")

	if _, err := other.Verify(token, time.Hour); !errors.Is(err, signer.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestSaltedNamespaces(t *testing.T) {
	s, _ := newSigner(t)

	img1 := s.Salted("img-1")
	img2 := s.Salted("img-2")

	t1, _ := img1.Sign("original")
	t2, _ := img2.Sign("original")

	if t1 == t2 {
		t.Fatal("different salts should give different tokens for the same payload and second")
	}

	if _, err := img1.Verify(t1, time.Hour); err != nil {
		t.Fatalf("same salt verify: %v", err)
	}

	if _, err := img2.Verify(t1, time.Hour); !errors.Is(err, signer.ErrSignatureInvalid) {
		t.Fatalf("cross-salt verify: expected ErrSignatureInvalid, got %v", err)
	}

	if _, err := s.Verify(t1, time.Hour); !errors.Is(err, signer.ErrSignatureInvalid) {
		t.Fatalf("unsalted verify: expected ErrSignatureInvalid, got %v", err)
	}
}
