package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/signer"
)

func TestIssueDurationBounds(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	cases := []struct {
		duration int
		wantErr  bool
	}{
		{299, true},
		{300, false},
		{30000, false},
		{30001, true},
		{0, true},
	}

	for _, tc := range cases {
		_, err := links.Issue(ctx, img.ID, "original", tc.duration)

		var verr *ValidationError
		if tc.wantErr {
			if !errors.As(err, &verr) || verr.Field != "duration" {
				t.Errorf("duration %d: expected duration ValidationError, got %v", tc.duration, err)
			}

			continue
		}

		if err != nil {
			t.Errorf("duration %d: unexpected error %v", tc.duration, err)
		}
	}
}

func TestIssueRejectsBadIdentifier(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")

	for _, id := range []string{"", "0", "012", "abc", "12345678901", "-5"} {
		_, err := NewLinkService(env.d).Issue(context.Background(), img.ID, id, 300)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("identifier %q: expected ValidationError, got %v", id, err)
		}
	}

	if n := env.countLinks(t, img.ID); n != 0 {
		t.Fatalf("no record should be written, got %d", n)
	}
}

func TestIssueUnknownImage(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewLinkService(env.d).Issue(context.Background(), "6f1c1f2e-8c5d-4a57-9b7e-2b1df7e0a001", "original", 300)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueReplacesInPlace(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	first, err := links.Issue(ctx, img.ID, "200", 300)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	env.clock.Advance(time.Second)

	second, err := links.Issue(ctx, img.ID, "200", 600)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if first.Token == second.Token {
		t.Fatalf("reissue in a later second should produce a new token")
	}

	if n := env.countLinks(t, img.ID); n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}

	var rec model.ExpiringLink
	if err := env.d.DB.Where("image_id = ? AND identifier = ?", img.ID, "200").First(&rec).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	if rec.Token != second.Token || rec.Duration != 600 {
		t.Fatalf("record not overwritten: %+v", rec)
	}

	if _, _, err := links.Redeem(ctx, first.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replaced token should not redeem, got %v", err)
	}
}

func TestIssueSameInstantInvalidatesPrevious(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	first, err := links.Issue(ctx, img.ID, "200", 300)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	firstToken := first.Token

	second, err := links.Issue(ctx, img.ID, "200", 600)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if firstToken == second.Token {
		t.Fatal("reissue at the same instant kept the old token")
	}

	if n := env.countLinks(t, img.ID); n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}

	if _, _, err := links.Redeem(ctx, firstToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replaced token should not redeem, got %v", err)
	}

	if _, id, err := links.Redeem(ctx, second.Token); err != nil || id != "200" {
		t.Fatalf("current token: %q, %v", id, err)
	}

	// 第三次签发仍与当前令牌不同
	third, err := links.Issue(ctx, img.ID, "200", 300)
	if err != nil {
		t.Fatal(err)
	}

	if third.Token == second.Token {
		t.Fatal("third issue reused the current token")
	}
}

func TestSameSecondDifferentImages(t *testing.T) {
	env := newTestEnv(t)
	a := env.upload(t, "alice")
	b := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	ra, err := links.Issue(ctx, a.ID, "original", 300)
	if err != nil {
		t.Fatalf("issue a: %v", err)
	}

	rb, err := links.Issue(ctx, b.ID, "original", 300)
	if err != nil {
		t.Fatalf("issue b: %v", err)
	}

	if ra.Token == rb.Token {
		t.Fatalf("tokens for different images must differ")
	}
}

func TestRedeemLifecycle(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	rec, err := links.Issue(ctx, img.ID, "original", 300)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	env.clock.Advance(300 * time.Second)

	got, identifier, err := links.Redeem(ctx, rec.Token)
	if err != nil {
		t.Fatalf("redeem at max age: %v", err)
	}

	if got.ID != img.ID || identifier != "original" {
		t.Fatalf("unexpected redeem result %s %s", got.ID, identifier)
	}

	env.clock.Advance(time.Second)

	if _, _, err := links.Redeem(ctx, rec.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired token: expected ErrNotFound, got %v", err)
	}

	if n := env.countLinks(t, img.ID); n != 0 {
		t.Fatalf("expired record should be deleted, got %d", n)
	}

	if _, _, err := links.Redeem(ctx, rec.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second redeem: expected ErrNotFound, got %v", err)
	}
}

func TestRedeemInvalidKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	ctx := context.Background()

	other, err := signer.New("another-secret-0123456789")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	forged, err := other.Salted(img.ID).Sign("original")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := &model.ExpiringLink{Token: forged, ImageID: img.ID, Identifier: "original", Duration: 300}
	if err := env.d.DB.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, _, err := NewLinkService(env.d).Redeem(ctx, forged); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if n := env.countLinks(t, img.ID); n != 1 {
		t.Fatalf("invalid record must be kept, got %d", n)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	for _, tok := range []string{"", "nope", "a.b.c"} {
		if _, _, err := NewLinkService(env.d).Redeem(context.Background(), tok); !errors.Is(err, ErrNotFound) {
			t.Errorf("token %q: expected ErrNotFound, got %v", tok, err)
		}
	}
}

func TestFetchReturnsContent(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	rec, err := links.Issue(ctx, img.ID, "100", 300)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, data, err := links.Fetch(ctx, rec.Token)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got.ContentType != "image/png" || len(data) == 0 {
		t.Fatalf("unexpected fetch result %s %d", got.ContentType, len(data))
	}
}

func TestActiveEvictsExpired(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	if _, err := links.Issue(ctx, img.ID, "200", 300); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := links.Active(ctx, img.ID, "200"); err != nil {
		t.Fatalf("active before expiry: %v", err)
	}

	env.clock.Advance(301 * time.Second)

	if _, err := links.Active(ctx, img.ID, "200"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if n := env.countLinks(t, img.ID); n != 0 {
		t.Fatalf("stale record should be evicted on view, got %d", n)
	}
}

func TestSweep(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	links := NewLinkService(env.d)
	ctx := context.Background()

	if _, err := links.Issue(ctx, img.ID, "200", 300); err != nil {
		t.Fatalf("issue short: %v", err)
	}

	if _, err := links.Issue(ctx, img.ID, "original", 3000); err != nil {
		t.Fatalf("issue long: %v", err)
	}

	env.clock.Advance(600 * time.Second)

	n, err := links.Sweep(ctx, 1)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if n != 1 {
		t.Fatalf("expected 1 evicted, got %d", n)
	}

	if _, err := links.Active(ctx, img.ID, "original"); err != nil {
		t.Fatalf("long link should survive: %v", err)
	}
}
