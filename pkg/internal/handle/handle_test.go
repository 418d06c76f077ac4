package handle_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/imagevault/pkg/api"
	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/handle"
	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/internal/storage/db"
	"github.com/yeisme/imagevault/pkg/internal/storage/s3"
	"github.com/yeisme/imagevault/pkg/internal/types"
	"github.com/yeisme/imagevault/pkg/middleware"
	"github.com/yeisme/imagevault/pkg/rule"
	"github.com/yeisme/imagevault/pkg/signer"
)

type objects struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (o *objects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.data[key] = b

	return nil
}

func (o *objects) Get(_ context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	b, ok := o.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, s3.ErrObjectNotFound)
	}

	return bytes.Clone(b), nil
}

func (o *objects) Exists(_ context.Context, key string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.data[key]

	return ok, nil
}

func (o *objects) RemovePrefix(_ context.Context, prefix string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for k := range o.data {
		if strings.HasPrefix(k, prefix) {
			delete(o.data, k)
		}
	}

	return nil
}

func (o *objects) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/" + key, nil
}

type server struct {
	engine *gin.Engine
	d      service.Deps
	now    time.Time
	mu     sync.Mutex
}

func (s *server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *server) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = s.now.Add(d)
}

func newServer(t *testing.T) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	rule.Engine()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatal(err)
	}

	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	srv := &server{now: time.Unix(1_700_000_000, 0)}

	sg, err := signer.New("handle-test-secret-0123", signer.WithClock(srv.clock))
	if err != nil {
		t.Fatal(err)
	}

	cfg := &configs.AppConfig{}
	cfg.Plans = configs.PlansConfig{DefaultName: configs.DefaultPlanName, DefaultSizes: []int{200}}
	cfg.Thumbnail = configs.ThumbnailConfig{
		Quality:   configs.DefaultThumbnailQuality,
		MaxHeight: configs.DefaultThumbnailMaxHeight,
	}

	srv.d = service.Deps{
		DB:      gdb,
		Objects: &objects{data: map[string][]byte{}},
		Signer:  sg,
		Config:  cfg,
	}

	e := gin.New()
	e.Use(
		middleware.AuthMiddleware(configs.AuthConfig{Enabled: true, SkipPaths: []string{"/temp", "/api/v1/health"}}),
		middleware.RoleMiddleware(),
		handle.DepsMiddleware(srv.d),
	)
	api.RegisterGroup(e, nil)

	srv.engine = e

	return srv
}

func (s *server) do(method, target, user string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := sonic.Marshal(body)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if user != "" {
		req.Header.Set("X-User", user)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) upload(t *testing.T, owner string) *model.Image {
	t.Helper()

	src := image.NewRGBA(image.Rect(0, 0, 600, 300))
	for x := range 600 {
		for y := range 300 {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := service.NewImageService(s.d).Upload(context.Background(), owner, "dog.png", buf.Bytes())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	return img
}

func (s *server) enterprise(t *testing.T, username string) {
	t.Helper()

	p := &model.Plan{Name: "Enterprise", LinkToOriginal: true, ExpiringLink: true}
	if err := p.SetSizes([]int{400, 200}); err != nil {
		t.Fatal(err)
	}

	if err := s.d.DB.Create(p).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}

	if _, err := service.NewPlanService(s.d).AssignPlan(context.Background(), username, p.Name); err != nil {
		t.Fatalf("assign plan: %v", err)
	}
}

func issuePath(id, size string) string {
	p := "/api/v1/images/" + id + "/get-temporary"
	if size != "" {
		p += "?size=" + size
	}

	return p
}

func TestIssueAndRedeem(t *testing.T) {
	s := newServer(t)
	img := s.upload(t, "alice")
	s.enterprise(t, "alice")

	w := s.do(http.MethodPost, issuePath(img.ID, "200"), "alice", map[string]int{"duration": 300})
	if w.Code != http.StatusCreated {
		t.Fatalf("issue: %d %s", w.Code, w.Body.String())
	}

	if loc := w.Header().Get("Location"); !strings.HasSuffix(loc, "/api/v1/images/"+img.ID+"/link?size=200") {
		t.Fatalf("unexpected Location %q", loc)
	}

	var resp types.IssueLinkResponse
	if err := sonic.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Duration != 300 || resp.Token == "" || !strings.Contains(resp.ExpiringLink, "/temp?token=") {
		t.Fatalf("unexpected response %+v", resp)
	}

	temp := "/temp?token=" + url.QueryEscape(resp.Token)

	w = s.do(http.MethodGet, temp, "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("redeem: %d len=%d", w.Code, w.Body.Len())
	}

	if got := w.Header().Get("Content-Type"); got != img.ContentType {
		t.Fatalf("content type %q, want %q", got, img.ContentType)
	}

	if got := w.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Fatalf("cache control %q", got)
	}

	s.advance(301 * time.Second)

	w = s.do(http.MethodGet, temp, "", nil)
	if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
		t.Fatalf("expired redeem: %d %q", w.Code, w.Body.String())
	}

	var n int64
	s.d.DB.Model(&model.ExpiringLink{}).Where("image_id = ?", img.ID).Count(&n)

	if n != 0 {
		t.Fatalf("expired record kept: %d", n)
	}
}

func TestRedeemFailuresAreEmpty404(t *testing.T) {
	s := newServer(t)

	for _, target := range []string{"/temp", "/temp?token=", "/temp?token=abc.def.ghi"} {
		w := s.do(http.MethodGet, target, "", nil)
		if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
			t.Errorf("%s: %d %q", target, w.Code, w.Body.String())
		}
	}
}

func TestIssuePermissions(t *testing.T) {
	s := newServer(t)
	img := s.upload(t, "alice")
	s.enterprise(t, "alice")
	carolImg := s.upload(t, "carol")

	cases := []struct {
		name string
		user string
		path string
		body any
		want int
	}{
		{"anonymous", "", issuePath(img.ID, "200"), map[string]int{"duration": 300}, http.StatusUnauthorized},
		{"not owner", "bob", issuePath(img.ID, "200"), map[string]int{"duration": 300}, http.StatusNotFound},
		{"plan without expiring links", "carol", issuePath(carolImg.ID, "200"), map[string]int{"duration": 300}, http.StatusForbidden},
		{"size outside plan", "alice", issuePath(img.ID, "300"), map[string]int{"duration": 300}, http.StatusForbidden},
		{"bad size", "alice", issuePath(img.ID, "0200"), map[string]int{"duration": 300}, http.StatusBadRequest},
		{"duration too short", "alice", issuePath(img.ID, "200"), map[string]int{"duration": 10}, http.StatusBadRequest},
		{"duration too long", "alice", issuePath(img.ID, ""), map[string]int{"duration": 30001}, http.StatusBadRequest},
		{"original", "alice", issuePath(img.ID, ""), map[string]int{"duration": 30000}, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := s.do(http.MethodPost, tc.path, tc.user, tc.body); w.Code != tc.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestReissueKeepsOneRecord(t *testing.T) {
	s := newServer(t)
	img := s.upload(t, "alice")
	s.enterprise(t, "alice")

	// 时钟不前进，两次签发落在同一时刻
	tokens := make([]string, 0, 2)

	for _, d := range []int{300, 600} {
		w := s.do(http.MethodPost, issuePath(img.ID, "400"), "alice", map[string]int{"duration": d})
		if w.Code != http.StatusCreated {
			t.Fatalf("issue %d: %d", d, w.Code)
		}

		var resp types.IssueLinkResponse
		if err := sonic.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}

		tokens = append(tokens, resp.Token)
	}

	if tokens[0] == tokens[1] {
		t.Fatal("reissue returned the replaced token")
	}

	var recs []model.ExpiringLink
	s.d.DB.Where("image_id = ?", img.ID).Find(&recs)

	if len(recs) != 1 || recs[0].Duration != 600 || recs[0].Token != tokens[1] {
		t.Fatalf("unexpected records %+v", recs)
	}

	if w := s.do(http.MethodGet, "/temp?token="+url.QueryEscape(tokens[0]), "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("replaced token redeemed: %d", w.Code)
	}

	if w := s.do(http.MethodGet, "/temp?token="+url.QueryEscape(tokens[1]), "", nil); w.Code != http.StatusOK {
		t.Fatalf("current token: %d", w.Code)
	}
}

func TestLinkViewOmitsAbsentFields(t *testing.T) {
	s := newServer(t)
	img := s.upload(t, "carol")

	w := s.do(http.MethodGet, "/api/v1/images/"+img.ID+"/link?size=200", "carol", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("link view: %d %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if strings.Contains(body, "expiring_link") || strings.Contains(body, "temp_link_generator") || strings.Contains(body, "null") {
		t.Fatalf("absent fields leaked: %s", body)
	}

	if w := s.do(http.MethodGet, "/api/v1/images/"+img.ID+"/link", "carol", nil); w.Code != http.StatusForbidden {
		t.Fatalf("original without link_to_original: %d", w.Code)
	}
}

func TestHealthWithoutBackends(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", w.Code)
	}

	var resp struct {
		Healthy    bool              `json:"healthy"`
		Components map[string]string `json:"components"`
	}
	if err := sonic.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Healthy || resp.Components["db"] != "not initialized" || resp.Components["kv"] != "disabled" {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func (s *server) doRole(method, target, user, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("X-User", user)
	req.Header.Set("X-Role", role)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func TestAPIRoot(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("root: %d", w.Code)
	}

	var resp types.APIRootResponse
	if err := sonic.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(resp.Users, "/api/v1/users") || !strings.HasSuffix(resp.Images, "/api/v1/images") {
		t.Fatalf("unexpected root %+v", resp)
	}
}

func TestUserAdministration(t *testing.T) {
	s := newServer(t)
	img := s.upload(t, "alice")

	w := s.do(http.MethodGet, "/api/v1/users/me", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}

	var me types.UserInfo
	if err := sonic.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}

	if me.Username != "alice" || me.Tier.Plan != configs.DefaultPlanName || len(me.Images) != 1 {
		t.Fatalf("unexpected me %+v", me)
	}

	// 其他普通用户看不到 alice
	if w := s.do(http.MethodGet, "/api/v1/users/alice", "bob", nil); w.Code != http.StatusNotFound {
		t.Fatalf("bob reads alice: %d", w.Code)
	}

	if w := s.doRole(http.MethodGet, "/api/v1/users/alice", "carol", "staff"); w.Code != http.StatusOK {
		t.Fatalf("staff reads alice: %d", w.Code)
	}

	cases := []struct {
		role string
		want int
	}{
		{"", http.StatusForbidden},
		{"staff", http.StatusForbidden},
		{"admin", http.StatusNoContent},
		{"admin", http.StatusNotFound},
	}
	for _, tc := range cases {
		if w := s.doRole(http.MethodDelete, "/api/v1/users/alice", "root", tc.role); w.Code != tc.want {
			t.Fatalf("delete as %q: %d, want %d", tc.role, w.Code, tc.want)
		}
	}

	var n int64
	s.d.DB.Model(&model.Image{}).Where("id = ?", img.ID).Count(&n)

	if n != 0 {
		t.Fatalf("images of deleted user kept: %d", n)
	}
}
