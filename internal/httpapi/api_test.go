package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/identity"
	"github.com/MrEthical07/subAuth/middleware"
	"github.com/MrEthical07/subAuth/role"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testServer struct {
	t          *testing.T
	srv        *httptest.Server
	engine     *subAuth.Engine
	identities *identity.MemoryStore
	audits     *audit.MemoryStore
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := subAuth.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	ts := &testServer{
		t:          t,
		identities: identity.NewMemoryStore(),
		audits:     audit.NewMemoryStore(),
	}
	ts.engine, err = subAuth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(ts.identities).
		WithAuditStore(ts.audits).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ts.srv = httptest.NewServer(New(ts.engine, opts).Handler())
	t.Cleanup(func() {
		ts.srv.Close()
		ts.engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) (*http.Response, []byte) {
	ts.t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, payload)
	if err != nil {
		ts.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("read body: %v", err)
	}
	return resp, out
}

func (ts *testServer) expect(method, path, token string, body any, status int) []byte {
	ts.t.Helper()
	resp, out := ts.do(method, path, token, body)
	if resp.StatusCode != status {
		ts.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, resp.StatusCode, out)
	}
	return out
}

func (ts *testServer) expectKind(method, path, token string, body any, status int, kind string) {
	ts.t.Helper()
	out := ts.expect(method, path, token, body, status)
	var eb middleware.ErrorBody
	if err := json.Unmarshal(out, &eb); err != nil {
		ts.t.Fatalf("decode error body %q: %v", out, err)
	}
	if eb.Error.Kind != kind {
		ts.t.Fatalf("%s %s: expected kind %s, got %s", method, path, kind, eb.Error.Kind)
	}
}

type authResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Identity     subAuth.Identity `json:"identity"`
}

func (ts *testServer) signUp(email string) authResponse {
	ts.t.Helper()
	out := ts.expect(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"name": "Test User", "email": email, "password": "correct-password-123",
	}, http.StatusCreated)
	var res authResponse
	if err := json.Unmarshal(out, &res); err != nil {
		ts.t.Fatalf("decode sign-up: %v", err)
	}
	return res
}

// signUpAs creates an account, promotes it and signs in again so the
// access token carries the new role.
func (ts *testServer) signUpAs(email string, r role.Role) authResponse {
	ts.t.Helper()
	res := ts.signUp(email)
	if _, err := ts.identities.SetRole(context.Background(), res.Identity.ID, r); err != nil {
		ts.t.Fatalf("SetRole: %v", err)
	}
	out := ts.expect(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": email, "password": "correct-password-123",
	}, http.StatusOK)
	if err := json.Unmarshal(out, &res); err != nil {
		ts.t.Fatalf("decode sign-in: %v", err)
	}
	return res
}

func TestSignUpSignInRefresh(t *testing.T) {
	ts := newTestServer(t, Options{})

	res := ts.signUp("alice@example.com")
	if res.AccessToken == "" || res.RefreshToken == "" || res.Identity.Role != role.User {
		t.Fatalf("unexpected sign-up response: %+v", res)
	}

	ts.expectKind(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"name": "Again", "email": "ALICE@example.com", "password": "correct-password-123",
	}, http.StatusConflict, kindEmailTaken)
	ts.expectKind(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"name": "", "email": "not-an-email", "password": "x",
	}, http.StatusBadRequest, kindValidation)

	ts.expectKind(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password-123",
	}, http.StatusUnauthorized, kindInvalidPassword)
	ts.expectKind(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "nobody@example.com", "password": "wrong-password-123",
	}, http.StatusNotFound, kindNotFound)

	out := ts.expect(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": res.RefreshToken}, http.StatusOK)
	var pair authResponse
	if err := json.Unmarshal(out, &pair); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if pair.RefreshToken == "" || pair.RefreshToken == res.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": res.RefreshToken}, http.StatusUnauthorized, kindInvalidOrExpired)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{}, http.StatusBadRequest, kindMissingToken)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", nil, http.StatusBadRequest, kindMissingToken)
}

func TestSignOut(t *testing.T) {
	ts := newTestServer(t, Options{})
	res := ts.signUp("bob@example.com")

	ts.expect(http.MethodPost, "/auth/sign-out", "", map[string]string{"refreshToken": res.RefreshToken}, http.StatusOK)
	ts.expect(http.MethodPost, "/auth/sign-out", "", map[string]string{"refreshToken": res.RefreshToken}, http.StatusOK)
	ts.expect(http.MethodPost, "/auth/sign-out", "", nil, http.StatusOK)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": res.RefreshToken}, http.StatusUnauthorized, kindInvalidOrExpired)
}

func TestSignOutAll(t *testing.T) {
	ts := newTestServer(t, Options{})
	first := ts.signUp("carol@example.com")
	out := ts.expect(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "carol@example.com", "password": "correct-password-123",
	}, http.StatusOK)
	var second authResponse
	if err := json.Unmarshal(out, &second); err != nil {
		t.Fatalf("decode sign-in: %v", err)
	}

	ts.expectKind(http.MethodPost, "/auth/sign-out-all", "", nil, http.StatusUnauthorized, kindUnauthenticated)
	ts.expect(http.MethodPost, "/auth/sign-out-all", first.AccessToken, nil, http.StatusOK)

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": tok}, http.StatusUnauthorized, kindInvalidOrExpired)
	}
}

func TestRoleChangeRoute(t *testing.T) {
	ts := newTestServer(t, Options{})
	admin := ts.signUpAs("admin@example.com", role.Admin)
	user := ts.signUp("user@example.com")
	path := "/user/" + user.Identity.ID + "/role"

	out := ts.expect(http.MethodPatch, path, admin.AccessToken, map[string]string{"role": "manager"}, http.StatusOK)
	var body struct {
		ID   string    `json:"id"`
		Role role.Role `json:"role"`
	}
	if err := json.Unmarshal(out, &body); err != nil {
		t.Fatalf("decode role response: %v", err)
	}
	if body.ID != user.Identity.ID || body.Role != role.Manager {
		t.Fatalf("unexpected role response: %+v", body)
	}

	ts.expectKind(http.MethodPatch, path, admin.AccessToken, map[string]string{"role": "OWNER"}, http.StatusBadRequest, kindInvalidRole)
	ts.expectKind(http.MethodPatch, path, admin.AccessToken, map[string]string{"role": "SUPER_ADMIN"}, http.StatusForbidden, kindForbidden)
	ts.expectKind(http.MethodPatch, "/user/missing/role", admin.AccessToken, map[string]string{"role": "USER"}, http.StatusNotFound, kindNotFound)
	ts.expectKind(http.MethodPatch, path, user.AccessToken, map[string]string{"role": "ADMIN"}, http.StatusForbidden, kindForbidden)
	ts.expectKind(http.MethodPatch, path, "", map[string]string{"role": "ADMIN"}, http.StatusUnauthorized, kindUnauthenticated)
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(t, Options{})
	admin := ts.signUpAs("admin@example.com", role.Admin)
	root := ts.signUpAs("root@example.com", role.SuperAdmin)
	user := ts.signUp("dave@example.com")
	other := ts.signUp("erin@example.com")

	out := ts.expect(http.MethodGet, "/user/me", user.AccessToken, nil, http.StatusOK)
	var me subAuth.Identity
	if err := json.Unmarshal(out, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != user.Identity.ID || bytes.Contains(out, []byte("argon2")) {
		t.Fatalf("unexpected /user/me body: %s", out)
	}

	ts.expect(http.MethodGet, "/user/"+other.Identity.ID, admin.AccessToken, nil, http.StatusOK)
	ts.expectKind(http.MethodGet, "/user/"+other.Identity.ID, user.AccessToken, nil, http.StatusForbidden, kindForbidden)

	ts.expect(http.MethodGet, "/users?limit=2", admin.AccessToken, nil, http.StatusOK)
	ts.expectKind(http.MethodGet, "/users", user.AccessToken, nil, http.StatusForbidden, kindForbidden)
	ts.expectKind(http.MethodGet, "/users?limit=abc", admin.AccessToken, nil, http.StatusBadRequest, kindValidation)

	out = ts.expect(http.MethodPut, "/user/"+user.Identity.ID, user.AccessToken, map[string]any{
		"name": "Dave Renamed", "role": "SUPER_ADMIN", "active": false,
	}, http.StatusOK)
	var updated subAuth.Identity
	if err := json.Unmarshal(out, &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Name != "Dave Renamed" || updated.Role != role.User || !updated.Active {
		t.Fatalf("self-update must only change name/email: %+v", updated)
	}

	ts.expectKind(http.MethodPatch, "/user/"+user.Identity.ID+"/password", user.AccessToken, map[string]string{
		"currentPassword": "wrong-password-123", "newPassword": "another-password-456",
	}, http.StatusUnauthorized, kindInvalidPassword)
	ts.expect(http.MethodPatch, "/user/"+user.Identity.ID+"/password", user.AccessToken, map[string]string{
		"currentPassword": "correct-password-123", "newPassword": "another-password-456",
	}, http.StatusOK)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": user.RefreshToken}, http.StatusUnauthorized, kindInvalidOrExpired)

	out = ts.expect(http.MethodPatch, "/user/"+other.Identity.ID+"/status", admin.AccessToken, map[string]bool{"active": false}, http.StatusOK)
	if !bytes.Contains(out, []byte(`"active":false`)) {
		t.Fatalf("unexpected status body: %s", out)
	}
	ts.expectKind(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "erin@example.com", "password": "correct-password-123",
	}, http.StatusForbidden, kindAccountInactive)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": other.RefreshToken}, http.StatusForbidden, kindAccountInactive)
	ts.expectKind(http.MethodPatch, "/user/"+other.Identity.ID+"/status", admin.AccessToken, map[string]string{}, http.StatusBadRequest, kindValidation)

	ts.expectKind(http.MethodDelete, "/user/"+other.Identity.ID, admin.AccessToken, nil, http.StatusForbidden, kindForbidden)
	ts.expectKind(http.MethodDelete, "/user/"+root.Identity.ID, root.AccessToken, nil, http.StatusForbidden, kindForbidden)
	ts.expect(http.MethodDelete, "/user/"+other.Identity.ID, root.AccessToken, nil, http.StatusOK)
	ts.expectKind(http.MethodGet, "/user/"+other.Identity.ID, admin.AccessToken, nil, http.StatusNotFound, kindNotFound)
}

func TestAuditRoute(t *testing.T) {
	ts := newTestServer(t, Options{})
	admin := ts.signUpAs("admin@example.com", role.Admin)
	user := ts.signUp("frank@example.com")

	if err := ts.audits.Append(context.Background(), audit.Entry{
		ID: "01J0000000000000000000000A", ActorID: admin.Identity.ID, Action: audit.ActionRoleChange,
		TargetType: audit.TargetUser, TargetID: user.Identity.ID, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out := ts.expect(http.MethodGet, "/audit?action=role_change", admin.AccessToken, nil, http.StatusOK)
	var list struct {
		Items []audit.Entry `json:"items"`
	}
	if err := json.Unmarshal(out, &list); err != nil {
		t.Fatalf("decode audit list: %v", err)
	}
	if len(list.Items) == 0 {
		t.Fatal("expected the seeded ROLE_CHANGE entry")
	}
	for _, e := range list.Items {
		if e.Action != audit.ActionRoleChange {
			t.Fatalf("filter returned %s", e.Action)
		}
	}

	ts.expect(http.MethodGet, "/audit?actorId="+admin.Identity.ID+"&limit=5", admin.AccessToken, nil, http.StatusOK)
	ts.expectKind(http.MethodGet, "/audit?action=NOPE", admin.AccessToken, nil, http.StatusBadRequest, kindValidation)
	ts.expectKind(http.MethodGet, "/audit", user.AccessToken, nil, http.StatusForbidden, kindForbidden)
	ts.expectKind(http.MethodGet, "/audit/unknown", admin.AccessToken, nil, http.StatusNotFound, kindNotFound)
}

func TestHealthAndReady(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	ts := newTestServer(t, Options{
		Version: "test",
		Ready: func(context.Context) error {
			if down.Load() {
				return errors.New("redis down")
			}
			return nil
		},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) }),
	})

	ts.expect(http.MethodGet, "/healthz", "", nil, http.StatusOK)
	ts.expect(http.MethodGet, "/readyz", "", nil, http.StatusServiceUnavailable)
	down.Store(false)
	ts.expect(http.MethodGet, "/readyz", "", nil, http.StatusOK)
	ts.expect(http.MethodGet, "/metrics", "", nil, http.StatusOK)
	ts.expectKind(http.MethodGet, "/nope", "", nil, http.StatusNotFound, kindNotFound)

	resp, _ := ts.do(http.MethodGet, "/healthz", "", nil)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers")
	}
}

func TestRequestBodyLimit(t *testing.T) {
	ts := newTestServer(t, Options{MaxBodyBytes: 64})

	ts.expectKind(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"name": strings.Repeat("n", 128), "email": "big@example.com", "password": "correct-password-123",
	}, http.StatusRequestEntityTooLarge, kindBodyTooLarge)

	resp, out := ts.do(http.MethodPost, "/auth/sign-in", "", "{")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d: %s", resp.StatusCode, out)
	}
	ts.expect(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "nobody@example.com", "password": "whatever-password",
	}, http.StatusNotFound)
}

func TestRateLimitPerClient(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 2})

	body := map[string]string{"refreshToken": "x"}
	ts.expect(http.MethodPost, "/auth/refresh", "", body, http.StatusUnauthorized)
	ts.expect(http.MethodPost, "/auth/refresh", "", body, http.StatusUnauthorized)
	ts.expectKind(http.MethodPost, "/auth/refresh", "", body, http.StatusTooManyRequests, kindRateLimited)
	ts.expect(http.MethodGet, "/healthz", "", nil, http.StatusOK)
}
