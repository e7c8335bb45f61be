package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/subAuth/role"
)

func benchmarkGuard(b *testing.B, h http.Handler, token string, want int) {
	b.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != want {
				b.Errorf("expected %d, got %d", want, rec.Code)
				return
			}
		}
	})
}

func BenchmarkAuthenticate(b *testing.B) {
	engine, store := newTestEngine(b)
	token := signUpAs(b, engine, store, "bench@example.com", role.User)
	benchmarkGuard(b, Authenticate(engine)(okHandler), token, http.StatusOK)
}

func BenchmarkAuthenticateRequireRole(b *testing.B) {
	engine, store := newTestEngine(b)
	token := signUpAs(b, engine, store, "bench@example.com", role.Manager)
	h := Authenticate(engine)(RequireRole(role.Admin)(okHandler))
	benchmarkGuard(b, h, token, http.StatusForbidden)
}
