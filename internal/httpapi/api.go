// Package httpapi exposes the subAuth engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/middleware"
	"github.com/MrEthical07/subAuth/role"
	"github.com/gorilla/mux"
)

// ReadyFunc reports whether backing stores are reachable.
type ReadyFunc func(ctx context.Context) error

// Options configures the HTTP layer. Zero values disable the feature they
// control.
type Options struct {
	Version string
	Ready   ReadyFunc
	Metrics http.Handler
	// Wrap is applied to every routed request, innermost first.
	Wrap []mux.MiddlewareFunc
	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	RateLimitRPS   int
	RateLimitBurst int
	MaxBodyBytes   int64
	// TrustForwardedFor takes the client IP from X-Forwarded-For.
	TrustForwardedFor bool
}

// API is the HTTP layer.
type API struct {
	engine  *subAuth.Engine
	opts    Options
	router  *mux.Router
	limiter *clientLimiter
}

// New wires every route onto a gorilla/mux router.
func New(engine *subAuth.Engine, opts Options) *API {
	a := &API{
		engine: engine,
		opts:   opts,
		router: mux.NewRouter(),
	}
	if opts.RateLimitRPS > 0 {
		a.limiter = newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 5*time.Minute)
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router
	for _, mw := range a.opts.Wrap {
		r.Use(mw)
	}
	r.Use(a.requestInfo)

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	if a.opts.Metrics != nil {
		r.Handle("/metrics", a.opts.Metrics).Methods(http.MethodGet)
	}

	authn := middleware.Authenticate(a.engine)
	admin := middleware.RequireRole(role.Admin)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.Use(a.rateLimit, a.maxBody)
	auth.HandleFunc("/sign-up", a.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/sign-in", a.SignIn).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", a.Refresh).Methods(http.MethodPost)
	auth.HandleFunc("/sign-out", a.SignOut).Methods(http.MethodPost)
	auth.Handle("/sign-out-all", authn(http.HandlerFunc(a.SignOutAll))).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(a.rateLimit, a.maxBody, authn)
	api.HandleFunc("/user/me", a.Me).Methods(http.MethodGet)
	api.HandleFunc("/user/{id}", a.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/user/{id}", a.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/user/{id}", a.DeleteUser).Methods(http.MethodDelete)
	api.Handle("/user/{id}/role", admin(http.HandlerFunc(a.ChangeRole))).Methods(http.MethodPatch)
	api.HandleFunc("/user/{id}/password", a.ChangePassword).Methods(http.MethodPatch)
	api.Handle("/user/{id}/status", admin(http.HandlerFunc(a.SetStatus))).Methods(http.MethodPatch)
	api.Handle("/users", admin(http.HandlerFunc(a.ListUsers))).Methods(http.MethodGet)
	api.Handle("/audit", admin(http.HandlerFunc(a.AuditLog))).Methods(http.MethodGet)
	api.Handle("/audit/{id}", admin(http.HandlerFunc(a.AuditEntry))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, kindNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})
}

// Handler returns the routed handler with security headers applied.
func (a *API) Handler() http.Handler {
	return securityHeaders(a.router)
}

// Router exposes the underlying router for callers that add routes.
func (a *API) Router() *mux.Router {
	return a.router
}

func (a *API) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "subauthd",
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.opts.Ready != nil {
		if err := a.opts.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return errMalformedBody
	}
	return nil
}
