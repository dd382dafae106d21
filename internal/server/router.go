package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gateAuth "github.com/MrEthical07/gateAuth"
	"github.com/MrEthical07/gateAuth/metrics/export/prometheus"
	"github.com/MrEthical07/gateAuth/middleware"
	"github.com/go-chi/chi/v5"
)

const maxLoginBody = 8 << 10

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// Handler serves the HTTP API for one engine.
type Handler struct {
	engine   *gateAuth.Engine
	accounts *AccountStore
	logger   *slog.Logger
	started  time.Time
}

func NewHandler(engine *gateAuth.Engine, accounts *AccountStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = engine.Logger()
	}
	return &Handler{engine: engine, accounts: accounts, logger: logger, started: time.Now()}
}

// Routes builds the router. The rate limiter runs first on every route so a
// flood of bad tokens is throttled before any signature check.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RateLimit(h.engine))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", prometheus.Handler(h.engine))
	r.Post("/v1/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.engine))
		r.Use(middleware.AdminPaths(h.engine))

		r.With(middleware.RequireRoles(h.engine)).Get("/v1/posts", h.listPosts)
		r.With(middleware.RequireRoles(h.engine,
			gateAuth.RolePublisher, gateAuth.RoleAdmin, gateAuth.RoleSuperAdmin,
		)).Post("/v1/posts", h.createPost)
		r.With(middleware.RequireRoles(h.engine,
			gateAuth.RoleAdmin, gateAuth.RoleSuperAdmin,
		)).Get("/v1/admin/stats", h.adminStats)
	})

	return r
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	if err := dec.Decode(&in); err != nil || in.Identifier == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Type: "error", Msg: "Bad Request"})
		return
	}

	ctx := gateAuth.WithClientIP(r.Context(), gateAuth.ClientIP(r, h.engine.TrustProxy()))
	res, err := h.engine.Login(ctx, gateAuth.LoginInput{Identifier: in.Identifier, Password: in.Password}, h.accounts)
	switch {
	case errors.Is(err, gateAuth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Type: "error", Msg: "Invalid credentials"})
		return
	case err != nil:
		h.logger.Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Type: "error", Msg: "Internal Server Error"})
		return
	}

	if res.NeedsRehash {
		if hash, err := h.engine.HashPassword(ctx, in.Password); err == nil {
			h.accounts.Rehash(in.Identifier, hash)
		}
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		ExpiresIn:   int64(res.ExpiresIn / time.Second),
		UserID:      res.UserID,
		Role:        res.Role.String(),
	})
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"viewer": p.UserID,
		"role":   p.Role.String(),
		"posts":  []any{},
	})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	owner, err := p.NumericUserID()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Type: "error", Msg: "Bad Request"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"owner": owner})
}

func (h *Handler) adminStats(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.MetricsSnapshot()
	report := h.engine.SecurityReport()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"accounts":      h.accounts.Len(),
		"rateAllowed":   snap.Counters[gateAuth.MetricRateAllowed],
		"rateDenied":    snap.Counters[gateAuth.MetricRateDenied],
		"authFailures":  snap.Counters[gateAuth.MetricAuthFailure],
		"auditDropped":  h.engine.AuditDropped(),
		"warnings":      report.Warnings,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
