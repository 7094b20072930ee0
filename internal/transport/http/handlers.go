package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chantierhq/access/internal/audit"
	"github.com/chantierhq/access/internal/authz"
	"github.com/chantierhq/access/internal/guard"
	"github.com/chantierhq/access/internal/observability/logger"
	"github.com/chantierhq/access/internal/oidc"
	"github.com/chantierhq/access/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	sessions    *session.Store
	evaluator   *authz.Evaluator
	guard       *guard.Guard
	tokenParser *oidc.Parser
	auditLogger audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	sessions *session.Store,
	evaluator *authz.Evaluator,
	navGuard *guard.Guard,
	tokenParser *oidc.Parser,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		sessions:    sessions,
		evaluator:   evaluator,
		guard:       navGuard,
		tokenParser: tokenParser,
		auditLogger: auditLogger,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Session lifecycle
		r.Post("/auth/session", h.Login)
		r.Get("/auth/session", h.GetCurrentSession)
		r.Delete("/auth/session", h.Logout)

		// Navigation
		r.Post("/navigate", h.Navigate)

		// Policy catalog (public, static model data)
		r.Get("/roles", h.ListRoles)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Get("/auth/permissions", h.ListPermissions)
			r.Get("/authz/page", h.CheckPage)
			r.Get("/authz/action", h.CheckAction)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chantier-access",
	})
}

// LoginRequest carries the identity material for session establishment.
// Either a raw OIDC ID token or pre-extracted claims must be supplied.
type LoginRequest struct {
	IDToken string          `json:"id_token,omitempty"`
	Claims  *session.Claims `json:"claims,omitempty"`
}

// Login establishes the local session from upstream identity claims
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var claims session.Claims
	switch {
	case req.IDToken != "":
		parsed, err := h.tokenParser.Parse(req.IDToken)
		if err != nil {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeLoginFailed,
				Resource:  "session",
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
				Metadata:  map[string]any{audit.AttrReason: "malformed_token"},
			})
			respondError(w, http.StatusBadRequest, "malformed ID token")
			return
		}
		claims = parsed
	case req.Claims != nil:
		claims = *req.Claims
	default:
		respondError(w, http.StatusBadRequest, "id_token or claims is required")
		return
	}

	principal, err := h.sessions.Ingest(r.Context(), claims)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to establish session",
			logger.Error(err),
			logger.Email(claims.Email),
		)

		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLoginFailed,
			Resource:  "session",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
			Metadata:  map[string]any{audit.AttrReason: "invalid_claims"},
		})

		if errors.Is(err, session.ErrInvalidClaims) {
			respondError(w, http.StatusBadRequest, "claims are missing required fields")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	respondJSON(w, http.StatusCreated, principalResponse(principal))
}

// GetCurrentSession returns the active principal, if any
func (h *Handler) GetCurrentSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Rehydrate(r.Context())

	principal := h.sessions.Current()
	if principal == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, principalResponse(principal))
}

// Logout clears the session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Rehydrate(r.Context())
	h.sessions.Logout(r.Context())

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// NavigateRequest carries the path a client intends to visit
type NavigateRequest struct {
	Path string `json:"path"`
}

// Navigate evaluates the navigation guard for a target path
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	decision := h.guard.Evaluate(r.Context(), req.Path)
	respondJSON(w, http.StatusOK, decision)
}

// ListPermissions returns the permissions of the current principal
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFrom(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"role":        principal.Role,
		"permissions": h.evaluator.Permissions(),
	})
}

// CheckPage reports whether the current principal may access a page
func (h *Handler) CheckPage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"allowed": h.evaluator.CanAccessPage(path),
	})
}

// CheckAction reports whether the current principal may perform a
// resource action
func (h *Handler) CheckAction(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	action := r.URL.Query().Get("action")
	if resource == "" || action == "" {
		respondError(w, http.StatusBadRequest, "resource and action query parameters are required")
		return
	}
	if !authz.Action(action).Valid() {
		respondError(w, http.StatusBadRequest, "unknown action")
		return
	}

	allowed := h.evaluator.CanPerformAction(resource, authz.Action(action))
	if !allowed {
		principal := PrincipalFrom(r.Context())
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeAccessDenied,
			ActorID:   principal.ID,
			Resource:  resource,
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
			Metadata: map[string]any{
				"action":       action,
				audit.AttrRole: string(principal.Role),
			},
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"resource": resource,
		"action":   action,
		"allowed":  allowed,
	})
}

// ListRoles returns the role catalog with display metadata
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := authz.Roles()
	out := make([]map[string]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, map[string]string{
			"name":        string(role),
			"label":       role.Label(),
			"description": role.Description(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"roles": out})
}

func principalResponse(p *session.Principal) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"avatarUrl":   p.AvatarURL,
		"role":        p.Role,
		"roleLabel":   p.Role.Label(),
		"createdAt":   p.CreatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
