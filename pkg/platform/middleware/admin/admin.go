package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"trustgate/pkg/requestcontext"
)

// AdminIDHeader names the operator acting through the shared admin token.
const AdminIDHeader = "X-Admin-ID"

// RequireAdminToken guards admin routes with a shared token and records the
// acting operator (X-Admin-ID, defaulting to "admin") in the request context.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
					"user_agent", requestcontext.UserAgent(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin token required"}`))
				return
			}

			adminID := strings.TrimSpace(r.Header.Get(AdminIDHeader))
			if adminID == "" {
				adminID = "admin"
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminID(ctx, adminID)))
		})
	}
}
