// Package requesttime pins one "now" per HTTP request so that every timestamp
// written while serving it (scores, audit events, review times) agrees.
package requesttime

import (
	"net/http"
	"time"

	"trustgate/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
