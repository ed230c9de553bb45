package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// BorrowerSubjectPrefix marks tokens issued to a single borrower, e.g.
// "borrower-7".
const BorrowerSubjectPrefix = "borrower-"

// BorrowerScope rejects borrower tokens whose subject does not match the
// {param} path value. Other subjects, and requests without one, pass.
func BorrowerScope(param string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "BorrowerScope")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if ok {
				if id, scoped := strings.CutPrefix(subject, BorrowerSubjectPrefix); scoped && id != chi.URLParam(r, param) {
					logger.WarnContext(r.Context(), "Borrower token used on another borrower", "subject", subject, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/json")
					http.Error(w, `{"error":{"message":"Forbidden"}}`, http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
