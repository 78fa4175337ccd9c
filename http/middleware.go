package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sagarc03/gallery"
)

// AuthMiddleware creates middleware that enforces presigned URL verification.
// Pass nil to disable verification (public access).
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Go stores Host separately from Header
			headers := r.Header.Clone()
			headers.Set("Host", r.Host)

			if err := verifier.Verify(r.Method, r.URL.Path, r.URL.Query(), headers); err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PathValidationMiddleware rejects wildcard routes whose key is not a valid
// storage path.
func PathValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gallery.IsValidPath(chi.URLParam(r, "*")) {
			WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path format")
			return
		}

		next.ServeHTTP(w, r)
	})
}
