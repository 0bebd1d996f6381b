package handler

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The landing page posts from its own origin and from local dev servers, so
// the relay answers every caller with the same permissive header set.
var formCORSHeaders = map[string]string{
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Methods":     "GET,OPTIONS,PATCH,DELETE,POST,PUT",
	"Access-Control-Allow-Headers":     "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version",
}

// FormCORS sets the relay CORS headers before anything else is written, so
// error and preflight responses carry them too.
func FormCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range formCORSHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// AdminCORS restricts the admin API to the configured origins. With no
// origins configured it returns nil and the API stays same-origin only.
func AdminCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return nil
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browser
	})
}
