package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://saltbreeze.jp",
	"https://www.saltbreeze.jp",
}

// CORS returns middleware that applies the API's allowed origin policy. The
// configured storefront origin is appended when not already present.
func CORS(storefrontURL string) func(http.Handler) http.Handler {
	origins := defaultCORSOrigins
	if origin := strings.TrimRight(strings.TrimSpace(storefrontURL), "/"); origin != "" && !contains(origins, origin) {
		origins = append(append([]string{}, origins...), origin)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
