package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/cors"
)

// Fixed cross-origin declarations sent on every response.
const (
	AllowedMethods = "POST, OPTIONS"
	AllowedHeaders = "Content-Type, Authorization"
)

// CORS returns the cross-origin policy. A nil origins list allows every
// origin and declares "*" on every response. Otherwise the request origin,
// with any trailing slash removed, is echoed only when it exactly matches a
// listed origin, whatever the method or status.
//
// Preflight requests are passed through so the handlers answer them.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := len(origins) == 0
	allowed := func(origin string) bool {
		return slices.Contains(origins, origin)
	}

	opts := cors.Options{
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials:   false,
		OptionsPassthrough: true,
	}
	if wildcard {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowOriginFunc = allowed
	}
	c := cors.New(opts)

	return func(next http.Handler) http.Handler {
		// The library only decides for the methods it allows, so the
		// origin is settled here for every request after it has run.
		declare := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", AllowedMethods)
			h.Set("Access-Control-Allow-Headers", AllowedHeaders)
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				addVary(h, "Origin")
				if origin := r.Header.Get("Origin"); allowed(origin) {
					h.Set("Access-Control-Allow-Origin", origin)
				} else {
					h.Del("Access-Control-Allow-Origin")
				}
			}
			next.ServeHTTP(w, r)
		})
		inner := c.Handler(declare)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); strings.HasSuffix(origin, "/") {
				r.Header.Set("Origin", strings.TrimRight(origin, "/"))
			}
			inner.ServeHTTP(w, r)
		})
	}
}

func addVary(h http.Header, value string) {
	for _, v := range h.Values("Vary") {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), value) {
				return
			}
		}
	}
	h.Add("Vary", value)
}
