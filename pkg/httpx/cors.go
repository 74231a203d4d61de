package httpx

import "net/http"

// Headers browser clients are allowed to send on cross-origin calls.
const corsAllowHeaders = "Authorization, X-Client-Info, X-Request-ID, Content-Type"

// CORSMiddleware allows cross-origin calls from any origin and answers
// preflight requests. The API is consumed by browser single-page apps served
// from other origins, so the policy is deliberately open; authorization is
// enforced per-request by bearer tokens, not by origin.
func CORSMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
