package middleware

import (
	"net"
	"net/http"
	"strings"

	admingate "github.com/thestare/admingate"
)

// Guard wraps a handler so only a verified admin session reaches it. Denied
// browser requests are redirected to signInPath; clients asking for JSON
// get a 401 instead. The caller's IP is attached to the request context for
// throttling and audit.
func Guard(authority *admingate.Authority, signInPath string) func(http.Handler) http.Handler {
	if signInPath == "" {
		signInPath = "/signin"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := admingate.WithClientIP(r.Context(), clientIP(r))

			if authority == nil || !authority.IsAdmin(ctx) {
				deny(w, r, signInPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, signInPath string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	http.Redirect(w, r, signInPath, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
