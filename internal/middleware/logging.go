package middleware

import (
	"net/http"
	"time"

	"github.com/2beens/fitjournal/internal/auth"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			resp := &responseWriter{w, http.StatusOK}
			next.ServeHTTP(resp, r)

			fields := log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   resp.statusCode,
				"duration": time.Since(start).String(),
				"ua":       r.Header.Get("User-Agent"),
			}
			if userID, ok := auth.UserIDFrom(r.Context()); ok {
				fields["user"] = userID
			}
			log.WithFields(fields).Trace(" ====> request")
		})
	}
}
