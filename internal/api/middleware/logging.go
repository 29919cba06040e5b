package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// statusRecorder captures what the handler sent for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// quiet reports requests the console repeats on a timer: the health probe, the
// session check and task progress polling. They are only logged on errors.
func quiet(r *http.Request) bool {
	switch r.URL.Path {
	case "/api/health", "/api/auth/me":
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/tasks/")
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status < 400 && quiet(r) {
			return
		}
		log.Printf("[api] %s %s %d %dB %s", r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start).Round(time.Millisecond))
	})
}
