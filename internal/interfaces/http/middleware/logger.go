package middleware

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/Pottifar/calendar/pkg/logger"
)

// Logger пишет одну строку на запрос. 5xx - Error, 4xx - Warn,
// пробы /healthz и /readyz - Debug, остальное - Info.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &accessRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"bytes", recorder.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", remoteHost(r),
				"request_id", RequestIDFrom(r),
			}

			switch {
			case recorder.status >= http.StatusInternalServerError:
				log.Error("HTTP request failed", nil, fields...)
			case recorder.status >= http.StatusBadRequest:
				log.Warn("HTTP request rejected", fields...)
			case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
				log.Debug("HTTP probe", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}

// accessRecorder запоминает статус и размер тела ответа
type accessRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *accessRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *accessRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Hijack нужен gorilla/websocket для /ws
func (rw *accessRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	rw.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
