package wsserver

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// logRequests tags every request with an id and logs it. The writer is
// passed through untouched so upgrades can hijack it. Only the path is
// logged since the query may carry a token.
func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := xid.New().String()
		w.Header().Set(requestIDHeader, id)

		logger.Info("incoming http request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ip", r.RemoteAddr),
		)

		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http request done",
			zap.String("id", id),
			zap.Duration("dur", time.Since(start)),
		)
	})
}
