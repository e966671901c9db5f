package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RouterOptions carries the optional collaborators of NewRouter.
type RouterOptions struct {
	// Logger receives one entry per request and recovered panics. Nil
	// disables request logging.
	Logger logrus.FieldLogger

	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the full HTTP surface: /api/auth, /health and
// optionally /metrics.
func NewRouter(engine *vms.Engine, cfg Config, opts RouterOptions) (*mux.Router, error) {
	h, err := NewHandler(engine, cfg)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(middleware.ClientInfo(cfg.TrustedProxies))
	if opts.Logger != nil {
		r.Use(Recover(opts.Logger), LogRequests(opts.Logger))
	}

	r.HandleFunc("/health", health).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	h.RegisterRoutes(r.PathPrefix("/api/auth").Subrouter())
	return r, nil
}

func health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests logs method, path, status and latency of every request.
// Headers and bodies are never logged.
func LogRequests(logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          vms.ClientIPFromContext(r.Context()),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request")
		})
	}
}

// Recover turns a handler panic into a generic 500.
func Recover(logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.WithField("panic", v).Errorf("handler panic\n%s", debug.Stack())
					middleware.WriteError(w, vms.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
