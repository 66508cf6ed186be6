package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/volscan/internal/api/handlers"
	"github.com/wonny/volscan/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// metricsHandler and hub are optional.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(scheduleHandler *handlers.ScheduleHandler, hub *Hub, metricsHandler http.Handler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods("GET")
	}
	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWS).Methods("GET")
	}

	// 서브라우터는 메서드 불일치를 404로 처리하므로 전체 경로로 등록 (405 유지)
	// Schedule endpoints
	r.HandleFunc("/api/schedule", scheduleHandler.GetSchedule).Methods("GET")
	r.HandleFunc("/api/channels", scheduleHandler.GetChannels).Methods("GET")
	r.HandleFunc("/api/channels/{column:[0-9]+}/run", scheduleHandler.RunChannel).Methods("POST")
	r.HandleFunc("/api/runs", scheduleHandler.GetRuns).Methods("GET")
	r.HandleFunc("/api/runs/stats", scheduleHandler.GetRunStats).Methods("GET")

	// Control endpoints
	r.HandleFunc("/api/control/start", scheduleHandler.Start).Methods("POST")
	r.HandleFunc("/api/control/stop", scheduleHandler.Stop).Methods("POST")
	r.HandleFunc("/api/control/reload", scheduleHandler.Reload).Methods("POST")
	r.HandleFunc("/api/control/notify", scheduleHandler.Notify).Methods("POST")

	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "volscan",
	})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "method not allowed: " + r.Method,
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
