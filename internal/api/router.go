package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/api/handlers"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// Deps holds everything the router mounts; nil entries are skipped
type Deps struct {
	Ticks     *handlers.TickHandler
	Signals   *handlers.SignalHandler
	Cooldowns *handlers.CooldownHandler
	Risk      *handlers.RiskHandler
	Portfolio *handlers.PortfolioHandler
	Scheduler *handlers.SchedulerHandler
	Modules   *handlers.ModuleHandler

	// Stream is mounted on /ws/signals
	Stream http.Handler
	// Gatherer enables /metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(d Deps, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	if d.Ticks != nil {
		api.HandleFunc("/ticks", d.Ticks.RunTick).Methods("POST")
		api.HandleFunc("/ticks/latest", d.Ticks.Latest).Methods("GET")
		api.HandleFunc("/status", d.Ticks.Status).Methods("GET")
	}
	if d.Signals != nil {
		// latest 뒤에 등록 (순서 중요)
		api.HandleFunc("/ticks/{id}", d.Signals.TickSummary).Methods("GET")
		api.HandleFunc("/signals", d.Signals.List).Methods("GET")
	}
	if d.Cooldowns != nil {
		api.HandleFunc("/cooldowns", d.Cooldowns.List).Methods("GET")
		api.HandleFunc("/cooldowns/{symbol}", d.Cooldowns.Clear).Methods("DELETE")
	}
	if d.Risk != nil {
		api.HandleFunc("/risk/assess", d.Risk.Assess).Methods("POST")
	}
	if d.Portfolio != nil {
		api.HandleFunc("/portfolio", d.Portfolio.Get).Methods("GET")
		api.HandleFunc("/portfolio", d.Portfolio.Put).Methods("PUT")
	}
	if d.Scheduler != nil {
		api.HandleFunc("/scheduler/jobs", d.Scheduler.List).Methods("GET")
		api.HandleFunc("/scheduler/jobs/{name}/run", d.Scheduler.Run).Methods("POST")
		api.HandleFunc("/scheduler/jobs/{name}/pause", d.Scheduler.Pause).Methods("POST")
		api.HandleFunc("/scheduler/jobs/{name}/resume", d.Scheduler.Resume).Methods("POST")
	}
	if d.Modules != nil {
		api.HandleFunc("/modules", d.Modules.List).Methods("GET")
		api.HandleFunc("/modules/{name}/toggle", d.Modules.Toggle).Methods("POST")
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	if d.Stream != nil {
		r.Handle("/ws/signals", d.Stream).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// preflight는 라우트 매칭 전에 처리
	return corsMiddleware(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stealth-scan-api",
	})
}

// statusRecorder captures the response code for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// websocket은 Hijacker가 필요하므로 래핑하지 않음
			if r.URL.Path == "/ws/signals" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the dashboard to call the API from another origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
