// Package api exposes the detection engine's HTTP surface: normalized
// event intake, atomic rule-set replacement, stateless rule testing, and
// the health and metrics endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blackcross/config"
	"blackcross/detect"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// API holds the HTTP server for the engine.
type API struct {
	server    *http.Server
	router    *mux.Router
	engine    *detect.Engine
	registry  *detect.Registry
	evaluator *detect.Evaluator
	validate  *validator.Validate
	logger    *zap.SugaredLogger
}

// NewAPI creates the API server. The evaluator is the same one backing
// live detection, so rule-test results match production behavior.
func NewAPI(cfg *config.Config, engine *detect.Engine, registry *detect.Registry, logger *zap.SugaredLogger) *API {
	a := &API{
		engine:    engine,
		registry:  registry,
		evaluator: detect.NewEvaluator(logger),
		validate:  validator.New(),
		logger:    logger,
	}
	a.router = a.setupRoutes()
	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return a
}

func (a *API) setupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.loggingMiddleware)

	v1 := r.PathPrefix("/api/v1/siem").Subrouter()
	v1.HandleFunc("/events", a.handleIngestEvent).Methods(http.MethodPost)
	v1.HandleFunc("/events/batch", a.handleIngestBatch).Methods(http.MethodPost)
	v1.HandleFunc("/rules", a.handleReplaceRules).Methods(http.MethodPut)
	v1.HandleFunc("/rules/test", a.handleTestRule).Methods(http.MethodPost)

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Router returns the configured router, used by tests.
func (a *API) Router() http.Handler {
	return a.router
}

// Start begins serving in a background goroutine.
func (a *API) Start() {
	go func() {
		a.logger.Infow("API server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Errorw("API server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (a *API) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// loggingMiddleware logs each request with method, path and duration.
func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debugw("Request handled",
			"method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

// handleHealth reports engine status and state sizes.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := a.registry.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "operational",
		"timestamp":         time.Now().UTC(),
		"engine":            a.engine.Stats(),
		"detection_rules":   len(snap.DetectionRules),
		"correlation_rules": len(snap.CorrelationRules),
	}, a.logger)
}
