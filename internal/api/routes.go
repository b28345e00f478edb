package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/homestead/layout-server/internal/config"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/performance"
)

// NewRouter wires every layout server endpoint. The caller must run the
// returned hub.
func NewRouter(cfg *config.Config, b Backend, validator *layout.Validator, profiler *performance.Profiler) (*mux.Router, *WebSocketHub) {
	wsHandlers := NewWebSocketHandlers(cfg, b, validator, profiler)
	layoutHandlers := NewLayoutHandlers(cfg, b, validator, wsHandlers.Hub(), profiler)

	r := mux.NewRouter()
	r.Use(SecurityHeadersMiddleware(cfg.Server.IsProduction()))
	r.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	r.HandleFunc("/health", layoutHandlers.HealthCheck).Methods(http.MethodGet)

	proxies := cfg.RateLimit.TrustedProxies
	ws := RateLimitMiddleware(cfg.RateLimit.WebSocketPerMinute, time.Minute, proxies)
	r.Handle("/ws", ws(http.HandlerFunc(wsHandlers.HandleWebSocket))).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(RateLimitMiddleware(cfg.RateLimit.GlobalPerMinute, time.Minute, proxies))

	layoutRouter := apiRouter.PathPrefix("/layout").Subrouter()
	layoutRouter.HandleFunc("/rules", layoutHandlers.GetRules).Methods(http.MethodGet)
	layoutRouter.HandleFunc("/validate", layoutHandlers.ValidatePlacement).Methods(http.MethodPost, http.MethodOptions)

	layoutRouter.HandleFunc("/catalog", layoutHandlers.GetCatalog).Methods(http.MethodGet)
	layoutRouter.HandleFunc("/catalog", layoutHandlers.CreateCatalogEntry).Methods(http.MethodPost, http.MethodOptions)
	layoutRouter.HandleFunc("/catalog/{id:[0-9]+}", layoutHandlers.GetCatalogEntry).Methods(http.MethodGet)
	layoutRouter.HandleFunc("/catalog/{id:[0-9]+}", layoutHandlers.UpdateCatalogEntry).Methods(http.MethodPut, http.MethodOptions)
	layoutRouter.HandleFunc("/catalog/{id:[0-9]+}", layoutHandlers.DeleteCatalogEntry).Methods(http.MethodDelete)

	layoutRouter.HandleFunc("/properties", layoutHandlers.ListProperties).Methods(http.MethodGet)
	layoutRouter.HandleFunc("/properties", layoutHandlers.CreateProperty).Methods(http.MethodPost, http.MethodOptions)
	layoutRouter.HandleFunc("/properties/{id:[0-9]+}", layoutHandlers.UpdateProperty).Methods(http.MethodPut, http.MethodOptions)
	layoutRouter.HandleFunc("/properties/{id:[0-9]+}", layoutHandlers.DeleteProperty).Methods(http.MethodDelete)
	layoutRouter.HandleFunc("/properties/{id:[0-9]+}/plan.svg", layoutHandlers.PlanSVG).Methods(http.MethodGet)
	layoutRouter.HandleFunc("/properties/{id:[0-9]+}/plan.pdf", layoutHandlers.PlanPDF).Methods(http.MethodGet)

	apiRouter.HandleFunc("/debug/metrics", layoutHandlers.Metrics).Methods(http.MethodGet)

	return r, wsHandlers.Hub()
}
