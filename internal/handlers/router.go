package handlers

import (
	"net/http"

	"github.com/krishivue/agri-api/internal/metrics"
)

type Route struct {
	Path    string
	Handler http.HandlerFunc
}

// NewRouter mounts routes plus /metrics behind the request id and CORS
// middleware.
func NewRouter(routes []Route, m *metrics.Metrics, origins []string) http.Handler {
	mux := http.NewServeMux()
	for _, rt := range routes {
		mux.Handle(rt.Path, Instrument(m, rt.Path, rt.Handler))
	}
	mux.Handle("/metrics", m.Handler())

	return WithRequestID(CORS(origins, mux))
}

// InProcessRoutes are served by the process that loads both models.
func (h *Handler) InProcessRoutes() []Route {
	return []Route{
		{Path: "/hello", Handler: h.Hello},
		{Path: "/predictCropDisease", Handler: h.PredictDisease},
		{Path: "/predictCrop", Handler: h.PredictCrop},
	}
}

// ProxyRoutes are served by the process that forwards to model serving.
func (h *Handler) ProxyRoutes() []Route {
	return []Route{
		{Path: "/hello", Handler: h.Hello},
		{Path: "/predict", Handler: h.PredictDisease},
	}
}
