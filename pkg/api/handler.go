package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hazyhaar/conso-energie/pkg/kit"
	"github.com/hazyhaar/conso-energie/pkg/store"
)

// NewRouter returns an http.Handler with all query API routes.
func NewRouter(q Querier, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{endpoints: newEndpoints(q, logger), q: q}

	mux.HandleFunc("GET /v1/runs/latest", h.handleLatestRun)
	mux.HandleFunc("GET /v1/consumption/{dataset}/{level}", h.handleConsumption)
	mux.HandleFunc("GET /v1/sectors/{level}", h.handleSectors)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return securityHeaders(cors(requestID(mux)))
}

type handler struct {
	endpoints
	q Querier
}

// --- latest run ---

func (h *handler) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	resp, err := h.latestRun(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- consumption per resident ---

func (h *handler) handleConsumption(w http.ResponseWriter, r *http.Request) {
	p := httpParams(r)
	p.Dataset = r.PathValue("dataset")
	req, err := p.consumptionReq()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.consumption(r.Context(), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- sectors ---

func (h *handler) handleSectors(w http.ResponseWriter, r *http.Request) {
	req, err := httpParams(r).sectorsReq()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.sectors(r.Context(), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status    string `json:"status"`
	LatestRun string `json:"latest_run,omitempty"`
	Years     []int  `json:"years,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	run, err := h.q.LatestRun(r.Context())
	switch {
	case errors.Is(err, store.ErrNoRun):
		resp.Status = "empty"
	case err != nil:
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	default:
		resp.LatestRun = run.ID
		resp.Years = run.Years
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func httpParams(r *http.Request) queryParams {
	q := r.URL.Query()
	return queryParams{
		Run:   q.Get("run"),
		Level: r.PathValue("level"),
		Year:  q.Get("year"),
		Zone:  q.Get("zone"),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeEndpointError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNoRun):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requestID tags each request context with an ID, reusing X-Request-ID when sent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// securityHeaders adds the standard security headers for a JSON API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
