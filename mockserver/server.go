// Package mockserver serves a catalog of models over HTTP: the marketplace
// listing under an API prefix and every model endpoint answering from its
// documented templates. It backs demos and integration tests of the sandbox.
package mockserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"modelhub-sdk/catalog"
	"modelhub-sdk/models"
)

// Options configures the mock behaviour
type Options struct {
	// APIPrefix is where the marketplace listing is mounted. Defaults to /api.
	APIPrefix string
	// RequestsPerMinute limits calls per model; 0 disables limiting
	RequestsPerMinute int
	Burst             int
	// ForceStatus makes every model call fail with this status when >= 400
	ForceStatus int
	// Latency is added before each model response
	Latency time.Duration
	Logger  *log.Logger
}

// Server is an http.Handler serving a catalog
type Server struct {
	catalog *catalog.Catalog
	opts    Options
	limiter *limiter
	router  *mux.Router
	logger  *log.Logger
}

// New builds the routes for every model in cat
func New(cat *catalog.Catalog, opts Options) *Server {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	s := &Server{
		catalog: cat,
		opts:    opts,
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = newLimiter(opts.RequestsPerMinute, opts.Burst)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix(s.opts.APIPrefix).Subrouter()
	api.HandleFunc("/models", s.listModels).Methods("GET", "OPTIONS")
	api.HandleFunc("/models/{id}", s.getModel).Methods("GET", "OPTIONS")

	// First declaration wins when two models document the same route
	for _, m := range s.catalog.Models() {
		for _, ep := range m.Endpoints {
			path := routePath(ep.Path)
			if path == "" {
				s.logger.Printf("skipping endpoint %s of %s: unusable path", ep.Label(), m.ID)
				continue
			}
			r.Handle(path, s.modelHandler(m.ID, ep)).Methods(ep.Method, "OPTIONS")
		}
	}

	r.Use(corsMiddleware)
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// listModels handles GET {prefix}/models
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

// getModel handles GET {prefix}/models/{id}
func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m, ok := s.catalog.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "model not found"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) modelHandler(modelID string, ep models.Endpoint) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		if s.limiter != nil && !s.limiter.allow(modelID) {
			w.Header().Set("Retry-After", strconv.Itoa(s.limiter.retryAfter(modelID)))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"code":    "rate_limited",
				"message": fmt.Sprintf("too many requests for model %s", modelID),
			})
			s.logger.Printf("%s %s -> 429", r.Method, r.URL.Path)
			return
		}

		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}

		if s.opts.ForceStatus >= 400 {
			writeRaw(w, s.opts.ForceStatus, errorBody(ep, "mock_failure", "forced failure"))
			s.logger.Printf("%s %s -> %d (forced)", r.Method, r.URL.Path, s.opts.ForceStatus)
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			body, err := io.ReadAll(r.Body)
			if err != nil || !json.Valid(body) {
				writeRaw(w, http.StatusBadRequest, errorBody(ep, "bad_request", "request body must be JSON"))
				s.logger.Printf("%s %s -> 400", r.Method, r.URL.Path)
				return
			}
		}

		response := []byte(ep.ResponseTemplate)
		if !json.Valid(response) {
			response = []byte("{}")
		}
		writeRaw(w, http.StatusOK, response)
		s.logger.Printf("%s %s -> 200", r.Method, r.URL.Path)
	})
}

// routePath reduces an endpoint path to the route the mock serves
func routePath(path string) string {
	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// errorBody prefers the documented error template
func errorBody(ep models.Endpoint, code, message string) []byte {
	if ep.ErrorTemplate != "" && json.Valid([]byte(ep.ErrorTemplate)) {
		return []byte(ep.ErrorTemplate)
	}
	data, _ := json.Marshal(map[string]string{"code": code, "message": message})
	return data
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// corsMiddleware lets a browser-hosted sandbox call the mock
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Request-ID, X-API-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
