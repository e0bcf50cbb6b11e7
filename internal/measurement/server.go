package measurement

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// Server handles HTTP requests for measurements and figures
type Server struct {
	service   *Service
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="XRD Pattern"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/app.js", s.requireAuth(s.handleStaticJS))

	// API endpoints - measurements
	s.mux.HandleFunc("GET /api/measurements/{id}/file", s.requireAuth(s.handleGetMeasurementFile))
	s.mux.HandleFunc("GET /api/measurements/{id}", s.requireAuth(s.handleGetMeasurement))
	s.mux.HandleFunc("DELETE /api/measurements/{id}", s.requireAuth(s.handleDeleteMeasurement))
	s.mux.HandleFunc("GET /api/measurements", s.requireAuth(s.handleListMeasurements))
	s.mux.HandleFunc("POST /api/measurements", s.requireAuth(s.handleUploadMeasurement))

	// API endpoints - figures
	s.mux.HandleFunc("GET /api/figures/{id}/plot", s.requireAuth(s.handleRenderFigure))
	s.mux.HandleFunc("GET /api/figures/{id}", s.requireAuth(s.handleGetFigure))
	s.mux.HandleFunc("DELETE /api/figures/{id}", s.requireAuth(s.handleDeleteFigure))
	s.mux.HandleFunc("GET /api/figures", s.requireAuth(s.handleListFigures))
	s.mux.HandleFunc("POST /api/figures", s.requireAuth(s.handleCreateFigure))

	s.mux.HandleFunc("GET /api/phases", s.requireAuth(s.handleListPhases))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /{$}", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
