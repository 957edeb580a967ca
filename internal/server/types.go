package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/MeKo-Tech/keva/internal/journey"
	"github.com/MeKo-Tech/keva/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	store       *store.Store
	tracker     *journey.Tracker
	hub         *Hub
	rateLimiter *RateLimiter
	corsOrigin  string
	apiKey      string
	maxBodyMB   int64
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	APIKey          string
	MaxBodyMB       int64
	TimeoutSec      int
	DataDir         string
	JournalEnabled  bool
	TrackingEnabled bool
	RateLimit       RateLimitConfig
}

// Response types for API endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type EntryResponse struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Revision  int64  `json:"revision"`
	UpdatedAt string `json:"updated_at"`
}

type PutResponse struct {
	Key      string `json:"key"`
	Revision int64  `json:"revision"`
}

type DeleteResponse struct {
	Key      string `json:"key"`
	Revision int64  `json:"revision"`
	Deleted  bool   `json:"deleted"`
}

type KeysResponse struct {
	Keys     []string `json:"keys"`
	Count    int      `json:"count"`
	Revision int64    `json:"revision"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// JournalFileName is the journal file created under the data directory.
const JournalFileName = "keva.journal"

// NewServer creates a new keva server instance.
func NewServer(config Config) (*Server, error) {
	var jl *store.Journal
	if config.JournalEnabled {
		path := filepath.Join(config.DataDir, JournalFileName)
		var err error
		jl, err = store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
	}

	st, err := store.New(jl)
	if err != nil {
		return nil, fmt.Errorf("building store: %w", err)
	}
	storeKeys.Set(float64(st.Len()))

	var limiter *RateLimiter
	if config.RateLimit.Enabled {
		limiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}

	return &Server{
		store:       st,
		tracker:     journey.NewTracker(config.TrackingEnabled),
		hub:         NewHub(),
		rateLimiter: limiter,
		corsOrigin:  config.CORSOrigin,
		apiKey:      config.APIKey,
		maxBodyMB:   config.MaxBodyMB,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/keys", s.corsMiddleware(s.keysHandler))
	mux.HandleFunc("/kv/", s.corsMiddleware(s.rateLimitMiddleware(s.trackingMiddleware(s.kvHandler))))
	mux.HandleFunc("/admin/journeys", s.corsMiddleware(s.journeysHandler))
	mux.HandleFunc("/watch", s.watchHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
