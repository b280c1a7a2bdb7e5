package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parkhive/internal/config"
	"parkhive/internal/database"
	"parkhive/internal/domain"
	"parkhive/internal/metrics"
	"parkhive/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportExporter renders owner activity reports to files.
type ReportExporter interface {
	ExportOwnerReport(ctx context.Context, ownerID int64, start, end time.Time) (string, error)
}

// HTTPServer exposes the marketplace API for the rendering layer.
type HTTPServer struct {
	cfg      *config.APIConfig
	db       *database.DB
	spaces   domain.SpaceService
	requests domain.RequestService
	wallets  domain.WalletService
	users    domain.UserService
	cache    domain.CacheRepository
	exporter ReportExporter
	auth     *HTTPAuth
	logger   zerolog.Logger
	server   *http.Server
}

// WithExporter enables the owner report endpoint. Must be called before Start.
func (s *HTTPServer) WithExporter(exporter ReportExporter) *HTTPServer {
	s.exporter = exporter
	return s
}

func NewHTTPServer(
	cfg *config.APIConfig,
	db *database.DB,
	spaces domain.SpaceService,
	requests domain.RequestService,
	wallets domain.WalletService,
	users domain.UserService,
	cache domain.CacheRepository,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		db:       db,
		spaces:   spaces,
		requests: requests,
		wallets:  wallets,
		users:    users,
		cache:    cache,
	}
	srv.auth = NewHTTPAuth(cfg)
	if logger != nil {
		srv.logger = logger.With().Str("component", "http_api").Logger()
	} else {
		srv.logger = zerolog.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/spaces/nearby", srv.handleNearby)
	mux.HandleFunc("/api/v1/spaces/", srv.handleSpaceByID)
	mux.HandleFunc("/api/v1/spaces", srv.handleSpaces)
	mux.HandleFunc("/api/v1/requests/", srv.handleRequestByID)
	mux.HandleFunc("/api/v1/requests", srv.handleRequests)
	mux.HandleFunc("/api/v1/wallet/credit", srv.handleWalletCredit)
	mux.HandleFunc("/api/v1/wallet/debit", srv.handleWalletDebit)
	mux.HandleFunc("/api/v1/wallet/pay", srv.handleWalletPay)
	mux.HandleFunc("/api/v1/wallet", srv.handleWallet)
	mux.HandleFunc("/api/v1/owners/", srv.handleOwnerEarnings)
	mux.HandleFunc("/api/v1/users/me", srv.handleUserMe)
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/readyz", srv.handleReadyz)

	handler := srv.loggingMiddleware(corsMiddleware(srv.auth.Wrap(srv.userRateLimit(mux))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// actorID extracts the acting user's identity from the configured header.
func (s *HTTPServer) actorID(r *http.Request) (int64, error) {
	header := strings.TrimSpace(s.cfg.Auth.HeaderUserID)
	if header == "" {
		header = "x-user-id"
	}
	raw := strings.TrimSpace(r.Header.Get(header))
	if raw == "" {
		return 0, fmt.Errorf("%s header is required", header)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s header", header)
	}
	return id, nil
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.db == nil || s.db.PingContext(r.Context()) != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// userRateLimit throttles mutating calls per acting user via the cache layer.
func (s *HTTPServer) userRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cache == nil || (r.Method != http.MethodPost && r.Method != http.MethodDelete) {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.actorID(r)
		if err != nil {
			// Identity errors are reported by the handler itself.
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := s.cache.CheckRateLimit(r.Context(), userID, models.ActionRateLimit, models.ActionRateWindow*time.Second)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", requestID).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-User-ID, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
