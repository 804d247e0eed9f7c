// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/service"
)

// Service interfaces for dependency injection and testing

// LoanServiceInterface defines the interface for loan lifecycle operations
type LoanServiceInterface interface {
	QuoteBorrow(ctx context.Context, input *service.QuoteInput) (*service.Quote, error)
	SubmitBorrow(ctx context.Context, input *service.BorrowInput) (*models.Loan, error)
	SubmitRepayment(ctx context.Context, input *service.RepaymentInput) (*service.RepaymentResult, error)
	ListLoans(ctx context.Context, borrower string) ([]*models.Loan, error)
}

// LendingServiceInterface defines the interface for lending ledger operations
type LendingServiceInterface interface {
	SubmitDeposit(ctx context.Context, input *service.DepositInput) (*models.LendingPosition, error)
	Positions(ctx context.Context, lender string) (*service.PositionsView, error)
}

// UserStoreInterface defines the user operations exposed over the API
type UserStoreInterface interface {
	GetOrCreate(ctx context.Context, wallet string) (*models.User, error)
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	UpdateProfile(ctx context.Context, wallet string, displayName, email *string) error
}

// HealthChecker reports reachability of a backing dependency.
type HealthChecker func(ctx context.Context) error

// Server represents the HTTP API server.
type Server struct {
	router         *mux.Router
	httpServer     *http.Server
	loanService    LoanServiceInterface
	lendingService LendingServiceInterface
	users          UserStoreInterface
	health         map[string]HealthChecker
	config         *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	WalletRPS       int // Requests per second per wallet
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	loanService LoanServiceInterface,
	lendingService LendingServiceInterface,
	users UserStoreInterface,
	health map[string]HealthChecker,
) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		loanService:    loanService,
		lendingService: lendingService,
		users:          users,
		health:         health,
		config:         config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.WalletRPS)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Borrow flow
	api.HandleFunc("/quotes", s.handleQuoteBorrow).Methods("POST")
	api.HandleFunc("/loans", s.handleSubmitBorrow).Methods("POST")
	api.HandleFunc("/loans", s.handleListLoans).Methods("GET")
	api.HandleFunc("/loans/{id}/repayment", s.handleSubmitRepayment).Methods("POST")

	// Lending flow
	api.HandleFunc("/lending", s.handleSubmitDeposit).Methods("POST")
	api.HandleFunc("/lending", s.handleListPositions).Methods("GET")

	// User endpoints
	api.HandleFunc("/users", s.handleConnectUser).Methods("POST")
	api.HandleFunc("/users/{wallet}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{wallet}", s.handleUpdateUser).Methods("PUT")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":  "healthy",
		"service": "lending-engine",
	}

	code := http.StatusOK
	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			status[name] = "unreachable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status[name] = "ok"
		}
	}

	respondJSON(w, code, status)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
