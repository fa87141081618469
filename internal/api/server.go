package api

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"gevent/internal/cache"
	"gevent/internal/config"
	"gevent/internal/database"
	"gevent/internal/handlers"
	"gevent/internal/messaging"
	"gevent/internal/middleware"
	"gevent/internal/models"
	"gevent/internal/repository"
	"gevent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP API server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer wires the full stack: database, NATS, Valkey, repositories,
// services and routes
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Cache is optional: the API works without it, just slower
	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, continuing without cache", "error", err)
		valkeyClient = nil
	}

	repos := repository.NewRepositories(db)

	commissionAccountID, err := ensureCommissionAccount(context.Background(), repos.Users, cfg.CommissionAccountEmail)
	if err != nil {
		log.Fatalf("Failed to ensure commission account: %v", err)
	}

	services := service.NewServices(db, repos, natsClient, commissionAccountID)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

// ensureCommissionAccount resolves the platform commission account by its
// configured email, creating the row on first start. The account has no
// password so it can never authenticate.
func ensureCommissionAccount(ctx context.Context, userRepo *repository.UserRepository, email string) (int64, error) {
	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user != nil {
		return user.ID, nil
	}

	user = &models.User{
		Email:     email,
		FirstName: "GCash",
		LastName:  "Commission",
		Currency:  models.DefaultCurrency,
		IsActive:  true,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return 0, err
	}
	slog.Info("Created commission account", "email", email, "user_id", user.ID)
	return user.ID, nil
}

// setupRoutes registers all API routes
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey)

	api := s.router.Group("/api")
	// Every API route requires Basic Auth
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
			events.PUT("/:id/status", h.UpdateEventStatus)
			events.POST("/:id/cancel", h.CancelEvent)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.PUT("/:id/payment", h.UpdateOrderPayment)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("", h.ListTickets)
			tickets.POST("/validate_qr", h.ValidateQR)
			tickets.POST("/:id/use", h.UseTicket)
			tickets.POST("/:id/cancel", h.CancelTicket)
		}

		wallet := api.Group("/wallet")
		{
			wallet.GET("", h.GetWallet)
			wallet.POST("/deposit", h.Deposit)
			wallet.GET("/transactions", h.ListWalletTransactions)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck reports service and database pool health
func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "gevent-api",
		"version":  "1.0.0",
		"database": dbHealth,
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes external connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
