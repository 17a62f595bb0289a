package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/tokenworks/backend/docs"
	"github.com/tokenworks/backend/internal/audit"
	"github.com/tokenworks/backend/internal/database"
	"github.com/tokenworks/backend/internal/handlers"
	mW "github.com/tokenworks/backend/internal/middleware"
	"github.com/tokenworks/backend/internal/services"
)

// @title Token Ledger API
// @version 1.0
// @description Token ledger with multi-step transfer approval and dividend fan-out
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Token Ledger API"
	docs.SwaggerInfo.Description = "Token ledger with multi-step transfer approval and dividend fan-out"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledger := services.NewLedgerService(db)
	recorder := audit.NewRecorder(db)
	notifier := services.NewNotificationService(redisClient)

	tokenService := services.NewTokenService(db, ledger, recorder, notifier)
	dividendService := services.NewDividendService(db, ledger, recorder, notifier)
	statsService := services.NewStatsService(db)
	authService := services.NewAuthService(db, redisClient, ledger)
	requestCodeService := services.NewRequestCodeService(redisClient)
	requestCodeHandler := handlers.NewRequestCodeHandler(requestCodeService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/account", tokenService.HandleGetAccount)

			r.Get("/transactions", tokenService.HandleListTransactions)
			r.Get("/transactions/pending-confirmations", tokenService.HandleListPendingConfirmations)
			r.Get("/transactions/{txId}", tokenService.HandleGetTransaction)
			r.Post("/transactions/transfer", tokenService.HandleCreateTransfer)
			r.Post("/transactions/{txId}/cancel", tokenService.HandleCancel)
			r.Post("/transactions/{txId}/confirm", tokenService.HandleReceiverConfirm)
			r.Post("/transactions/{txId}/decline", tokenService.HandleReceiverDecline)

			// Transfer request codes
			r.Post("/request-codes", requestCodeHandler.GenerateCode)
			r.Get("/request-codes/{code}/qr", requestCodeHandler.CodeQR)
			r.Post("/request-codes/{code}/consume", requestCodeHandler.ConsumeCode)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.AdminOnly)

				r.Get("/admin/transactions/pending-approvals", tokenService.HandleListPendingApprovals)
				r.Post("/admin/transactions/{txId}/approve", tokenService.HandleAdminApprove)
				r.Post("/admin/transactions/{txId}/reject", tokenService.HandleAdminReject)

				r.Post("/admin/tokens/grant", tokenService.HandleGrant)
				r.Post("/admin/tokens/deduct", tokenService.HandleDeduct)
				r.Post("/admin/tokens/rewards", tokenService.HandleReward)
				r.Post("/admin/tokens/dividends", dividendService.HandleDistribute)

				r.Get("/admin/accounts", statsService.HandleListAccounts)
				r.Get("/admin/statistics", statsService.HandleGlobalStatistics)
				r.Get("/admin/statistics/projects/{projectId}", statsService.HandleProjectStatistics)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
