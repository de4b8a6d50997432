// main.go
package main

import (
	"log"
	"strings"
	"sync"
	"time"

	"interviewcredits/internal/config"
	"interviewcredits/internal/database"
	"interviewcredits/internal/gateway"
	"interviewcredits/internal/handlers"
	"interviewcredits/internal/middleware"
	"interviewcredits/internal/models"
	"interviewcredits/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Environment)

	// Initialize database connection
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize Firebase service
	firebaseService, err := services.NewFirebaseService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Firebase service:", err)
	}

	// Credit pack catalog is fixed at startup; changing packs is a deploy.
	catalog := models.DefaultCreditPackCatalog()

	// Initialize payment gateway adapter
	razorpayGateway := gateway.NewRazorpayGateway(cfg)

	// Initialize services
	walletService := services.NewWalletService(db)
	paymentService := services.NewPaymentService(db, catalog, razorpayGateway)

	// Initialize handlers
	walletHandler := handlers.NewWalletHandler(walletService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Initialize rate limiter
	rateLimiter := NewRateLimiter()

	// Setup router
	router := setupRouter(cfg, rateLimiter)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		dbStats := database.Stats()

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": database.Health() == nil,
			"app":      "interview-credits",
			"gateway": gin.H{
				"provider": "razorpay",
				"enabled":  razorpayGateway.Enabled(),
			},
			"database_stats": gin.H{
				"open_connections": dbStats.OpenConnections,
				"in_use":           dbStats.InUse,
				"idle":             dbStats.Idle,
			},
		})
	})

	// Setup routes
	setupRoutes(router, firebaseService, walletHandler, paymentHandler)

	// Start server
	port := cfg.Port
	log.Printf("🚀 Interview Credits server starting on port %s", port)
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("💾 Database connected and migrated")
	log.Printf("🔥 Firebase service initialized")
	if razorpayGateway.Enabled() {
		log.Printf("💳 Razorpay gateway enabled")
	} else {
		log.Printf("💳 Razorpay gateway disabled (mock UPI links only)")
	}

	log.Fatal(router.Run(":" + port))
}

func setupRouter(cfg *config.Config, rateLimiter *RateLimiter) *gin.Engine {
	router := gin.Default()

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.Use(createRateLimitMiddleware(rateLimiter))

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			"Cache-Control", "If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length", "Cache-Control",
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	})

	return router
}

func setupRoutes(
	router *gin.Engine,
	firebaseService *services.FirebaseService,
	walletHandler *handlers.WalletHandler,
	paymentHandler *handlers.PaymentHandler,
) {
	api := router.Group("/api/v1")

	// ===============================
	// PUBLIC ROUTES
	// ===============================
	public := api.Group("")
	{
		public.GET("/packs", paymentHandler.GetPacks)

		// Gateway webhook: authenticated by signature, not by user token
		public.POST("/payments/webhook", paymentHandler.Webhook)
	}

	// ===============================
	// PROTECTED ROUTES
	// ===============================
	protected := api.Group("")
	protected.Use(middleware.FirebaseAuth(firebaseService))
	{
		// ===== WALLET =====
		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/transactions", walletHandler.GetTransactions)
		protected.POST("/wallet/deduct", walletHandler.Deduct)

		// ===== PAYMENTS =====
		protected.POST("/payments/order", paymentHandler.CreateOrder)

		// ===============================
		// ADMIN ROUTES
		// ===============================
		admin := protected.Group("")
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/admin/wallet/:userId/adjust", walletHandler.AdjustCredits)
			admin.POST("/admin/wallet/:userId/refund", walletHandler.RefundCredits)
		}
	}
}

// RateLimiter is a simple per-IP fixed-window limiter
type RateLimiter struct {
	visitors map[string]*Visitor
	mutex    sync.RWMutex
}

type Visitor struct {
	requests int
	lastSeen time.Time
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
	}
	go rl.cleanupRoutine()
	return rl
}

func (rl *RateLimiter) Allow(ip string, limit int, window time.Duration) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	visitor, exists := rl.visitors[ip]
	now := time.Now()

	if !exists || now.Sub(visitor.lastSeen) > window {
		rl.visitors[ip] = &Visitor{
			requests: 1,
			lastSeen: now,
		}
		return true
	}

	if visitor.requests >= limit {
		return false
	}

	visitor.requests++
	visitor.lastSeen = now
	return true
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, visitor := range rl.visitors {
		if visitor.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func createRateLimitMiddleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		path := c.Request.URL.Path

		var limit int
		window := time.Minute

		// The gateway retries aggressively on non-2xx, keep webhook headroom
		if strings.Contains(path, "/payments/webhook") {
			limit = 300
		} else if strings.Contains(path, "/payments") || strings.Contains(path, "/wallet") {
			limit = 100
		} else {
			limit = 200
		}

		if !rateLimiter.Allow(ip, limit, window) {
			c.Header("Retry-After", "60")
			c.JSON(429, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
