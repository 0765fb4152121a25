package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memopilot/internal/config"
	"memopilot/internal/handlers"
	"memopilot/internal/logging"
	"memopilot/internal/middleware"
	"memopilot/internal/services"
	"memopilot/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	log.Println("🚀 Starting MemoPilot Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (App: %s, ClientPort: %s, AgentPort: %s)", cfg.AppName, cfg.ClientPort, cfg.AgentPort)

	// Structured logging (JSON in production, text in dev)
	logging.Init(cfg.IsDev)

	if cfg.Mem0APIKey == "" {
		log.Println("⚠️  MEM0_API_KEY not set - memory service calls will be rejected upstream")
	}

	// Token verifier
	var verifier *auth.JWTVerifier
	if cfg.JWTSecret != "" {
		var err error
		verifier, err = auth.NewJWTVerifier(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize token verifier: %v", err)
		}
		log.Println("✅ Token verifier initialized")
	} else if !cfg.IsDev {
		// CRITICAL: never allow auth bypass in production
		log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required outside development mode")
	}

	// Metrics
	metrics := services.InitMetrics()

	// Memory service client and its cache layer. The cache service is an
	// explicitly constructed instance handed to the handlers; nothing else
	// mutates the caches outside its reset/invalidate operations.
	mem0Client := services.NewMem0Client(cfg.Mem0BaseURL, cfg.Mem0APIKey, cfg.Mem0ProjectID, metrics)
	memoryCache := services.NewMemoryCacheService(mem0Client, cfg.MemoryCacheTTL, cfg.MemoryCacheMaxEntries, metrics)
	log.Printf("✅ Memory cache initialized (TTL: %s, max entries: %d)", cfg.MemoryCacheTTL, cfg.MemoryCacheMaxEntries)

	if cfg.Mem0WebhookSecret == "" {
		log.Println("⚠️  MEM0_WEBHOOK_SECRET not set - webhook deliveries are accepted unauthenticated")
	}
	if cfg.WebhookHost != "" {
		log.Printf("📡 Webhook callback host: %s", cfg.WebhookHost)
	}

	// Agent runtime child process
	agentRuntime := services.NewAgentRuntimeService(cfg.AgentCmd, cfg.AgentPort, cfg.DBURL)
	if cfg.AgentCmd != "" {
		if err := agentRuntime.Start(); err != nil {
			log.Fatalf("❌ Failed to start agent runtime: %v", err)
		}
	} else {
		log.Println("⚠️  AGENT_CMD not set - agent runtime not launched, /api/chat will be unavailable")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  300 * time.Second, // agent responses can be slow
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  300 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New(cfg.AppName)
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig(cfg.IsDev)
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Webhook=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.WebhookMax,
	)

	// Initialize handlers
	memoryHandler := handlers.NewMemoryHandler(memoryCache, cfg.IsDev)
	webhookHandler := handlers.NewWebhookHandler(memoryCache, cfg.Mem0WebhookSecret, metrics)
	agentProxyHandler := handlers.NewAgentProxyHandler(cfg.AgentPort)
	healthHandler := handlers.NewHealthHandler(memoryCache)

	// Auth middleware: verified bearer tokens, or a fixed dev identity when
	// no secret is configured in development
	var authMiddleware fiber.Handler
	if verifier != nil {
		authMiddleware = middleware.Auth(verifier)
	} else {
		authMiddleware = middleware.DevAuth()
	}

	// Routes
	app.Get("/health", healthHandler.Handle)

	memory := app.Group("/memory")
	memory.Post("/webhook", middleware.WebhookRateLimiter(rateLimitConfig), webhookHandler.Handle)
	memory.Use(middleware.GlobalAPIRateLimiter(rateLimitConfig))
	memory.Get("/all", authMiddleware, memoryHandler.ListMemories)
	memory.Post("/warmup", authMiddleware, memoryHandler.Warmup)
	memory.Delete("/:id", authMiddleware, memoryHandler.DeleteMemory)

	// Agent runtime proxy
	app.All("/api/chat", agentProxyHandler.Proxy)
	app.All("/api/chat/*", agentProxyHandler.Proxy)

	// Development-only token minting
	if cfg.IsDev && verifier != nil {
		devTokenHandler := handlers.NewDevTokenHandler(verifier)
		app.Post("/auth/dev-token", devTokenHandler.Mint)
		log.Println("⚠️  Dev token endpoint enabled at /auth/dev-token")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 Shutting down...")

		agentRuntime.Stop()

		// Shutdown Fiber
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.ClientPort); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	log.Println("✅ Server stopped")
}
