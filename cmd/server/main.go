package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"core/internal/config"
	"core/internal/handler"
	"core/internal/repository"
	"core/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Property Inquiry Assistant")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize completion gateway
	gateway := service.NewGateway(&cfg.LLM)
	if cfg.LLM.Enabled {
		log.Printf("✅ Completion gateway initialized")
		log.Printf("   - API Base: %s", cfg.LLM.APIBase)
		log.Printf("   - Chat model: %s", cfg.LLM.ChatModel)
		log.Printf("   - Embedding model: %s", cfg.LLM.EmbeddingModel)
		log.Printf("   - Temperature: %.2f", cfg.LLM.Temperature)
		log.Printf("   - MaxTokens: %d", cfg.LLM.MaxTokens)
	} else {
		log.Println("⚠️  Completion API is disabled - replies will use locally composed responses")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI replies")
	}

	// Initialize services
	extractor := service.NewExtractor()
	knowledge := service.NewKnowledgeBase()
	matcher := service.NewMatcher(repo, cfg.Chat.MatchLimit, cfg.Chat.RecommendLimit)
	dialogue := service.NewDialogueMachine()
	notifier := service.NewWebhookNotifier(cfg.Company.AgentWebhookURL)
	orchestrator := service.NewOrchestrator(
		extractor,
		matcher,
		knowledge,
		dialogue,
		gateway,
		repo,
		notifier,
		cfg.Company,
		cfg.Chat,
	)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(orchestrator, repo, cfg.Chat.HistoryLimit)
	propertyHandler := handler.NewPropertyHandler(repo)
	embeddingHandler := handler.NewEmbeddingHandler(repo, gateway, cfg.LLM.EmbeddingModel)
	feedbackHandler := handler.NewFeedbackHandler(repo)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "property-inquiry-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Chat endpoints
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/chat/stream", chatHandler.ChatStream) // Streaming chat
		apiV1.GET("/properties/:id", propertyHandler.Get)

		// Embedding endpoints
		apiV1.POST("/embeddings/batch", embeddingHandler.BatchUpdate)

		// Feedback endpoint
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API base: http://localhost:%d/api/v1", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
