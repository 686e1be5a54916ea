package main

import (
	"context"
	"fmt"
	"time"

	"crewdesk/internal/auth"
	"crewdesk/internal/chat"
	appconfig "crewdesk/internal/config"
	"crewdesk/internal/knowledge"
	"crewdesk/pkg/config"
	"crewdesk/pkg/database"
	"crewdesk/pkg/llm"
	"crewdesk/pkg/logging"
	"crewdesk/pkg/monitoring"
	"crewdesk/pkg/server"
	"crewdesk/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("crewdesk")

	config.LoadEnv(logger)

	logger.Info("Starting crewdesk (specialist chat service)")

	cfg := appconfig.LoadConfig()

	// Database is optional: without it the service answers chats with no
	// history, no logging, and no knowledge base.
	var db database.PostgresConn
	if cfg.DatabaseURL == "" {
		logger.Warn("No database configured - history, logging and knowledge disabled")
	} else {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = cfg.DatabaseURL
		conn, err := database.Connect(dbConfig, logger)
		if err != nil {
			logger.WithError(err).Warn("Database connection failed - continuing without persistence")
		} else {
			db = conn
			defer func() { _ = db.Close() }()
		}
	}

	llmProvider, err := llm.NewProvider(llm.Config{
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		APIKey:    cfg.LLMAPIKey,
		APIURL:    cfg.LLMAPIURL,
		MaxTokens: cfg.LLMMaxTokens,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize LLM provider")
		llmProvider = nil
	}

	embeddingClient, err := llm.NewEmbeddingClient(llm.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
		APIKey:   cfg.EmbeddingAPIKey,
		APIURL:   cfg.EmbeddingAPIURL,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize embedding client")
		embeddingClient = nil
	}

	// EMBEDDING_DIMENSIONS overrides; otherwise one probe call to the
	// embedding backend discovers the model's output size.
	dimensions := cfg.EmbeddingDimensions
	if embeddingClient != nil && dimensions <= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		dimensions, err = llm.ProbeEmbeddingDimensions(ctx, embeddingClient)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Embedding dimension discovery failed - knowledge base disabled")
			embeddingClient = nil
		} else {
			logger.WithField("dimensions", dimensions).Info("Discovered embedding dimensions")
		}
	}

	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := knowledge.EnsureSchema(ctx, db, dimensions); err != nil {
			logger.WithError(err).Warn("Schema bootstrap failed - tables may be missing")
		}
		cancel()
	}

	var knowledgeStore *knowledge.Store
	var embedder *knowledge.Embedder
	if db != nil && embeddingClient != nil {
		knowledgeStore = knowledge.NewStore(db)
		embedder, err = knowledge.NewEmbedder(embeddingClient, dimensions)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize knowledge embedder")
			knowledgeStore = nil
		}
	}

	orchestratorHandle := chat.NewHandle(func() (*chat.Orchestrator, error) {
		if llmProvider == nil {
			return nil, fmt.Errorf("LLM provider is not configured: %w", chat.ErrNotConfigured)
		}
		return chat.NewOrchestrator(chat.OrchestratorConfig{
			Provider:    llmProvider,
			Knowledge:   knowledgeStore,
			Embedder:    embedder,
			Logger:      logger,
			Timeout:     cfg.LLMTimeout,
			SearchLimit: cfg.SearchLimit,
			AutoLearn:   cfg.AutoLearn,
		})
	})

	var conversationStore *chat.ConversationStore
	if db != nil {
		conversationStore = chat.NewConversationStore(db)
	}
	chatHandler := chat.NewChatHandler(conversationStore, orchestratorHandle, logger, cfg.HistoryLimit)

	healthChecker := monitoring.NewHealthChecker("crewdesk", version.Version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	requiredConfig := map[string]string{"LLM_MODEL": cfg.LLMModel}
	if cfg.RequiresAPIKey() {
		requiredConfig["LLM_API_KEY"] = cfg.LLMAPIKey
	}
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(requiredConfig))
	healthChecker.AddCheck("knowledge", func() monitoring.CheckResult {
		if knowledgeStore == nil {
			return monitoring.CheckResult{Status: monitoring.StatusDegraded, Message: "Knowledge base disabled"}
		}
		return monitoring.CheckResult{Status: monitoring.StatusHealthy, Message: "Knowledge base enabled"}
	})
	healthChecker.AddCheck("orchestrator", func() monitoring.CheckResult {
		if orchestratorHandle.Ready() {
			return monitoring.CheckResult{Status: monitoring.StatusHealthy, Message: "Orchestrator initialized"}
		}
		return monitoring.CheckResult{Status: monitoring.StatusDegraded, Message: "Orchestrator not yet initialized"}
	})

	router := server.SetupRouter(logger, "crewdesk", cfg.AllowedOrigins)
	router.GET("/health", healthChecker.Handler())
	chat.RegisterRoutes(router, chatHandler)

	loginHandler, err := auth.NewLoginHandler(cfg.UsersFile, cfg.JWTSecret, cfg.SessionTTL, logger)
	if err != nil {
		logger.WithError(err).Warn("Login disabled: users file unavailable")
	} else {
		auth.RegisterRoutes(router, loginHandler)
	}

	serverConfig := server.DefaultConfig("crewdesk", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
