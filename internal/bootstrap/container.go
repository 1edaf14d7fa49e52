package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"legal-rag-be/internal/config"
	"legal-rag-be/internal/controller"
	"legal-rag-be/internal/handler"
	"legal-rag-be/internal/model"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/contract"
	"legal-rag-be/internal/repository/implementation"
	"legal-rag-be/internal/repository/memory"
	"legal-rag-be/internal/service"
	"legal-rag-be/internal/websocket"
	"legal-rag-be/pkg/database"
	"legal-rag-be/pkg/embedding"
	"legal-rag-be/pkg/events"
	"legal-rag-be/pkg/legal"
	"legal-rag-be/pkg/llm"
	"legal-rag-be/pkg/llm/factory"
	pktNats "legal-rag-be/pkg/nats"
	"legal-rag-be/pkg/rag/response"
	"legal-rag-be/pkg/rag/search"
	"legal-rag-be/pkg/rag/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController  controller.IChatbotController
	DocumentController controller.IDocumentController
	EventFeedHandler   *handler.EventFeedHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	// Exposed for cmd/ingest
	IngestionService service.IIngestionService
	DocumentService  service.IDocumentService
	Logger           logger.ILogger

	closers []func()
}

// Options tune the container for the binary that builds it.
type Options struct {
	// Logger overrides the default zap logger writing to cfg.App.LogFilePath.
	Logger logger.ILogger
}

// NewContainer wires every component. db may be nil, in which case the
// in-process vector index is used.
func NewContainer(db *gorm.DB, cfg *config.Config, opts Options) (*Container, error) {
	// 1. Core Facades
	sysLogger := opts.Logger
	if sysLogger == nil {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	}
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsHub := websocket.NewHub(rdb, sysLogger)
	c.WebSocketHub = wsHub

	publisher := events.Fanout{wsHub}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = append(publisher, natsPub)
			c.closers = append(c.closers, natsPub.Close)
			log.Printf("[INFO] Publishing domain events to NATS (%s)", cfg.App.NatsURL)
		}
	}

	// 3. Providers
	baseEmbedder, err := newEmbeddingProvider(cfg.Ai)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, baseEmbedder.ModelName())

	retrying := embedding.WithRetry(baseEmbedder, embedding.RetryConfig{
		MaxAttempts:     cfg.Rag.RetryAttempts,
		InitialInterval: cfg.Rag.RetryInitialInterval,
	})

	// Queries go through the cache; ingestion goes through the rate limiter.
	var vectorCache embedding.VectorCache = embedding.NewMemoryVectorCache(cfg.Ai.EmbeddingCacheTTL)
	if rdb != nil {
		vectorCache = embedding.NewRedisVectorCache(rdb, cfg.Ai.EmbeddingCacheTTL)
		log.Printf("[INFO] Query embeddings cached in Redis")
	}
	queryEmbedder := embedding.WithCache(retrying, vectorCache)
	limit := rate.Inf
	if cfg.Rag.EmbeddingRatePerSecond > 0 {
		limit = rate.Limit(cfg.Rag.EmbeddingRatePerSecond)
	}
	ingestEmbedder := embedding.WithRateLimit(retrying, rate.NewLimiter(limit, max(cfg.Rag.EmbeddingBurst, 1)))

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	llmProvider = llm.WithRetry(llmProvider, cfg.Rag.RetryAttempts, cfg.Rag.RetryInitialInterval)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Storage
	index, err := newVectorIndex(db, cfg)
	if err != nil {
		return nil, err
	}
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL)

	// 5. RAG engine
	sessions := session.NewManager(sessionRepo, sysLogger)
	retriever := search.NewRetriever(queryEmbedder, index, sysLogger)
	orchestrator := response.NewOrchestrator(retriever, sessions, llmProvider, publisher, sysLogger, response.Config{
		TopK:               cfg.Rag.TopK,
		GroundingWindow:    cfg.Rag.GroundingWindow,
		MaxContextMessages: cfg.Rag.MaxContextMessages,
		Temperature:        cfg.Rag.Temperature,
		MaxTokens:          cfg.Rag.MaxTokens,
	})

	// 6. Services
	ingestionService := service.NewIngestionService(
		index,
		ingestEmbedder,
		legal.NewExtractor(),
		retriever,
		publisher,
		sysLogger,
		service.IngestionConfig{
			ChunkSize:    cfg.Rag.ChunkSize,
			ChunkOverlap: cfg.Rag.ChunkOverlap,
			MinChunkSize: cfg.Rag.MinChunkSize,
			Concurrency:  cfg.Rag.EmbeddingConcurrency,
		},
	)
	publisherService := service.NewPublisherService(cfg.Ingest.Topic, pubSub)
	documentService := service.NewDocumentService(ingestionService, publisherService, cfg.Rag.TopK)
	chatbotService := service.NewChatbotService(orchestrator, sessions, publisher, sysLogger)

	c.IngestionService = ingestionService
	c.DocumentService = documentService
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Ingest.Topic, ingestionService, sysLogger)

	// 7. Controllers
	c.ChatbotController = controller.NewChatbotController(chatbotService, sysLogger)
	c.DocumentController = controller.NewDocumentController(documentService)
	c.EventFeedHandler = handler.NewEventFeedHandler(wsHub, sysLogger)

	return c, nil
}

// Close releases broker and cache connections and flushes the logger.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	case "openai":
		if cfg.EmbeddingAPIKey == "" {
			return nil, fmt.Errorf("EMBEDDING_API_KEY is required for the openai embedding provider")
		}
		return embedding.NewOpenAIProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	case "gemini":
		if cfg.EmbeddingAPIKey == "" {
			return nil, fmt.Errorf("EMBEDDING_API_KEY is required for the gemini embedding provider")
		}
		return embedding.NewGeminiProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingModel), nil
	case "local", "":
		return embedding.NewHashingProvider(cfg.EmbeddingDimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func newVectorIndex(db *gorm.DB, cfg *config.Config) (contract.VectorIndex, error) {
	if db == nil {
		log.Printf("[INFO] Using in-process vector index")
		return memory.NewVectorIndex(cfg.Rag.InsertBatchSize), nil
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, &model.LegalChunk{}); err != nil {
			return nil, err
		}
	}
	log.Printf("[INFO] Using pgvector index")
	return implementation.NewPgVectorIndex(db, cfg.Rag.InsertBatchSize), nil
}

// connectRedis returns nil when url is empty or the server does not answer.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
