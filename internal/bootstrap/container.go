package bootstrap

import (
	"context"
	"log"
	"time"

	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/controller"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/pkg/mailer"
	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/internal/repository/implementation"
	"sales-assistant-be/internal/repository/memory"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/internal/service"
	"sales-assistant-be/internal/websocket"
	"sales-assistant-be/pkg/embedding"
	"sales-assistant-be/pkg/llm/factory"
	"sales-assistant-be/pkg/rag/search"
	"sales-assistant-be/pkg/rag/session"
	"sales-assistant-be/pkg/resilience"

	pktNats "sales-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	AdminController  controller.IAdminController
	HealthController controller.IHealthController

	// Background services, started by main
	LeadConsumer service.ILeadConsumerService
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	c.Logger = sysLogger

	breakers := resilience.NewRegistry()
	pipelineBreakers := RegisterBreakers(breakers, cfg.Breaker, sysLogger)

	// 2. Infrastructure
	rdb := connectRedis(cfg.Session.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var sessionRepo contract.SessionRepository
	if cfg.Session.Store == "redis" && rdb != nil {
		sessionRepo = implementation.NewRedisSessionRepository(rdb, cfg.Session.TTL)
		log.Printf("[INFO] Using Session Store: REDIS")
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.Session.TTL)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	var eventPublisher service.EventPublisher
	if cfg.Lead.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Lead.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var leadMailer service.LeadMailer
	if cfg.SMTP.Enabled() {
		leadMailer = mailer.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.Sender)
	}

	wsHub := websocket.NewHub(rdb, sysLogger)
	c.WebSocketHub = wsHub

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 4. Model backends
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL(cfg.Ai),
		APIKey:   cfg.Ai.OpenAIAPIKey,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider := NewEmbeddingProvider(cfg.Ai)

	// 5. Pipeline
	sessions := session.NewManager(sessionRepo, cfg.Session.TTL, sysLogger)

	searcher := search.NewCachedSearcher(
		search.NewVectorSearcher(embeddingProvider, implementation.NewKnowledgeDocumentRepository(db), sysLogger),
		cfg.Retrieval.CacheTTL,
	)
	retriever := search.NewHybridRetriever(searcher, pipelineBreakers.Retrieval, search.Config{
		PerStrategy: cfg.Retrieval.PerStrategy,
		MaxResults:  cfg.Retrieval.MaxResults,
	}, sysLogger)

	leadService := service.NewLeadService(service.NewPublisherService(pubSub, service.LeadTopic), sysLogger)

	chatService := NewChatPipeline(ChatPipeline{
		LLM:       llmProvider,
		Retriever: retriever,
		Sessions:  sessions,
		LeadSink:  leadService,
		Breakers:  pipelineBreakers,
		Ai:        cfg.Ai,
		Retrieval: cfg.Retrieval,
	}, sysLogger)

	c.LeadConsumer = service.NewLeadConsumerService(
		pubSub,
		service.LeadTopic,
		uowFactory,
		eventPublisher,
		leadMailer,
		wsHub,
		service.LeadConsumerConfig{
			DedupWindow: cfg.Lead.DedupWindow,
			NotifyEmail: cfg.Lead.NotifyEmail,
		},
		sysLogger,
	)

	adminService := service.NewAdminService(sessions, breakers, uowFactory, cfg.App.LogFilePath, sysLogger)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService, controller.ChatControllerConfig{
		RequestTimeout:    cfg.App.RequestTimeout,
		HeartbeatInterval: cfg.App.HeartbeatInterval,
	}, sysLogger)
	c.AdminController = controller.NewAdminController(adminService, wsHub, cfg.App.JwtSecret, sysLogger)
	c.HealthController = controller.NewHealthController(adminService)

	return c
}

// NewEmbeddingProvider picks the embedding backend. It is shared with cmd/seed so
// documents and queries are embedded by the same model.
func NewEmbeddingProvider(cfg config.AIConfig) embedding.EmbeddingProvider {
	if cfg.EmbeddingProvider == "openai" {
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.EmbeddingModel)
		return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	}
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.EmbeddingModel)
	return embedding.NewOllamaProvider(cfg.OllamaBaseURL, cfg.EmbeddingModel)
}

func llmBaseURL(cfg config.AIConfig) string {
	if cfg.LLMProvider == "openai" {
		return cfg.OpenAIBaseURL
	}
	return cfg.OllamaBaseURL
}

// connectRedis returns nil when Redis is unreachable; callers fall back to
// single-instance behaviour.
func connectRedis(url string, sysLogger logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Redis unavailable", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
