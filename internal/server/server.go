package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"saultochat/internal/ai"
	"saultochat/internal/config"
	"saultochat/internal/handler"
	authHandler "saultochat/internal/handler/auth"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/cache"
	"saultochat/internal/pkg/mongodb"
	"saultochat/internal/pkg/storage"
	"saultochat/internal/pkg/storagefactory"
	"saultochat/internal/repository"
	authRepo "saultochat/internal/repository/auth"
	"saultochat/internal/server/middleware"
	"saultochat/internal/service"
)

// Server the HTTP server and its wired dependencies.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// Deps are the swappable backends behind the services. Production
// wiring fills them from configuration; tests inject memory stores and
// a mock chat model.
type Deps struct {
	ConvStore repository.ConversationStore
	UserStore authRepo.UserStore
	States    cache.StateStore
	Storage   storage.Storage
	AIClient  *ai.Client
}

// New creates a fully wired server. Mongo and Redis are optional: when
// absent the server falls back to in-memory stores, so the app runs
// with no external services at all.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	var deps Deps

	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	if mongoClient != nil {
		deps.ConvStore = repository.NewMongoConversationStore(mongoClient.Database())
		deps.UserStore = authRepo.NewMongoUserStore(mongoClient.Database())
	} else {
		log.Warn().Msg("MongoDB not configured, conversations and users are in-memory only")
		deps.ConvStore = repository.NewMemoryConversationStore()
		deps.UserStore = authRepo.NewMemoryUserStore()
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	if redisCache != nil {
		deps.States = cache.NewRedisStateStore(redisCache, cfg.Auth.StateTTL)
	} else {
		deps.States = cache.NewMemoryStateStore(cfg.Auth.StateTTL)
	}

	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}
	deps.Storage = store
	log.Info().Str("type", store.GetStorageType()).Msg("initialized attachment storage")

	aiClient, err := ai.NewClient(ctx, &cfg.AI)
	if err != nil {
		return nil, err
	}
	deps.AIClient = aiClient

	srv := NewWithDeps(cfg, deps)
	srv.mongo = mongoClient
	srv.redis = redisCache
	return srv, nil
}

// NewWithDeps wires the server over explicit backends.
func NewWithDeps(cfg *config.Config, deps Deps) *Server {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
	}
	srv.setupRoutes(deps)
	return srv
}

func (s *Server) setupRoutes(deps Deps) {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authSvc := service.NewAuthService(deps.UserStore, deps.States, &s.cfg.Auth)
	convSvc := service.NewConversationService(deps.ConvStore)
	uploadSvc := service.NewUploadService(deps.Storage, s.cfg.Upload.MaxSize)
	composer := ai.NewComposer(deps.Storage)
	chatSvc := service.NewChatService(deps.ConvStore, deps.AIClient, composer)

	if err := authSvc.EnsureAdmin(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin account")
	}

	// Session middleware, or a fixed local account when OAuth is not
	// configured so the app stays usable in development.
	sessionRequired := middleware.Session(authSvc)
	if s.cfg.Auth.ClientID == "" {
		log.Warn().Msg("OAuth not configured, all requests run as a local dev user")
		devUser := &auth.User{
			ID:    "dev-user",
			Email: "dev@localhost",
			Name:  "Local Developer",
			Role:  auth.RoleAdmin,
		}
		if err := deps.UserStore.Create(context.Background(), devUser); err != nil {
			log.Warn().Err(err).Msg("failed to seed dev user")
		}
		sessionRequired = middleware.DevUser(devUser)
	}

	secureCookie := strings.HasPrefix(s.cfg.Auth.RedirectURL, "https://")
	authHdl := authHandler.NewHandler(authSvc, secureCookie)
	s.engine.GET("/microsoft-login", authHdl.MicrosoftLogin)
	s.engine.GET("/microsoft-auth", authHdl.MicrosoftCallback)
	s.engine.GET("/logout", authHdl.Logout)

	convHdl := handler.NewConversationHandler(convSvc)
	chatHdl := handler.NewChatHandler(chatSvc, uploadSvc)
	uploadHdl := handler.NewUploadHandler(uploadSvc)
	userHdl := handler.NewUserHandler(authSvc)

	api := s.engine.Group("/api")
	api.Use(sessionRequired)
	{
		api.GET("/conversation", convHdl.Get)
		api.DELETE("/conversation", convHdl.Delete)
		api.PATCH("/conversation/pin", convHdl.Pin)
		api.GET("/conversations", convHdl.List)

		api.POST("/message", chatHdl.SendMessage)
		api.POST("/chat/stream", chatHdl.Stream)
		api.POST("/chat", chatHdl.Complete)

		api.POST("/upload", uploadHdl.Upload)
		api.GET("/uploads/:filename", uploadHdl.Download)

		api.GET("/user/profile", userHdl.Profile)
	}

	admin := s.engine.Group("/admin")
	admin.Use(sessionRequired, middleware.AdminOnly())
	{
		admin.GET("/users", userHdl.ListUsers)
		admin.PUT("/user/:id/role", userHdl.UpdateRole)
	}

	s.setupFrontend()
}

// setupFrontend serves the pre-built SPA bundle. Unknown non-API paths
// fall back to index.html so client-side routing works.
func (s *Server) setupFrontend() {
	staticDir := s.cfg.Frontend.StaticDir
	if staticDir == "" {
		return
	}

	s.engine.Static("/static", filepath.Join(staticDir, "static"))
	s.engine.StaticFile("/", filepath.Join(staticDir, "index.html"))
	s.engine.StaticFile("/login", filepath.Join(staticDir, "index.html"))

	s.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/admin") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})
}

// Run starts the server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine returns the gin engine, for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
