// Package app wires the application together.
package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dostavo/server/internal/adapter/cdek"
	"github.com/dostavo/server/internal/adapter/otp"
	"github.com/dostavo/server/internal/adapter/posterminal"
	"github.com/dostavo/server/internal/module/city"
	"github.com/dostavo/server/internal/module/deliverygraph"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/module/order/statushandler"
	"github.com/dostavo/server/internal/module/postcontrol"
	"github.com/dostavo/server/internal/module/status"
	sharedcache "github.com/dostavo/server/internal/shared/cache"
	"github.com/dostavo/server/internal/shared/config"
	"github.com/dostavo/server/internal/shared/database"
	"github.com/dostavo/server/internal/shared/logger"
	"github.com/dostavo/server/internal/shared/metrics"
	"github.com/dostavo/server/internal/shared/middleware"
	"github.com/dostavo/server/internal/shared/queue"
)

// App represents the application.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	orderHandler       *order.Handler
	graphHandler       *deliverygraph.Handler
	postcontrolHandler *postcontrol.Handler

	orderService       *order.Service
	postcontrolService *postcontrol.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New(""),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	app.redis = redisClient

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	return app, nil
}

// initModules builds the module graph by hand, repositories first.
func (a *App) initModules() error {
	cityRepo := city.NewRepository(a.db)
	clock := city.NewClock(cityRepo)
	statusRepo := status.NewRepository(a.db)
	orderRepo := order.NewRepository(a.db)
	graphRepo := deliverygraph.NewRepository(a.db)
	recorder := history.NewRecorder(a.db)

	graphService := deliverygraph.NewService(graphRepo, a.redis, a.zapLogger)
	publisher := queue.NewRedisPublisher(a.redis, a.config.Queue.Channel, a.metrics, a.zapLogger)

	otpRegistry, err := otp.NewRegistry(&a.config.OTP, a.zapLogger)
	if err != nil {
		return fmt.Errorf("init otp adapters: %w", err)
	}
	registrar := posterminal.NewClient(&a.config.POSTerminal, a.metrics, a.zapLogger)
	courierService := cdek.NewClient(&a.config.CDEK, a.metrics, a.zapLogger)

	handlers := statushandler.NewRegistry(statushandler.Deps{
		Repo:       orderRepo,
		StatusRepo: statusRepo,
		Recorder:   recorder,
		OTP:        otpRegistry,
		Registrar:  registrar,
		CDEK:       courierService,
		Publisher:  publisher,
	})

	a.orderService = order.NewService(
		orderRepo,
		statusRepo,
		graphService,
		recorder,
		clock,
		database.NewTxManager(a.db),
		handlers,
		a.metrics,
		a.logger,
	)
	a.orderHandler = order.NewHandler(a.orderService)

	a.graphHandler = deliverygraph.NewHandler(graphRepo, graphService)

	photoStorage, err := postcontrol.NewS3PhotoStorage(&a.config.Storage)
	if err != nil {
		return fmt.Errorf("init photo storage: %w", err)
	}
	a.postcontrolService = postcontrol.NewService(
		postcontrol.NewRepository(a.db),
		photoStorage,
		recorder,
		a.zapLogger,
	)
	a.postcontrolHandler = postcontrol.NewHandler(a.postcontrolService)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	a.orderHandler.RegisterRoutes(v1)
	a.graphHandler.RegisterRoutes(v1)
	a.postcontrolHandler.RegisterRoutes(v1)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}
