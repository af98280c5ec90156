package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/tile-match/internal/auth"
	"github.com/annel0/tile-match/internal/game"
	"github.com/annel0/tile-match/internal/middleware"
	"github.com/annel0/tile-match/internal/progress"
)

// RestServer представляет REST API сервер игры
type RestServer struct {
	router     *gin.Engine
	playerRepo auth.PlayerRepository
	sessions   *game.Manager
	progress   *progress.Service
	port       string
	metrics    *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string                // порт для запуска сервера, например ":8088"
	PlayerRepo auth.PlayerRepository // репозиторий игроков
	Sessions   *game.Manager         // менеджер игровых сессий
	Progress   *progress.Service     // сервис прогресса
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("rest_api")
	router.Use(otelRouter)

	promMw := middleware.NewPrometheusMiddleware("rest_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:     router,
		playerRepo: config.PlayerRepo,
		sessions:   config.Sessions,
		progress:   config.Progress,
		port:       config.Port,
		metrics:    NewServerMetrics(),
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Группа API
	api := rs.router.Group("/api")

	// Эндпоинты аутентификации (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
		authGroup.POST("/register", rs.handleRegister)
	}

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		gameGroup := protected.Group("/game")
		{
			gameGroup.POST("/start", rs.handleStartLevel)
			gameGroup.GET("/:id/state", rs.handleSessionState)
			gameGroup.POST("/:id/pick", rs.handlePickTile)
			gameGroup.POST("/:id/pair", rs.handleEliminatePair)
			gameGroup.POST("/:id/extend", rs.handleExtendBackpack)
		}

		protected.GET("/progress", rs.handleGetProgress)
		protected.PUT("/progress/current", rs.handleSetCurrentLevel)
		protected.GET("/stats", rs.handleStats)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает метрики процесса и игровые счётчики
func (rs *RestServer) handleStats(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	poolStats := rs.sessions.PoolMetrics()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика сервера",
		Data: map[string]interface{}{
			"uptime":          rs.metrics.GetUptime(),
			"memory_mb":       memoryMB,
			"cpu_percent":     cpuPercent,
			"active_sessions": rs.sessions.Count(),
			"tile_pool": map[string]int{
				"capacity": poolStats.Capacity,
				"created":  poolStats.Created,
				"active":   poolStats.Active,
				"free":     poolStats.Free,
			},
			"memory_details": rs.metrics.GetDetailedMemoryStats(),
		},
	})
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}

// Router возвращает gin-роутер (используется в тестах)
func (rs *RestServer) Router() http.Handler {
	return rs.router
}
