package routes

import (
	"net/http"
	"time"

	"zone-alerts-vms/be/auth"
	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/handlers"
	"zone-alerts-vms/be/middleware"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/services"
	"zone-alerts-vms/be/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the router needs from main.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Cipher   *utils.Cipher
	Blobs    services.BlobStore
	Notifier services.Dispatcher
	RTSP     *services.RTSPService
	Metrics  *middleware.Metrics
	Logger   *zap.Logger
}

func Setup(d Deps) *gin.Engine {
	users := repository.NewUserRepository(d.DB)
	cameras := repository.NewCameraRepository(d.DB, d.Cipher)
	zones := repository.NewZoneRepository(d.DB)
	alerts := repository.NewAlertRepository(d.DB)
	stats := repository.NewStatsRepository(d.DB)

	tokens := auth.NewTokenCodec(d.Config.Auth.SigningSecret, d.Cipher, users)

	authHandler := handlers.NewAuthHandler(users, tokens, d.Logger)
	cameraHandler := handlers.NewCameraHandler(cameras, d.RTSP, d.Logger)
	zoneHandler := handlers.NewZoneHandler(zones, d.Logger)
	alertHandler := handlers.NewAlertHandler(alerts, zones, d.Blobs, d.Notifier, d.Config.Uploads.Dir, d.Logger)
	statsHandler := handlers.NewStatsHandler(stats, alerts, d.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(d.Metrics.Middleware())
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Public routes
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	// Protected routes
	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(tokens, d.Logger, d.Metrics))
	{
		protected.GET("/current_user", middleware.Authed(authHandler.CurrentUser))
		protected.POST("/change_password", middleware.Authed(authHandler.ChangePassword))
		protected.DELETE("/delete_account", middleware.Authed(authHandler.DeleteAccount))
		protected.POST("/logout", middleware.Authed(authHandler.Logout))

		cameraRoutes := protected.Group("/cameras")
		{
			cameraRoutes.GET("", middleware.Authed(cameraHandler.GetCameras))
			cameraRoutes.POST("", middleware.Authed(cameraHandler.CreateCamera))
			cameraRoutes.GET("/:id", middleware.Authed(cameraHandler.GetCamera))
			cameraRoutes.PUT("/:id", middleware.Authed(cameraHandler.UpdateCamera))
			cameraRoutes.DELETE("/:id", middleware.Authed(cameraHandler.DeleteCamera))
			cameraRoutes.GET("/:id/probe", middleware.Authed(cameraHandler.ProbeCamera))
		}

		zoneRoutes := protected.Group("/zones")
		{
			zoneRoutes.GET("", middleware.Authed(zoneHandler.GetZones))
			zoneRoutes.POST("", middleware.Authed(zoneHandler.CreateZones))
			zoneRoutes.GET("/:id", middleware.Authed(zoneHandler.GetZone))
			zoneRoutes.PUT("/:id", middleware.Authed(zoneHandler.UpdateZone))
			zoneRoutes.DELETE("/:id", middleware.Authed(zoneHandler.DeleteZone))
		}
		protected.GET("/camera/zones/:camera_id", middleware.Authed(zoneHandler.GetCameraZones))

		alertRoutes := protected.Group("/alerts")
		{
			alertRoutes.GET("", middleware.Authed(alertHandler.GetAlerts))
			alertRoutes.POST("", middleware.Authed(alertHandler.CreateAlert))
			alertRoutes.GET("/:id", middleware.Authed(alertHandler.GetAlert))
			alertRoutes.DELETE("/:id", middleware.Authed(alertHandler.DeleteAlert))
		}

		statsRoutes := protected.Group("/stats")
		{
			statsRoutes.GET("/daily-count", middleware.Authed(statsHandler.DailyCount))
			statsRoutes.GET("/person-count", middleware.Authed(statsHandler.PersonCount))
			statsRoutes.GET("/alerts-by-zone", middleware.Authed(statsHandler.AlertsByZone))
			statsRoutes.GET("/hourly-distribution", middleware.Authed(statsHandler.HourlyDistribution))
			statsRoutes.GET("/daily-alerts/:date", middleware.Authed(statsHandler.DailyAlerts))
			statsRoutes.GET("/export", middleware.Authed(statsHandler.Export))
		}
	}

	return router
}

// corsConfig allows the listed origins; "*" allows any.
func corsConfig(origins []string) cors.Config {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return origin == "" || allowed["*"] || allowed[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
