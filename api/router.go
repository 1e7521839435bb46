// Package api exposes search, submission and log access over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/api/handlers"
	"github.com/yourusername/nyaa-go/api/middleware"
	"github.com/yourusername/nyaa-go/internal/app"
)

// SetupRouter sets up the HTTP router on top of services
func SetupRouter(services *app.Services) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := services.Logger
	if log == nil {
		log = zap.NewNop()
	}
	logsDir := services.Config.Logging.LogsDir

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.ErrorLogger(services.MultiLogger))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(services.Search, services.Downloads)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		searchHandler := handlers.NewSearchHandler(services.Search, services.Config.Search, log)
		v1.GET("/search", searchHandler.Search)
		v1.GET("/search/options", searchHandler.Options)

		downloadHandler := handlers.NewDownloadHandler(services.Downloads, services.Config.Requests.SubmitTimeout, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
		}

		clients := v1.Group("/clients")
		{
			clients.GET("", downloadHandler.ListClients)
			clients.POST("/:name/default", downloadHandler.SetDefaultClient)
		}

		logHandler := handlers.NewLogHandler(logsDir)
		streamHandler := handlers.NewLogWebSocketHandler(logsDir, log)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
			logs.GET("/:category/stream", streamHandler.Stream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
