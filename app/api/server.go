package api

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/podcast-annex/app/cfg"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, config *cfg.Cfg) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.SetHTMLTemplate(pageTemplates)

	setupRoutes(r, handler, config)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, config *cfg.Cfg) {
	// Health stays open for probes
	r.GET("/health", handler.GetHealth)

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})

	ui := r.Group("/")
	if config.WebAuthEnabled() {
		ui.Use(gin.BasicAuth(gin.Accounts{config.WebUser: config.WebPassword}))
		slog.Info("Web UI requires basic authentication", "user", config.WebUser)
	} else {
		slog.Info("Web UI authentication disabled (WEB_USER not set)")
	}

	ui.GET("/", handler.GetIndex)
	ui.GET("/podcasts/:slug", handler.GetPodcast)
	ui.GET("/feeds/:file", handler.GetFeed)
}
