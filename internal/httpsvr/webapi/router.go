package webapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"mediascribe-server-go/internal/platform/logging"
)

// RouterOptions configures the HTTP router builder.
type RouterOptions struct {
	Debug      bool
	StaticRoot string
	Logger     *logging.Logger
}

// Router bundles the gin engine and the /api group.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

// BuildRouter constructs a gin engine with recovery, request logging, CORS
// and static file serving for the bundled web UI.
func BuildRouter(opts RouterOptions) *Router {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(opts.Logger))
	engine.SetTrustedProxies([]string{"0.0.0.0"})

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if opts.StaticRoot != "" {
		engine.Use(static.Serve("/", static.LocalFile(opts.StaticRoot, true)))
	}

	return &Router{
		Engine: engine,
		API:    engine.Group("/api"),
	}
}

func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoTag("HTTP", "%s %s -> %d (%s)",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
