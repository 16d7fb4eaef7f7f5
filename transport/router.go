package transport

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/StephenDK/Secure-Line/clips"
	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
	"github.com/StephenDK/Secure-Line/internal/validation"
)

// Router serves the clip side channel and mounts the relay WebSocket
// endpoint. Clip payloads travel here instead of the relay connection
// because they are too large to interleave with control traffic.
type Router struct {
	store  clips.ClipStore
	ws     http.HandlerFunc
	engine *gin.Engine
	logger *log.Logger
}

func NewRouter(
	store clips.ClipStore,
	ws http.HandlerFunc,
	allowedOrigins []string,
	logger *log.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add OpenTelemetry middleware for automatic HTTP tracing
	engine.Use(otelgin.Middleware("secure-line"))

	if len(allowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: false,
		}))
	}

	r := &Router{
		store:  store,
		ws:     ws,
		engine: engine,
		logger: logger,
	}

	// Request logging middleware
	r.engine.Use(func(c *gin.Context) {
		r.logger.Info("Incoming request",
			log.String("method", c.Request.Method),
			log.String("url", c.Request.URL.String()))
		c.Next()
	})

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.POST("/api/clips/upload", r.uploadClip)
	r.engine.GET("/api/clips/:clipId", r.downloadClip)

	if r.ws != nil {
		r.engine.GET("/ws", gin.WrapF(r.ws))
	}

	// Health check
	r.engine.GET("/health", r.healthCheck)
}

func (r *Router) uploadClip(c *gin.Context) {
	var req UploadClipParams
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	// size bound enforced before buffering
	body := http.MaxBytesReader(c.Writer, c.Request.Body, clips.MaxPayloadBytes)
	payload, err := io.ReadAll(body)
	if err != nil {
		if _, ok := errors.As[*http.MaxBytesError](err); ok {
			r.logger.Warn("Clip upload too large",
				log.String("clipId", req.ClipID),
				log.String("roomId", req.RoomID))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "Payload too large",
			})
			return
		}
		r.logger.Warn("Failed to read clip upload",
			log.String("clipId", req.ClipID),
			log.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Failed to read body",
		})
		return
	}

	if err := r.store.Store(req.ClipID, req.RoomID, payload); err != nil {
		if errors.Is(err, clips.ErrClipExists) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "Clip already exists",
			})
			return
		}
		r.logger.Error("Failed to store clip",
			log.String("clipId", req.ClipID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to store clip",
		})
		return
	}

	c.Status(http.StatusOK)
}

func (r *Router) downloadClip(c *gin.Context) {
	var uri DownloadClipURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	var query DownloadClipQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validation.FormatValidationError(err),
		})
		return
	}

	payload, err := r.store.Fetch(uri.ClipID, query.RoomID)
	if err != nil {
		// the refusal reason stays server-side; HTTP callers only see gone
		r.logger.Warn("Clip download refused",
			log.String("clipId", uri.ClipID),
			log.String("roomId", query.RoomID),
			log.Error(err))
		c.Status(http.StatusGone)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", payload)
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "secure-line",
		"timestamp": time.Now().Unix(),
	})
}
