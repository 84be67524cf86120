package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/bot"
	"github.com/haoyuedashi/meme-text-bot/internal/http/middleware"
	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

type Router struct {
	dispatcher   *bot.Router
	webhookToken string
	logger       *zap.Logger
}

func NewRouter(dispatcher *bot.Router, webhookToken string, logger *zap.Logger) *Router {
	return &Router{
		dispatcher:   dispatcher,
		webhookToken: webhookToken,
		logger:       logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(r.logger))
	router.Use(gin.Recovery())

	router.POST("/onebot", middleware.WebhookAuth(r.webhookToken), r.handleEvent)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "meme text bot is running",
		})
	})

	return router
}

// handleEvent accepts a host event push, acknowledges immediately and
// dispatches message events on their own goroutine so slow requests
// never block the webhook.
func (r *Router) handleEvent(c *gin.Context) {
	var event models.MessageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		r.logger.Warn("failed to parse event payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	if event.PostType == "message" {
		// The request context dies with this response; handling
		// continues on its own.
		go r.dispatcher.Dispatch(context.Background(), &event)
	}

	c.Status(http.StatusNoContent)
}
