package routes

import (
	"net/http"

	"bookline/handlers"
	"bookline/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all endpoints of the chat booking assistant.
func RegisterRoutes(r *gin.Engine, chat *handlers.ChatHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})

	chatGroup := r.Group("/api/chat")
	{
		chatGroup.POST("/turn", chat.HandleTurn)
		chatGroup.POST("/reset", chat.ResetSession)
		chatGroup.GET("/session/:conversationID", chat.GetSession)
	}
}
