package router

import (
	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/controller"
	"clinical-trials-agent-backend/middleware"

	"github.com/gin-gonic/gin"
)

func Register(ctl *controller.Controller) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware(config.Cfg.Server.CORSAllowedOrigins))

	api := r.Group("/api")
	{
		api.POST("/session", ctl.CreateSession)
		api.GET("/statuses", ctl.GetStatuses)

		protected := api.Group("")
		protected.Use(middleware.SessionMiddleware(ctl.Store))
		{
			protected.GET("/session", ctl.GetSession)
			protected.DELETE("/session", ctl.EndSession)
			protected.PUT("/session/view", ctl.Navigate)

			protected.PUT("/trials/filters", ctl.UpdateFilters)
			protected.POST("/trials/search", ctl.SearchTrials)
			protected.PUT("/study/selection", ctl.SelectStudy)

			protected.POST("/chat", ctl.SendMessage)
			protected.POST("/chat/stream", ctl.StreamMessage)
			protected.DELETE("/chat", ctl.ClearConversation)
		}
	}

	return r
}
