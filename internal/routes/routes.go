package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/14kear/siteVoting/internal/handlers"
)

func RegisterPublicRoutes(rg *gin.RouterGroup, handler *handlers.VotingHandler) {
	{
		rg.GET("/status", handler.GetStatus)
		rg.GET("/sites", handler.GetSites)
		rg.GET("/results", handler.GetResults)

		rg.POST("/auth/sign-in", handler.SignIn)
	}
}

func RegisterPrivateRoutes(rg *gin.RouterGroup, handler *handlers.VotingHandler) {
	{
		rg.POST("/votes", handler.CastVote)
	}
}

func RegisterAdminRoutes(rg *gin.RouterGroup, handler *handlers.VotingHandler) {
	{
		rg.POST("/setup", handler.Setup)
		rg.POST("/refresh", handler.Refresh)
		rg.POST("/reset", handler.Reset)
		rg.GET("/tally", handler.GetTally)
	}
}
