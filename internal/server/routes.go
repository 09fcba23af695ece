package routes

import (
	"stock-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine, stocks *middleware.StockHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/stocks", stocks.SearchStocks)
		api.GET("/stocks/:code", stocks.GetStockDetail)
	}
}
