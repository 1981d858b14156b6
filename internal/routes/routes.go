package routes

import (
	"github.com/gin-gonic/gin"

	handler "match-reconciliation-backend/internal/handlers"
)

func RegisterRoutes(r *gin.Engine, h *handler.ReconciliationHandler) {
	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api.GET("/stats", h.Stats)
	api.GET("/export", h.Export)
	api.POST("/reset", h.Reset)

	imports := api.Group("/imports")
	imports.POST("", h.Upload)
	imports.GET("/:id", h.GetBatch)

	matches := api.Group("/matches")
	matches.GET("", h.ListMatches)
	matches.POST("/approve-all", h.ApproveAll)
	matches.POST("/manual", h.ManualMatch)
	matches.GET("/:id", h.GetMatch)
	matches.POST("/:id/approve", h.ApproveMatch)
	matches.POST("/:id/reject", h.RejectMatch)

	bank := api.Group("/bank")
	bank.GET("/unmatched", h.UnmatchedBank)
	bank.GET("/:id/candidates", h.BankCandidates)

	sales := api.Group("/sales")
	sales.GET("/unmatched", h.UnmatchedSales)
	sales.GET("/:id/candidates", h.SaleCandidates)
}
