package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"match-reconciliation-backend/internal/config"
	handler "match-reconciliation-backend/internal/handlers"
	"match-reconciliation-backend/internal/logger"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/routes"
	"match-reconciliation-backend/internal/services/reconciliation"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.L.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.L.WithError(err).Fatal("database unavailable")
	}

	svc := reconciliation.NewReconciliationService(repository.New(db), reconciliation.Options{
		StatsTTL:    cfg.StatsCacheTTL,
		SearchLimit: cfg.SearchLimit,
	})
	h := handler.NewReconciliationHandler(svc, cfg.MaxUploadMB<<20)

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Operator"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, h)

	logger.L.WithField("port", cfg.Port).Info("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.L.WithError(err).Fatal("server stopped")
	}
}
