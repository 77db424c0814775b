package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/arnavshah/carematch-api/pkg/auth"
	"github.com/arnavshah/carematch-api/pkg/config"
	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/handlers"
	"github.com/arnavshah/carematch-api/pkg/logger"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := config.Get()
	logger.Init(cfg.LogLevel, false)

	db := database.InitDB(cfg)
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error().Err(err).Msg("could not ensure admin user")
	}
	h := handlers.NewHandler(db, cfg)

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(gin.Recovery(), logger.GinLogger(), cors.New(corsCfg))

	handlers.RegisterRoutes(r, h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
