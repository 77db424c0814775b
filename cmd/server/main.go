package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arnavshah/carematch-api/pkg/auth"
	"github.com/arnavshah/carematch-api/pkg/config"
	"github.com/arnavshah/carematch-api/pkg/database"
	"github.com/arnavshah/carematch-api/pkg/handlers"
	"github.com/arnavshah/carematch-api/pkg/logger"
)

func main() {
	// Load .env from the working directory or a parent
	config.LoadEnvFiles()
	cfg := config.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB(cfg)
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error().Err(err).Msg("could not ensure admin user")
	}
	h := handlers.NewHandler(db, cfg)

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(), cors.New(corsConfig(cfg)))
	handlers.RegisterRoutes(r, h)

	log.Info().
		Str("port", cfg.Port).
		Str("distance_mode", cfg.MatchDistanceMode).
		Bool("geocoding", cfg.GeocoderURL != "").
		Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("could not run server")
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = cfg.CORSAllowedOrigins
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	c.AllowCredentials = true
	return c
}
