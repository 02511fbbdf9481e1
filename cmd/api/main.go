package main

import (
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/matchpulse/core/internal/config"
	"github.com/matchpulse/core/pkg/logger"
	"github.com/matchpulse/core/pkg/server"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	appLogger := logger.New("matchpulse-api")

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
