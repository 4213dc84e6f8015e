package main

import (
	"log"

	"fieldserve/internal/config"
	"fieldserve/internal/infra/db"
	httpinfra "fieldserve/internal/infra/http"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	srv := httpinfra.NewServer(cfg, store)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
