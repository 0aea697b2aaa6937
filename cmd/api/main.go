package main

import (
	"log"
	"os"

	"go-fits-inspector/internal/cli"
	"go-fits-inspector/internal/config"
	"go-fits-inspector/internal/container"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	if err := cli.Serve(c); err != nil {
		c.Logger().WithError(err).Fatal("Server stopped")
	}
}
