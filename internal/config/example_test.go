package config_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/terrastac/dataplane/internal/codec/json"
	"github.com/terrastac/dataplane/internal/config"
	"github.com/terrastac/dataplane/internal/stac"
)

func ExampleLoad() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Backend: %s\n", cfg.Backend.Type)
	fmt.Printf("Default limit: %d\n", cfg.Query.DefaultLimit)
	fmt.Printf("Log level: %s\n", cfg.Logging.Level)

	// Output:
	// Backend: memory
	// Default limit: 10
	// Log level: info
}

func ExampleLoadCollections() {
	dir, err := os.MkdirTemp("", "collections")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	c := stac.NewCollection("sentinel-2-l2a", "Sentinel-2 L2A", "Surface reflectance", "1.0.0")
	c.License = "proprietary"
	data, err := json.Encode(c, true)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sentinel-2-l2a.json"), data, 0644); err != nil {
		log.Fatal(err)
	}

	registry, err := config.LoadCollections(dir)
	if err != nil {
		log.Fatal(err)
	}

	collection := registry.Get("sentinel-2-l2a")
	fmt.Printf("Collection ID: %s\n", collection.Id)
	fmt.Printf("Title: %s\n", collection.Title)
	fmt.Printf("Total collections: %d\n", registry.Count())

	// Output:
	// Collection ID: sentinel-2-l2a
	// Title: Sentinel-2 L2A
	// Total collections: 1
}
