package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stacjson "github.com/terrastac/dataplane/internal/codec/json"
	"github.com/terrastac/dataplane/internal/stac"
)

// CollectionRegistry holds STAC Collection definitions loaded from JSON
// files on disk, indexed by ID, for callers that want to seed a
// Backend's catalog at startup. Neither the core library nor
// cmd/staccli (including `serve`) uses it.
type CollectionRegistry struct {
	collections map[string]*stac.Collection
}

// NewCollectionRegistry creates a new empty collection registry.
func NewCollectionRegistry() *CollectionRegistry {
	return &CollectionRegistry{collections: make(map[string]*stac.Collection)}
}

// LoadCollections loads STAC Collection JSON documents from every
// *.json file in collectionsDir and returns a CollectionRegistry
// indexing them by ID.
func LoadCollections(collectionsDir string) (*CollectionRegistry, error) {
	registry := NewCollectionRegistry()

	info, err := os.Stat(collectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access collections directory %q: %w", collectionsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("collections path %q is not a directory", collectionsDir)
	}

	entries, err := os.ReadDir(collectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read collections directory %q: %w", collectionsDir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		filePath := filepath.Join(collectionsDir, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
		}

		collection, err := stacjson.DecodeCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse collection from %q: %w", filePath, err)
		}

		if err := registry.Add(collection); err != nil {
			return nil, fmt.Errorf("failed to add collection from %q: %w", filePath, err)
		}

		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no collection files found in %q", collectionsDir)
	}

	return registry, nil
}

// Add registers a collection in the registry. Returns an error if a
// collection with the same ID already exists.
func (r *CollectionRegistry) Add(collection *stac.Collection) error {
	if collection == nil {
		return fmt.Errorf("cannot add nil collection")
	}
	if collection.Id == "" {
		return fmt.Errorf("collection must have an id")
	}
	if _, exists := r.collections[collection.Id]; exists {
		return fmt.Errorf("collection with ID %q already exists", collection.Id)
	}
	r.collections[collection.Id] = collection
	return nil
}

// Get retrieves a collection by ID, or nil if it does not exist.
func (r *CollectionRegistry) Get(id string) *stac.Collection {
	return r.collections[id]
}

// Has reports whether a collection with the given ID exists.
func (r *CollectionRegistry) Has(id string) bool {
	_, exists := r.collections[id]
	return exists
}

// All returns every collection in the registry.
func (r *CollectionRegistry) All() []*stac.Collection {
	collections := make([]*stac.Collection, 0, len(r.collections))
	for _, c := range r.collections {
		collections = append(collections, c)
	}
	return collections
}

// IDs returns every collection ID in the registry.
func (r *CollectionRegistry) IDs() []string {
	ids := make([]string, 0, len(r.collections))
	for id := range r.collections {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of collections in the registry.
func (r *CollectionRegistry) Count() int {
	return len(r.collections)
}
