package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/terrastac/dataplane/internal/backend"
	"github.com/terrastac/dataplane/internal/backend/columnarbackend"
	"github.com/terrastac/dataplane/internal/backend/memory"
	"github.com/terrastac/dataplane/internal/backend/sqlbackend"
	"github.com/terrastac/dataplane/internal/config"
	"github.com/terrastac/dataplane/internal/format"
	"github.com/terrastac/dataplane/internal/href"
	"github.com/terrastac/dataplane/internal/service"
	"github.com/terrastac/dataplane/internal/stac"
)

// serveCmd loads the given hrefs into a Backend and exposes a minimal
// health endpoint over HTTP. Defining the STAC API routes themselves
// (item-search, OGC features, transactions) is an explicit external-
// collaborator concern per spec.md §1/§6 — this only wires the backend
// and keeps the process alive the way a real router's host process would.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "load one or more STAC sources into a backend and hold it open",
		ArgsUsage: "[hrefs...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address for the health endpoint"},
			&cli.StringFlag{Name: "backend", Usage: "DSN for the sql/columnar backend (overrides BACKEND_DSN)"},
			&cli.BoolFlag{Name: "use-duckdb", Usage: "use the columnar/DuckDB backend instead of the in-memory one"},
			&cli.BoolFlag{Name: "load-collection-items", Usage: "when an href is a Collection, also load its linked items"},
			&cli.BoolFlag{Name: "create-collections", Usage: "derive and register a collection from each href's items"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogger(cmd)
			logger := slog.Default()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("serve: loading configuration: %w", err)
			}
			if dsn := cmd.String("backend"); dsn != "" {
				cfg.Backend.DSN = dsn
			}

			be, closeBe, err := buildBackend(ctx, cfg, cmd.Bool("use-duckdb"))
			if err != nil {
				return err
			}
			defer closeBe()

			stores, err := buildStores(ctx, cmd)
			if err != nil {
				return err
			}
			in, err := inputFormat(cmd)
			if err != nil {
				return err
			}

			for _, srcHref := range cmd.Args().Slice() {
				if err := loadHref(ctx, stores, be, srcHref, in, cmd.Bool("load-collection-items"), cmd.Bool("create-collections")); err != nil {
					return fmt.Errorf("serve: loading %s: %w", srcHref, err)
				}
				logger.Info("loaded source", "href", srcHref)
			}

			return runHealthServer(ctx, cmd.String("addr"), logger)
		},
	}
}

func buildBackend(ctx context.Context, cfg *config.Config, useDuckDB bool) (backend.Backend, func(), error) {
	if useDuckDB || cfg.Backend.Type == "columnar" {
		dsn := cfg.Backend.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		be, err := columnarbackend.Open(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("serve: opening columnar backend: %w", err)
		}
		return be, func() { be.Close() }, nil
	}
	if cfg.Backend.Type == "sql" {
		be, err := sqlbackend.Open(ctx, cfg.Backend.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("serve: opening sql backend: %w", err)
		}
		return be, be.Close, nil
	}
	be := memory.New(cfg.Backend.CursorTTL)
	return be, be.Stop, nil
}

// loadHref fetches ref and registers it into be: Items are added
// directly, an ItemCollection's Features are added as a batch (and,
// when createCollections is set, a derived Collection is registered
// alongside them), and a Collection's linked items are followed and
// loaded when loadCollectionItems is set. Catalogs recurse into their
// "child" links and load their "item" links, mirroring crawl's
// downward-only link-following rule.
func loadHref(ctx context.Context, stores *service.Stores, be backend.Backend, ref string, in *format.Format, loadCollectionItems, createCollections bool) error {
	v, err := stores.GetValue(ctx, ref, in)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case *stac.Item:
		return be.AddItem(ctx, val)
	case *stac.ItemCollection:
		if err := be.AddItems(ctx, val.Features); err != nil {
			return err
		}
		if createCollections && len(val.Features) > 0 {
			collection := stac.FromItems(val.Features[0].Collection, val.Features[0].Collection, "derived from "+ref, "1.0.0", val.Features)
			return be.AddCollection(ctx, collection)
		}
		return nil
	case *stac.Collection:
		if err := be.AddCollection(ctx, val); err != nil {
			return err
		}
		if !loadCollectionItems {
			return nil
		}
		return loadLinkedItems(ctx, stores, be, val.Links, ref, in)
	case *stac.Catalog:
		if err := loadLinkedItems(ctx, stores, be, val.Links, ref, in); err != nil {
			return err
		}
		for _, l := range val.Links {
			if l == nil || l.Rel != "child" || l.Href == "" {
				continue
			}
			childRef, err := href.MakeAbsolute(l.Href, ref)
			if err != nil {
				childRef = l.Href
			}
			if err := loadHref(ctx, stores, be, childRef, in, loadCollectionItems, createCollections); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("serve: unsupported value type %T at %s", v, ref)
	}
}

func loadLinkedItems(ctx context.Context, stores *service.Stores, be backend.Backend, links []*stac.Link, base string, in *format.Format) error {
	for _, l := range links {
		if l == nil || l.Rel != "item" || l.Href == "" {
			continue
		}
		itemRef, err := href.MakeAbsolute(l.Href, base)
		if err != nil {
			itemRef = l.Href
		}
		v, err := stores.GetValue(ctx, itemRef, in)
		if err != nil {
			return err
		}
		item, ok := v.(*stac.Item)
		if !ok {
			return fmt.Errorf("serve: expected an item at %s, got %T", itemRef, v)
		}
		if err := be.AddItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func runHealthServer(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serve: listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("serve: server error: %w", err)
	case sig := <-quit:
		logger.Info("serve: received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("serve: context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown error: %w", err)
	}
	return nil
}
