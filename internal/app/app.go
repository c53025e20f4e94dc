// Package app wires configuration into the storage backend, catalog, product
// resolver and services shared by the web server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"purepick/internal/analysis"
	"purepick/internal/catalog"
	"purepick/internal/config"
	"purepick/internal/geocode"
	"purepick/internal/repository"
	"purepick/internal/scan"
	"purepick/internal/services"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Catalog     *catalog.Catalog
	Repo        repository.Repository
	Resolver    *scan.Resolver
	Coordinator *scan.Coordinator

	Carts     *services.CartService
	Stores    *services.StoreService
	Products  *services.ProductService
	Users     *services.UserService
	Orders    *services.OrderService
	Wishlists *services.WishlistService
}

// OpenRepository connects the storage backend named in cfg.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return repository.NewSQLiteRepository(cfg.SQLitePath, logger)
	case config.StorageRedis:
		return repository.NewRedisRepository(ctx, cfg.RedisURL)
	case config.StorageMemory:
		return repository.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// New builds the application. Without a Gemini API key the resolver still
// serves catalog barcodes but reports unknown ones as unavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	repo, err := OpenRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var analyzer scan.Analyzer
	if cfg.GeminiAPIKey != "" {
		gemini, err := analysis.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			repo.Close()
			return nil, err
		}
		analyzer = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, product analysis disabled")
	}

	resolver := scan.NewResolver(analyzer,
		scan.WithCache(repo, cfg.AnalysisCacheTTL),
		scan.WithTimeout(cfg.AnalysisTimeout),
		scan.WithLogger(logger),
	)

	var geocoder services.Geocoder
	if cfg.NominatimURL != "" {
		geocoder = geocode.NewClient(cfg.NominatimURL)
	}

	policy := services.LedgerPolicy{
		DeliveryFee:      cfg.DeliveryFee,
		MaxDeliveryMiles: cfg.MaxDeliveryMiles,
		RedemptionCap:    cfg.RedemptionCap,
	}

	carts := services.NewCartService(cat)
	stores := services.NewStoreService(cat, repo, carts, logger)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Catalog:     cat,
		Repo:        repo,
		Resolver:    resolver,
		Coordinator: scan.NewCoordinator(resolver),
		Carts:       carts,
		Stores:      stores,
		Products:    services.NewProductService(cat),
		Users:       services.NewUserService(repo, geocoder, logger),
		Orders:      services.NewOrderService(repo, carts, stores, policy, logger),
		Wishlists:   services.NewWishlistService(repo, cat),
	}, nil
}

func (a *App) Close() error {
	return a.Repo.Close()
}
