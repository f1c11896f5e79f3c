package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/tropical-362827/futaba-shieldgemma/internal/adapters/futaba"
	"github.com/tropical-362827/futaba-shieldgemma/internal/config"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"github.com/tropical-362827/futaba-shieldgemma/internal/factory"
	"github.com/tropical-362827/futaba-shieldgemma/internal/logging"
	"github.com/tropical-362827/futaba-shieldgemma/internal/utils"
	"github.com/tropical-362827/futaba-shieldgemma/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
// around an already-validated configuration.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHandlerFactory); err != nil {
		return nil, err
	}

	// Register image classifier (nil when classification is disabled)
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.ImageClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register score cache (nil when disabled)
	if err := container.Provide(func(f *factory.CacheFactory) (core.ScoreCache, error) {
		return f.CreateScoreCache()
	}); err != nil {
		return nil, err
	}

	// Register result handler
	if err := container.Provide(func(f *factory.HandlerFactory) (core.ResultHandler, error) {
		return f.CreateResultHandler()
	}); err != nil {
		return nil, err
	}

	// Register media whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetClassifier().AllowedExtensions, logger)
	}); err != nil {
		return nil, err
	}

	// Register thread fetcher
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *futaba.Fetcher {
		futabaCfg := cfg.GetFutaba()
		monitorCfg := cfg.GetMonitor()
		return futaba.NewFetcher(futabaCfg.Domain, futabaCfg.Board, monitorCfg.FetchTimeout, logger)
	}); err != nil {
		return nil, err
	}

	// Register image downloader
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*futaba.Downloader, error) {
		monitorCfg := cfg.GetMonitor()
		return futaba.NewDownloader(monitorCfg.TempDir, monitorCfg.DownloadTimeout, logger)
	}); err != nil {
		return nil, err
	}

	// Register snapshot store
	if err := container.Provide(core.NewSnapshotStore); err != nil {
		return nil, err
	}

	// Register monitor
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		fetcher *futaba.Fetcher,
		downloader *futaba.Downloader,
		classifier core.ImageClassifier,
		resultHandler core.ResultHandler,
		scoreCache core.ScoreCache,
		media *whitelist.Checker,
		store *core.SnapshotStore,
		cacheFactory *factory.CacheFactory,
	) (*core.Monitor, error) {
		futabaCfg := cfg.GetFutaba()
		monitorCfg := cfg.GetMonitor()
		classifierCfg := cfg.GetClassifier()

		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}

		deps := core.MonitorDeps{
			Fetcher:    fetcher,
			Images:     downloader,
			Classifier: classifier,
			Handler:    resultHandler,
			Cache:      scoreCache,
			Media:      media,
			Store:      store,
			Logger:     logger,
		}
		opts := core.MonitorOptions{
			ThreadID:         futabaCfg.Thread,
			Interval:         monitorCfg.Interval,
			FetchTimeout:     monitorCfg.FetchTimeout,
			Threshold:        classifierCfg.Threshold,
			ClassifyEnabled:  monitorCfg.Classify,
			ClassifyExisting: monitorCfg.ClassifyExisting,
			Concurrency:      monitorCfg.Concurrency,
			CacheTTL:         cacheTTL,
		}
		return core.NewMonitor(deps, opts), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
