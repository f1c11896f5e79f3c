package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tropical-362827/futaba-shieldgemma/internal/config"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"github.com/tropical-362827/futaba-shieldgemma/internal/di"
	"go.uber.org/zap"
)

var (
	// Thread location flags
	domain = flag.String("domain", "", "Futaba server domain (e.g. may.2chan.net)")
	board  = flag.String("board", "", "Board directory on the server (e.g. b)")
	thread = flag.String("thread", "", "Thread number to monitor")

	// Monitor flags
	interval         = flag.String("interval", "", "Polling interval (e.g. 10s)")
	noClassify       = flag.Bool("no-classify", false, "Disable image classification and only report new posts")
	classifyExisting = flag.Bool("classify-existing", false, "Classify images already present when monitoring starts")
	concurrency      = flag.Int("concurrency", 0, "Number of images classified concurrently")
	tempDir          = flag.String("temp-dir", "", "Directory to keep downloaded images in")

	// Classifier flags
	provider  = flag.String("provider", "", "Classifier provider (gemini, openai, bedrock)")
	threshold = flag.Float64("threshold", -1, "Flagging threshold within [0.0, 1.0]")

	// Logging flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configFile = flag.String("config", "", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Load configuration from file and environment, then let explicitly
	// passed flags win over both
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer(cfg)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags copies flags that were set on the command line into the
// configuration. Unset flags leave file, environment and default values
// untouched.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "domain":
			cfg.Set("futaba.domain", *domain)
		case "board":
			cfg.Set("futaba.board", *board)
		case "thread":
			cfg.Set("futaba.thread", *thread)
		case "interval":
			cfg.Set("monitor.interval", *interval)
		case "no-classify":
			cfg.Set("monitor.classify", !*noClassify)
		case "classify-existing":
			cfg.Set("monitor.classify_existing", *classifyExisting)
		case "concurrency":
			cfg.Set("monitor.concurrency", *concurrency)
		case "temp-dir":
			cfg.Set("monitor.temp_dir", *tempDir)
		case "provider":
			cfg.Set("classifier.provider", *provider)
		case "threshold":
			cfg.Set("classifier.threshold", *threshold)
		case "verbose":
			if *verbose {
				cfg.Set("logging.level", "debug")
				cfg.Set("handlers.console.verbose", true)
			}
		}
	})
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	monitor *core.Monitor,
	classifier core.ImageClassifier,
	scoreCache core.ScoreCache,
	resultHandler core.ResultHandler,
) error {
	defer logger.Sync()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	err := monitor.Run(ctx)

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("Failed to close classifier", zap.Error(closeErr))
		}
	}
	if stopper, ok := scoreCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if closer, ok := resultHandler.(interface{ Close() error }); ok {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("Failed to close result handler", zap.Error(closeErr))
		}
	}

	if err != nil {
		logger.Error("Monitor stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
