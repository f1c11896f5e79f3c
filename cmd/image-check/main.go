package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tropical-362827/futaba-shieldgemma/internal/config"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"github.com/tropical-362827/futaba-shieldgemma/internal/factory"
	"github.com/tropical-362827/futaba-shieldgemma/internal/logging"
	"go.uber.org/zap"
)

var (
	// Classifier provider flags
	provider    = flag.String("provider", "gemini", "Classifier provider (gemini, openai, bedrock)")
	maxTokens   = flag.Int("max-tokens", 256, "Maximum tokens for the model response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for model generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for model generation")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o", "OpenAI model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Verdict flags
	threshold = flag.Float64("threshold", 0.5, "Flagging threshold within [0.0, 1.0]")

	// Input flags
	inputFile  = flag.String("file", "", "Input image file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Initialize classifier
	classifierFactory := factory.NewClassifierFactory(cfg, logger)
	classifier, err := classifierFactory.CreateClassifier()
	if err != nil {
		logger.Fatal("Failed to create classifier", zap.Error(err))
	}
	if classifier == nil {
		logger.Fatal("Classification is disabled in the loaded configuration")
	}

	// Read image from file or stdin
	var image []byte
	if *inputFile != "" {
		image, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", zap.Error(err), zap.String("file", *inputFile))
		}
		logger.Info("Reading image from file", zap.String("file", *inputFile))
	} else {
		image, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read image from stdin", zap.Error(err))
		}
		logger.Info("Reading image from stdin")
	}

	// Print image summary
	fmt.Printf("\n=== Image Summary ===\n")
	if *inputFile != "" {
		fmt.Printf("File: %s\n", *inputFile)
	} else {
		fmt.Printf("File: (stdin)\n")
	}
	fmt.Printf("Size: %d bytes\n", len(image))
	fmt.Printf("\n")

	// Classify image
	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("classifier.provider"))
	fmt.Printf("Threshold: %.2f\n", cfg.GetFloat64("classifier.threshold"))

	startTime := time.Now()
	scores, err := classifier.Classify(context.Background(), image)
	if err != nil {
		logger.Fatal("Failed to classify image", zap.Error(err))
	}
	duration := time.Since(startTime)

	verdict := core.Evaluate(scores, cfg.GetFloat64("classifier.threshold"))

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Flagged: %t\n", verdict.Flagged)
	for _, category := range core.Categories {
		fmt.Printf("%s: %.4f\n", category.String(), scores.Score(category))
	}
	if verdict.Flagged {
		fmt.Printf("Category: %s\n", verdict.Category.String())
		fmt.Printf("Score: %.4f\n", verdict.Score)
	}
	fmt.Printf("Processing time: %v\n", duration)

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set classifier provider
	v.Set("classifier.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	}

	// Set flagging threshold
	v.Set("classifier.threshold", *threshold)

	return config.NewFromViper(v)
}
