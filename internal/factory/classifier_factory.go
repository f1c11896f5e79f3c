package factory

import (
	"fmt"

	"github.com/tropical-362827/futaba-shieldgemma/internal/adapters/bedrock"
	"github.com/tropical-362827/futaba-shieldgemma/internal/adapters/gemini"
	"github.com/tropical-362827/futaba-shieldgemma/internal/adapters/openai"
	"github.com/tropical-362827/futaba-shieldgemma/internal/config"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// ClassifierFactory creates image classifiers
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates a new image classifier based on the configuration.
// Returns (nil, nil) when classification is disabled.
func (f *ClassifierFactory) CreateClassifier() (core.ImageClassifier, error) {
	if !f.cfg.GetBool("monitor.classify") {
		f.logger.Info("Classification disabled, running in monitoring-only mode")
		return nil, nil
	}

	classifierCfg := f.cfg.GetClassifier()

	switch classifierCfg.Provider {
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		factory := gemini.NewFactory(
			geminiCfg.APIKey,
			geminiCfg.ModelName,
			geminiCfg.MaxTokens,
			geminiCfg.Temperature,
			geminiCfg.TopP,
			f.logger,
		)
		return factory.CreateClassifier()
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		factory := openai.NewFactory(
			openaiCfg.APIKey,
			openaiCfg.ModelName,
			openaiCfg.MaxTokens,
			openaiCfg.Temperature,
			openaiCfg.TopP,
			f.logger,
		)
		return factory.CreateClassifier()
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		factory := bedrock.NewFactory(
			bedrockCfg.Region,
			bedrockCfg.ModelID,
			bedrockCfg.MaxTokens,
			bedrockCfg.Temperature,
			bedrockCfg.TopP,
			f.logger,
		)
		return factory.CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", classifierCfg.Provider)
	}
}
