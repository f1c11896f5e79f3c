package gemini

import (
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of the Gemini classifier.
type Factory struct {
	apiKey      string
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewFactory creates a new factory for Gemini classifier instances.
func NewFactory(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Factory {
	return &Factory{
		apiKey:      apiKey,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// CreateClassifier creates a new Gemini classifier.
func (f *Factory) CreateClassifier() (core.ImageClassifier, error) {
	return NewClassifier(
		f.apiKey,
		f.modelName,
		f.maxTokens,
		f.temperature,
		f.topP,
		f.logger,
	)
}
