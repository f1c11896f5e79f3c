package bedrock

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of the Bedrock classifier.
type Factory struct {
	region      string
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewFactory creates a new factory for Bedrock classifier instances.
func NewFactory(
	region string,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Factory {
	return &Factory{
		region:      region,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// CreateClassifier creates a new Bedrock classifier.
func (f *Factory) CreateClassifier() (core.ImageClassifier, error) {
	if !strings.HasPrefix(f.modelID, "anthropic.claude") {
		return nil, fmt.Errorf("bedrock classifier requires an Anthropic Claude model, got %q", f.modelID)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(f.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)

	return NewClassifier(
		client,
		f.modelID,
		f.maxTokens,
		f.temperature,
		f.topP,
		f.logger,
	), nil
}
