package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// Classifier is an implementation of the ImageClassifier interface using
// Anthropic Claude vision models on Amazon Bedrock.
type Classifier struct {
	client      *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
	prompt      string
}

// scoresResponse represents the structured response from the model.
type scoresResponse struct {
	Sexual    float64 `json:"sexually_explicit"`
	Dangerous float64 `json:"dangerous_content"`
	Violent   float64 `json:"violence_gore"`
}

const classifyPrompt = `You are an image safety classifier. Examine the attached image and estimate, for each policy below, the probability that the image violates it.
Respond with a JSON object containing:
- sexually_explicit: number between 0 and 1 (nudity or sexual content)
- dangerous_content: number between 0 and 1 (weapons, drugs, self-harm, instructions for harm)
- violence_gore: number between 0 and 1 (violence, gore, serious injury)

Respond only with the JSON object and nothing else.`

// NewClassifier creates a new Bedrock classifier. Only Anthropic Claude
// models are supported; the factory validates the model ID.
func NewClassifier(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Classifier {
	return &Classifier{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
		prompt:      classifyPrompt,
	}
}

// Classify scores raw image bytes against the three fixed categories.
func (c *Classifier) Classify(ctx context.Context, image []byte) (core.CategoryScores, error) {
	mediaType := http.DetectContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return core.CategoryScores{}, fmt.Errorf("%w: payload is %s, not an image", core.ErrUnusableImage, mediaType)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"temperature":       c.temperature,
		"top_p":             c.topP,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image",
						"source": map[string]interface{}{
							"type":       "base64",
							"media_type": mediaType,
							"data":       base64.StdEncoding.EncodeToString(image),
						},
					},
					{
						"type": "text",
						"text": c.prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: failed to invoke Bedrock model: %v", core.ErrModelUnavailable, err)
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: failed to unmarshal Claude response: %v", core.ErrModelUnavailable, err)
	}

	responseText := ""
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return core.CategoryScores{}, fmt.Errorf("%w: empty response from Claude", core.ErrModelUnavailable)
	}

	scores, err := parseScores(responseText)
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("Bedrock classification complete",
		zap.String("model", c.modelID),
		zap.Float64("sexual", scores.Sexual),
		zap.Float64("dangerous", scores.Dangerous),
		zap.Float64("violent", scores.Violent))
	return scores, nil
}

// parseScores parses the model's JSON response, tolerating surrounding prose
// by extracting the outermost JSON object.
func parseScores(responseText string) (core.CategoryScores, error) {
	var parsed scoresResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		jsonStart := strings.Index(responseText, "{")
		jsonEnd := strings.LastIndex(responseText, "}")
		if jsonStart < 0 || jsonEnd <= jsonStart {
			return core.CategoryScores{}, fmt.Errorf("failed to extract JSON from model response: %v", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &parsed); err != nil {
			return core.CategoryScores{}, fmt.Errorf("failed to parse model response as JSON: %v", err)
		}
	}
	return core.CategoryScores{
		Sexual:    clamp01(parsed.Sexual),
		Dangerous: clamp01(parsed.Dangerous),
		Violent:   clamp01(parsed.Violent),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
