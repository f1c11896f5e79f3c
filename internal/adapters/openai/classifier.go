package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// Classifier is an implementation of the ImageClassifier interface using
// OpenAI vision-capable chat models.
type Classifier struct {
	client      *openai.Client
	modelName   string
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

// NewClassifier creates a new OpenAI-backed image classifier.
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Classifier {
	client := openai.NewClient(apiKey)

	return &Classifier{
		client:      client,
		modelName:   modelName,
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

	dataURL := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an image safety classifier. Respond only with JSON.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: c.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: openai request failed: %v", core.ErrModelUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return core.CategoryScores{}, fmt.Errorf("%w: empty response from openai", core.ErrModelUnavailable)
	}

	responseText := resp.Choices[0].Message.Content

	scores, err := parseScores(responseText)
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("OpenAI classification complete",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID),
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
