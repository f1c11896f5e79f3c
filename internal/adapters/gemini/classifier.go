package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Classifier is an implementation of the ImageClassifier interface using
// Google Gemini vision models.
type Classifier struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
	prompt    string
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

// NewClassifier creates a new Gemini-backed image classifier.
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Classifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Classifier{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
		prompt:    classifyPrompt,
	}, nil
}

// Close closes the underlying Gemini client.
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify scores raw image bytes against the three fixed categories.
func (c *Classifier) Classify(ctx context.Context, image []byte) (core.CategoryScores, error) {
	format, err := imageFormat(image)
	if err != nil {
		return core.CategoryScores{}, err
	}

	resp, err := c.model.GenerateContent(ctx, genai.ImageData(format, image), genai.Text(c.prompt))
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: gemini request failed: %v", core.ErrModelUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		// Gemini returns no candidates when the input itself is blocked.
		return core.CategoryScores{}, fmt.Errorf("%w: empty response from gemini", core.ErrUnusableImage)
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	scores, err := parseScores(responseText)
	if err != nil {
		return core.CategoryScores{}, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("Gemini classification complete",
		zap.String("model", c.modelName),
		zap.Float64("sexual", scores.Sexual),
		zap.Float64("dangerous", scores.Dangerous),
		zap.Float64("violent", scores.Violent))
	return scores, nil
}

// imageFormat sniffs the payload and returns the format name genai expects.
func imageFormat(image []byte) (string, error) {
	mediaType := http.DetectContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: payload is %s, not an image", core.ErrUnusableImage, mediaType)
	}
	return strings.TrimPrefix(mediaType, "image/"), nil
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
