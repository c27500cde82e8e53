package external

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiName is the Name of GeminiBackend.
const GeminiName = "gemini"

// contentGenerator is the part of *genai.GenerativeModel the backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiBackend calls the Google Gemini API.
type GeminiBackend struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
}

// NewGeminiBackend creates a client for modelName authenticated with apiKey.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini API key is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	temperature := float32(0.1)
	model.Temperature = &temperature

	return &GeminiBackend{client: client, model: model, modelName: modelName}, nil
}

func (g *GeminiBackend) Name() string   { return GeminiName }
func (g *GeminiBackend) Billable() bool { return true }

// Complete sends the prompt and concatenates the text parts of the first
// candidate.
func (g *GeminiBackend) Complete(ctx context.Context, prompt string, _ Request) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error (model %s): %w", g.modelName, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from Gemini API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from Gemini API")
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *GeminiBackend) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
