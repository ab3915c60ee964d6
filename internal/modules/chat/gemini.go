// README: Gemini-backed answer generator for knowledge-base misses.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const generatorPrompt = `You are the support assistant of a food ordering
and delivery platform. Answer the customer's question concisely and
factually. If the question is unrelated to food ordering, delivery, or
account matters, say that you can only help with platform questions.`

// GeminiGenerator implements Generator using Google's Gemini models.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator initializes a new Gemini client. apiKey should come
// from configuration, never be hard coded.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps latency and cost low for support traffic.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.2)

	return &GeminiGenerator{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (g *GeminiGenerator) Close() {
	g.client.Close()
}

// Generate produces a free-form answer for a question the knowledge base
// could not cover.
func (g *GeminiGenerator) Generate(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nQuestion: %s", generatorPrompt, question)
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return answer, nil
}
