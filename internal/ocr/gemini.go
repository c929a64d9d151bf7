package ocr

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// geminiAttempts bounds retries on transient API failures.
const geminiAttempts = 3

// Gemini reads cells with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini connects to the Gemini API. The client is shared by all calls
// and must be released with Close.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini API key is empty")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	m := cl.GenerativeModel(model)
	temp := float32(0)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	return &Gemini{client: cl, model: m, name: model}, nil
}

func (g *Gemini) Name() string { return BackendGemini }

func (g *Gemini) Close() error { return g.client.Close() }

// Recognize sends the prompt and the cell PNG, retrying transient failures
// with a short linear backoff.
func (g *Gemini) Recognize(ctx context.Context, img *image.Gray) ([]Candidate, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{
		genai.Text(digitPrompt),
		genai.Blob{MIMEType: "image/png", Data: data},
	}

	var lastErr error
	for attempt := 1; attempt <= geminiAttempts; attempt++ {
		resp, err := g.model.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}

		txt := firstText(resp)
		if txt == "" {
			return nil, errors.New("gemini: empty response")
		}
		cands, err := parseDigitReply(txt)
		if err != nil {
			return nil, errors.Wrap(err, "gemini")
		}
		return cands, nil
	}
	return nil, errors.Wrapf(lastErr, "gemini %s failed after %d attempts", g.name, geminiAttempts)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
