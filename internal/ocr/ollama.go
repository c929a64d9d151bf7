package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2-vision"
)

// Ollama asks a local vision model served by Ollama to read the cell.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
	Format string   `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllama returns an Ollama recognizer. Empty arguments select the local
// default endpoint and the llama3.2-vision model.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string { return BackendOllama }

func (o *Ollama) Close() error { return nil }

// Recognize sends the cell as a PNG and parses the model's JSON reply.
func (o *Ollama) Recognize(ctx context.Context, img *image.Gray) ([]Candidate, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaRequest{
		Model:  o.model,
		Prompt: digitPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("ollama request failed with status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	cands, err := parseDigitReply(out.Response)
	if err != nil {
		return nil, errors.Wrap(err, "ollama")
	}
	return cands, nil
}
