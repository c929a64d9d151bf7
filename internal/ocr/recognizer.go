package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// Backend names accepted by New.
const (
	BackendTesseract = "tesseract"
	BackendOllama    = "ollama"
	BackendGemini    = "gemini"
	BackendONNX      = "onnx"
)

// DefaultBackend is used when Options.Backend is empty.
const DefaultBackend = BackendTesseract

// Candidate is one recognition hypothesis for a cell.
type Candidate struct {
	// Text is the recognized text as returned by the backend.
	Text string `json:"text"`

	// Confidence is the backend's score, normalized to 0.0-1.0.
	Confidence float64 `json:"confidence"`
}

// Recognizer reads the digit in a single cell image.
type Recognizer interface {
	// Name identifies the backend in logs and results.
	Name() string

	// Recognize returns the candidates for img. An empty slice means the
	// backend saw nothing it could read.
	Recognize(ctx context.Context, img *image.Gray) ([]Candidate, error)

	// Close releases backend resources.
	Close() error
}

// BestDigit picks the most confident candidate whose text, reduced to its
// digits, is exactly one character between '1' and '9'. Candidates with more
// than one digit are discarded rather than truncated. A candidate must have a
// positive confidence to count; on equal confidence the earlier one wins.
func BestDigit(cands []Candidate) (string, bool) {
	best := ""
	bestConf := 0.0

	for _, c := range cands {
		d := digitsOnly(c.Text)
		if len(d) != 1 || d[0] < '1' || d[0] > '9' {
			continue
		}
		if c.Confidence > bestConf {
			best = d
			bestConf = c.Confidence
		}
	}

	return best, best != ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Options selects and configures a backend. Fields that do not apply to the
// chosen backend are ignored.
type Options struct {
	Backend string

	// Tesseract
	Language string

	// Ollama
	OllamaURL   string
	OllamaModel string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// ONNX
	ONNXModelPath   string
	ONNXLibraryPath string
	ONNXInputName   string
	ONNXOutputName  string

	// Timeout bounds a single remote request. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration
}

// New builds the recognizer named by opts.Backend.
func New(ctx context.Context, opts Options) (Recognizer, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = DefaultBackend
	}

	switch backend {
	case BackendTesseract:
		return NewTesseract(opts.Language), nil
	case BackendOllama:
		return NewOllama(opts.OllamaURL, opts.OllamaModel, opts.Timeout), nil
	case BackendGemini:
		return NewGemini(ctx, opts.GeminiAPIKey, opts.GeminiModel)
	case BackendONNX:
		return NewONNX(ONNXConfig{
			ModelPath:   opts.ONNXModelPath,
			LibraryPath: opts.ONNXLibraryPath,
			InputName:   opts.ONNXInputName,
			OutputName:  opts.ONNXOutputName,
		})
	default:
		return nil, errors.Errorf("unknown recognition backend %q", opts.Backend)
	}
}

// digitPrompt is shared by the vision-model backends.
const digitPrompt = `The image is one cell cut from a photographed Sudoku puzzle.
If the cell contains a single printed or handwritten digit from 1 to 9, report it.
If the cell is blank or unreadable, report an empty string.
Return only a JSON object with this exact schema and nothing else:
{"digit": "<1-9 or empty string>", "confidence": <number between 0 and 1>}`

// digitReply is the JSON object the vision models are asked to return.
// Models are inconsistent about quoting, so digit is decoded loosely.
type digitReply struct {
	Digit      json.RawMessage `json:"digit"`
	Confidence *float64        `json:"confidence"`
}

// parseDigitReply extracts the reply object from model output that may be
// wrapped in code fences or surrounded by prose. A reply without a
// confidence is taken as certain.
func parseDigitReply(text string) ([]Candidate, error) {
	text = stripCodeFences(strings.TrimSpace(text))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, errors.Errorf("no JSON object in reply %q", text)
	}

	var reply digitReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return nil, errors.Wrap(err, "failed to decode reply")
	}

	digit := decodeLoose(reply.Digit)
	if digit == "" {
		return []Candidate{}, nil
	}

	conf := 1.0
	if reply.Confidence != nil {
		conf = *reply.Confidence
	}
	return []Candidate{{Text: digit, Confidence: conf}}, nil
}

func decodeLoose(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag on the opening fence
	s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsLetter(r) })
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode cell")
	}
	return buf.Bytes(), nil
}
