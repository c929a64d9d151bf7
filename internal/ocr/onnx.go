package ocr

import (
	"context"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	mnistSide  = 28
	mnistInner = 20 // digit box inside the 28x28 frame, as in MNIST
	mnistClass = 10

	defaultONNXInput  = "Input3"
	defaultONNXOutput = "Plus214_Output_0"
)

// ONNXConfig locates the model and the onnxruntime shared library.
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
}

// ONNX classifies cells with an MNIST-style network: a 1x1x28x28 float input
// of light ink on black and ten logits out.
type ONNX struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

var ortInit sync.Mutex

// NewONNX loads the model and allocates its tensors.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("onnx model path is empty")
	}
	if cfg.InputName == "" {
		cfg.InputName = defaultONNXInput
	}
	if cfg.OutputName == "" {
		cfg.OutputName = defaultONNXOutput
	}

	ortInit.Lock()
	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortInit.Unlock()
			return nil, errors.Wrap(err, "error initializing ORT environment")
		}
	}
	ortInit.Unlock()

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, mnistSide, mnistSide))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, mnistClass))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &ONNX{session: session, input: input, output: output}, nil
}

func (o *ONNX) Name() string { return BackendONNX }

// Close destroys the session and its tensors. The ORT environment stays up
// for other sessions in the process.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
	if o.input != nil {
		o.input.Destroy()
		o.input = nil
	}
	if o.output != nil {
		o.output.Destroy()
		o.output = nil
	}
	return nil
}

// Recognize returns one candidate per digit 1-9 ordered by probability.
// Zero is never a valid Sudoku value and is left out.
func (o *ONNX) Recognize(ctx context.Context, img *image.Gray) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil, errors.New("onnx recognizer is closed")
	}

	copy(o.input.GetData(), mnistInput(img))
	if err := o.session.Run(); err != nil {
		return nil, errors.Wrap(err, "onnx inference failed")
	}

	return digitCandidates(softmax(o.output.GetData())), nil
}

// mnistInput converts a paper-polarity cell into the normalized MNIST layout:
// inverted so ink is bright, fitted into a 20x20 box and centered on a 28x28
// black frame, values in 0.0-1.0.
func mnistInput(img *image.Gray) []float32 {
	inv := imaging.Invert(img)
	fitted := imaging.Fit(inv, mnistInner, mnistInner, imaging.Lanczos)
	frame := imaging.PasteCenter(imaging.New(mnistSide, mnistSide, color.Black), fitted)

	out := make([]float32, mnistSide*mnistSide)
	for y := 0; y < mnistSide; y++ {
		for x := 0; x < mnistSide; x++ {
			// channels are equal after the gray source; red is enough
			out[y*mnistSide+x] = float32(frame.Pix[y*frame.Stride+x*4]) / 255
		}
	}
	return out
}

func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		peak = math32.Max(peak, v)
	}

	probs := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		probs[i] = math32.Exp(v - peak)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func digitCandidates(probs []float32) []Candidate {
	cands := make([]Candidate, 0, mnistClass-1)
	for d := 1; d < len(probs) && d < mnistClass; d++ {
		cands = append(cands, Candidate{
			Text:       string(rune('0' + d)),
			Confidence: float64(probs[d]),
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
	return cands
}
