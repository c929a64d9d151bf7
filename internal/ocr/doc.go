// Package ocr recognizes a single Sudoku digit in a cell image.
//
// Every backend implements the Recognizer interface and returns a list of
// Candidates. BestDigit reduces that list to at most one digit in the range
// 1 to 9; anything else (multi-character text, zero, punctuation) is treated as
// "no digit" by the caller.
//
// # Backends
//
//   - tesseract: classical OCR through gosseract, single-character page
//     segmentation with a 1-9 whitelist. Requires libtesseract and the
//     language data for the configured language.
//   - ollama: a local vision model behind Ollama's /api/generate endpoint.
//   - gemini: Google Gemini through the generative-ai-go client.
//   - onnx: an MNIST-style 28x28 classifier run with onnxruntime.
//
// Use New to build a backend from Options. Backends are safe for concurrent
// use; the ONNX backend serializes inference internally.
//
// # Cell Images
//
// Cells arrive in paper polarity: ink is dark (0) on a light (255)
// background. Backends that need a different input (the MNIST classifier
// expects light ink on black) convert it themselves.
package ocr
