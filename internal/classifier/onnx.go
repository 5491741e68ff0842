package classifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/argotrack/scan-api/internal/imaging"
)

// onnxModel wraps an ONNX runtime session. The session reuses one input and
// one output tensor, so Predict serializes access with a mutex.
type onnxModel struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// ONNXLoader returns a Loader that resolves the model location and builds an
// ONNX runtime session. An http(s) location is fetched to a local file first.
func ONNXLoader(location string) Loader {
	return func(ctx context.Context) (Model, error) {
		path, err := resolveModelPath(ctx, location)
		if err != nil {
			return nil, err
		}
		return newONNXModel(path)
	}
}

func newONNXModel(modelPath string) (Model, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(1, imaging.InputSize, imaging.InputSize, imaging.Channels)
	outputShape := ort.NewShape(1, int64(len(Labels)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxModel{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict runs one forward pass and returns a copy of the score vector.
func (m *onnxModel) Predict(input []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputTensor.GetData(), input)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := m.outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

func (m *onnxModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// resolveModelPath turns a configured model location into a local file path,
// downloading remote artifacts into the temp directory.
func resolveModelPath(ctx context.Context, location string) (string, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return location, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("invalid model location: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch model: status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), filepath.Base(req.URL.Path))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write model file: %w", err)
	}
	return path, nil
}
