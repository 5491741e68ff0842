package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// InputSize is the spatial size the classification model expects.
const InputSize = 150

// Channels is the number of color channels fed to the model.
const Channels = 3

// TensorLen is the length of a single preprocessed input, batch included.
const TensorLen = InputSize * InputSize * Channels

var (
	// ErrUnsupportedMediaType reports an upload whose content type is not allowed.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidImage reports bytes that could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image data")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

// ValidateMediaType checks the declared content type against the allow-list.
// It runs before any decoding so disallowed uploads never reach the decoder.
func ValidateMediaType(contentType string) error {
	if _, ok := allowedTypes[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}
	return nil
}

// Preprocess turns uploaded image bytes into the flat float tensor the model
// consumes: decoded, bilinearly resized to InputSize x InputSize, intensities
// scaled to [0,1], HWC layout, batch of one.
func Preprocess(data []byte, contentType string) ([]float32, error) {
	if err := ValidateMediaType(contentType); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := resize.Resize(InputSize, InputSize, img, resize.Bilinear)

	input := make([]float32, TensorLen)
	i := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			input[i] = float32(r) / 65535.0
			input[i+1] = float32(g) / 65535.0
			input[i+2] = float32(b) / 65535.0
			i += Channels
		}
	}

	return input, nil
}
