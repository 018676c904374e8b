package imagelink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

const dataURIPrefix = "data:file/png;base64,"

// encoder is fixed so the same pixels always produce the same payload
var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// EncodingError is returned when an image cannot be serialized to PNG.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode image as PNG: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// BuildDownloadLink encodes img as PNG and returns an anchor tag whose href is a
// base64 data URI. filename and label are inserted verbatim; the caller is
// responsible for supplying safe values.
func BuildDownloadLink(img image.Image, filename, label string) (string, error) {
	payload, err := EncodePNGBase64(img)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<a href="%s%s" download="%s">%s</a>`, dataURIPrefix, payload, filename, label), nil
}

// EncodePNGBase64 serializes img to PNG in memory and returns the standard base64 encoding.
func EncodePNGBase64(img image.Image) (string, error) {
	if img == nil {
		return "", &EncodingError{Err: fmt.Errorf("image is nil")}
	}

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return "", &EncodingError{Err: err}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
