// Package qrcode renders provisioning URIs as PNG QR codes, either raw or as
// a data URI that a client can drop into an <img> tag.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when the content is empty or only whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrGenerate is returned when the underlying encoder fails.
	ErrGenerate = errors.New("qrcode: failed to generate")
)

// DefaultSize is the image edge in pixels used when a non-positive size is configured.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Renderer turns text into a QR image.
type Renderer interface {
	// PNG returns the encoded PNG image.
	PNG(content string) ([]byte, error)
	// DataURI returns the PNG as a base64 data URI.
	DataURI(content string) (string, error)
}

// Generator renders QR codes with github.com/skip2/go-qrcode.
type Generator struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// New returns a Generator producing size x size images with medium error correction.
func New(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}

	return &Generator{size: size, level: skipqrcode.Medium}
}

// PNG returns the encoded PNG image.
func (g *Generator) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	png, err := skipqrcode.Encode(content, g.level, g.size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}

	return png, nil
}

// DataURI returns the PNG as "data:image/png;base64,...".
func (g *Generator) DataURI(content string) (string, error) {
	png, err := g.PNG(content)
	if err != nil {
		return "", err
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
