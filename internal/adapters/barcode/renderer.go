package barcode

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// Renderer rasterizes barcode labels as Code128 PNGs for printing
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer with the standard label size
func NewRenderer() *Renderer {
	return &Renderer{width: 400, height: 120}
}

// RenderPNG encodes the code value as a Code128 PNG
func (r *Renderer) RenderPNG(codeValue string) ([]byte, error) {
	code, err := code128.Encode(codeValue)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := barcode.Scale(code, r.width, r.height)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to render barcode png: %w", err)
	}
	return buf.Bytes(), nil
}
