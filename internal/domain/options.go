package domain

import (
	"fmt"
	"strings"
)

// PaperFormat names a supported page size.
type PaperFormat string

const (
	FormatA4      PaperFormat = "A4"
	FormatA3      PaperFormat = "A3"
	FormatLetter  PaperFormat = "Letter"
	FormatLegal   PaperFormat = "Legal"
	FormatTabloid PaperFormat = "Tabloid"
)

// DefaultMargin is applied to every side when no margin is given.
const DefaultMargin = "20px"

// PaperSize is a page size in inches.
type PaperSize struct {
	Width  float64
	Height float64
}

var paperSizes = map[PaperFormat]PaperSize{
	FormatA4:      {Width: 8.27, Height: 11.7},
	FormatA3:      {Width: 11.7, Height: 16.54},
	FormatLetter:  {Width: 8.5, Height: 11},
	FormatLegal:   {Width: 8.5, Height: 14},
	FormatTabloid: {Width: 11, Height: 17},
}

// ParseFormat resolves a paper format name case-insensitively.
// The empty string yields the default A4.
func ParseFormat(name string) (PaperFormat, error) {
	if name == "" {
		return FormatA4, nil
	}
	for f := range paperSizes {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown paper format %q", ErrInvalidInput, name)
}

// Size returns the page dimensions for f.
func (f PaperFormat) Size() (PaperSize, error) {
	s, ok := paperSizes[f]
	if !ok {
		return PaperSize{}, fmt.Errorf("%w: unknown paper format %q", ErrInvalidInput, string(f))
	}
	return s, nil
}

// Margin holds CSS length strings for each page edge.
type Margin struct {
	Top    string `json:"top,omitempty"`
	Right  string `json:"right,omitempty"`
	Bottom string `json:"bottom,omitempty"`
	Left   string `json:"left,omitempty"`
}

// MarginInches is a Margin resolved to inches.
type MarginInches struct {
	Top, Right, Bottom, Left float64
}

// Inches converts every edge with ParseLength.
func (m Margin) Inches() (MarginInches, error) {
	var out MarginInches
	edges := []struct {
		name string
		src  string
		dst  *float64
	}{
		{"top", m.Top, &out.Top},
		{"right", m.Right, &out.Right},
		{"bottom", m.Bottom, &out.Bottom},
		{"left", m.Left, &out.Left},
	}
	for _, e := range edges {
		v, err := ParseLength(e.src)
		if err != nil {
			return MarginInches{}, fmt.Errorf("margin %s: %w", e.name, err)
		}
		*e.dst = v
	}
	return out, nil
}

// RenderOptions controls page setup for a single render.
type RenderOptions struct {
	Format          PaperFormat
	Margin          Margin
	PrintBackground bool
}

// DefaultRenderOptions returns A4 with 20px margins and backgrounds enabled.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Format: FormatA4,
		Margin: Margin{
			Top:    DefaultMargin,
			Right:  DefaultMargin,
			Bottom: DefaultMargin,
			Left:   DefaultMargin,
		},
		PrintBackground: true,
	}
}

// Validate checks that the options map to engine print parameters.
func (o RenderOptions) Validate() error {
	if _, err := o.Format.Size(); err != nil {
		return err
	}
	_, err := o.Margin.Inches()
	return err
}
