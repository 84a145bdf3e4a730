// Package report renders the congruency matrices of a run in the supported
// output formats.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sumatoshi-tech/matches/pkg/cmatrix"
	"github.com/Sumatoshi-tech/matches/pkg/congruency"
)

// ErrUnknownFormat indicates an output format name that is not supported.
var ErrUnknownFormat = errors.New("report: unknown format")

// ErrNoSections indicates a report with nothing to render.
var ErrNoSections = errors.New("report: no sections")

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatPlot  Format = "plot"
)

// Formats lists every supported format in help order.
func Formats() []Format {
	return []Format{FormatText, FormatTable, FormatJSON, FormatYAML, FormatPlot}
}

// ParseFormat converts a name into a Format. An empty name is FormatText.
func ParseFormat(name string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return FormatText, nil
	}

	for _, f := range Formats() {
		if f == normalized {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Section is the outcome of one index pass.
type Section struct {
	Index  congruency.Index
	Mode   congruency.Mode
	Matrix *cmatrix.Matrix
	Stats  cmatrix.Stats
}

// Report is everything a run produced.
type Report struct {
	// Source is the directory the clustersets were read from.
	Source string
	// Elements is the size of the global element-name list.
	Elements int
	Sections []Section
}

// Options tunes renderers that support it.
type Options struct {
	// NoColor disables ANSI colours in the table format.
	NoColor bool
}

// Renderer writes a Report to a sink.
type Renderer interface {
	Render(w io.Writer, rep Report) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, rep Report) error

// Render implements Renderer.
func (f RendererFunc) Render(w io.Writer, rep Report) error {
	return f(w, rep)
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatText, "":
		return RendererFunc(renderText), nil
	case FormatTable:
		return &tableRenderer{noColor: opts.NoColor}, nil
	case FormatJSON:
		return codecRenderer{codec: NewJSONCodec()}, nil
	case FormatYAML:
		return codecRenderer{codec: NewYAMLCodec()}, nil
	case FormatPlot:
		return RendererFunc(renderPlot), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// Render is a shortcut for New followed by Renderer.Render.
func Render(w io.Writer, format Format, rep Report, opts Options) error {
	renderer, err := New(format, opts)
	if err != nil {
		return err
	}

	return renderer.Render(w, rep)
}

func sectionHeading(s Section) string {
	if s.Mode == congruency.ModeRatio {
		return s.Index.Title()
	}

	return fmt.Sprintf("%s [%s]", s.Index.Title(), strings.ToUpper(s.Mode.String()))
}
