package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Default indentation for pretty-printed output.
const (
	defaultJSONIndent = "  "
	defaultYAMLIndent = 2
)

// Codec serializes a value.
type Codec interface {
	// Encode writes v to the writer.
	Encode(w io.Writer, v any) error
	// Decode reads v from the reader.
	Decode(r io.Reader, v any) error
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with 2-space indentation.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultJSONIndent}
}

// Encode implements Codec.Encode.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// YAMLCodec implements Codec using YAML encoding.
type YAMLCodec struct {
	Indent int
}

// NewYAMLCodec creates a YAML codec with 2-space indentation.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{Indent: defaultYAMLIndent}
}

// Encode implements Codec.Encode.
func (c *YAMLCodec) Encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(c.Indent)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return fmt.Errorf("yaml encode: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *YAMLCodec) Decode(r io.Reader, v any) error {
	err := yaml.NewDecoder(r).Decode(v)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Document is the serialized form of a Report.
type Document struct {
	Source   string            `json:"source"   yaml:"source"`
	Elements int               `json:"elements" yaml:"elements"`
	Sections []SectionDocument `json:"sections" yaml:"sections"`
}

// SectionDocument is the serialized form of a Section.
type SectionDocument struct {
	Index  string      `json:"index"  yaml:"index"`
	Mode   string      `json:"mode"   yaml:"mode"`
	Labels []string    `json:"labels" yaml:"labels"`
	Matrix [][]float64 `json:"matrix" yaml:"matrix"`
	Mean   float64     `json:"mean"   yaml:"mean"`
	StdDev float64     `json:"stddev" yaml:"stddev"`
	Pairs  int         `json:"pairs"  yaml:"pairs"`
}

// NewDocument flattens rep into its serialized form.
func NewDocument(rep Report) Document {
	doc := Document{
		Source:   rep.Source,
		Elements: rep.Elements,
		Sections: make([]SectionDocument, 0, len(rep.Sections)),
	}

	for _, s := range rep.Sections {
		doc.Sections = append(doc.Sections, SectionDocument{
			Index:  s.Index.String(),
			Mode:   s.Mode.String(),
			Labels: s.Matrix.Labels(),
			Matrix: s.Matrix.Rows(),
			Mean:   s.Stats.Mean,
			StdDev: s.Stats.StdDev,
			Pairs:  s.Stats.Pairs,
		})
	}

	return doc
}

type codecRenderer struct {
	codec Codec
}

func (r codecRenderer) Render(w io.Writer, rep Report) error {
	return r.codec.Encode(w, NewDocument(rep))
}
